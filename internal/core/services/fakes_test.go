// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services_test exercises the upload and synthesis orchestrators
// against in-memory fakes of the two external capabilities: the speech
// provider and the ffmpeg engine. The fakes record every call so the tests
// can assert ordering, chunk boundaries, and cleanup behavior without
// touching the network or a real ffmpeg binary.
package services_test

import (
	"context"
	"fmt"
	"os"

	"github.com/jaycherian/go-pronun-backend/internal/speech"
)

// fakeSpeechClient implements speech.Client. Each call returns a marker
// payload carrying its call index, so concatenated output proves ordering.
type fakeSpeechClient struct {
	texts  []string
	speeds []float64

	// failAt makes call number failAt (zero-based) return failWith.
	// A negative failAt never fails.
	failAt   int
	failWith *speech.SynthesisError
}

func newFakeSpeechClient() *fakeSpeechClient {
	return &fakeSpeechClient{failAt: -1}
}

func (f *fakeSpeechClient) Synthesize(_ context.Context, text string, speed float64) ([]byte, error) {
	call := len(f.texts)
	f.texts = append(f.texts, text)
	f.speeds = append(f.speeds, speed)
	if call == f.failAt {
		return nil, f.failWith
	}
	return []byte(fmt.Sprintf("[audio-%d]", call)), nil
}

// fakeEngine implements audio.Engine. ExtractAudio writes a placeholder MP3
// to the output path; ConcatAudio folds the segment files by plain byte
// concatenation, which is enough to verify ordering.
type fakeEngine struct {
	extractSources []string
	concatBatches  [][]string

	extractErr error
	concatErr  error
}

func (f *fakeEngine) ExtractAudio(_ context.Context, sourcePath, outputPath string) error {
	f.extractSources = append(f.extractSources, sourcePath)
	if f.extractErr != nil {
		return f.extractErr
	}
	return os.WriteFile(outputPath, []byte("extracted-mp3"), 0o640)
}

func (f *fakeEngine) ConcatAudio(_ context.Context, segmentPaths []string, outputPath string) error {
	recorded := make([]string, len(segmentPaths))
	copy(recorded, segmentPaths)
	f.concatBatches = append(f.concatBatches, recorded)
	if f.concatErr != nil {
		return f.concatErr
	}

	var combined []byte
	for _, segment := range segmentPaths {
		data, err := os.ReadFile(segment)
		if err != nil {
			return err
		}
		combined = append(combined, data...)
	}
	return os.WriteFile(outputPath, combined, 0o640)
}
