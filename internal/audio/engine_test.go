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

// Package audio_test covers the pieces of the ffmpeg wrapper that do not
// need a real ffmpeg binary: argument-list failure paths and the
// cross-filesystem file move.
package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-pronun-backend/internal/audio"
	"github.com/jaycherian/go-pronun-backend/internal/platform"
)

// TestMoveFile asserts that a move lands the content at the destination and
// removes the source.
func TestMoveFile(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	src := filepath.Join(srcDir, "in.mp3")
	dst := filepath.Join(dstDir, "out.mp3")
	require.NoError(t, os.WriteFile(src, []byte("mp3 bytes"), 0o640))

	require.NoError(t, audio.MoveFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), data)
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

// TestMoveFileMissingSource asserts the error path for a vanished source.
func TestMoveFileMissingSource(t *testing.T) {
	err := audio.MoveFile(filepath.Join(t.TempDir(), "absent.mp3"), filepath.Join(t.TempDir(), "out.mp3"))
	assert.Error(t, err)
}

// TestConcatAudioRejectsEmptyInput asserts that an empty segment list fails
// before ffmpeg is ever invoked.
func TestConcatAudioRejectsEmptyInput(t *testing.T) {
	engine := audio.NewFFmpegEngine(platform.FFmpeg{CommandPath: "ffmpeg-should-not-run"})
	err := engine.ConcatAudio(context.Background(), nil, filepath.Join(t.TempDir(), "out.mp3"))
	assert.ErrorContains(t, err, "no audio segments")
}

// TestExtractAudioMissingBinary asserts that a missing ffmpeg executable
// surfaces as an error rather than a panic or a silent success.
func TestExtractAudioMissingBinary(t *testing.T) {
	engine := audio.NewFFmpegEngine(platform.FFmpeg{CommandPath: filepath.Join(t.TempDir(), "no-such-ffmpeg")})
	err := engine.ExtractAudio(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.mp3"))
	assert.ErrorContains(t, err, "error extracting audio")
}
