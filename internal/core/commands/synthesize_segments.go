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

// Package commands provides the concrete pipeline commands. This file
// defines the segmentation-and-synthesis step of the TTS pipeline.
//
// Logic Flow:
//  1. Read the SynthesisRequest (with an already-resolved output path) from
//     the context.
//  2. Compute the segment count: ceiling(text length / provider limit). The
//     4000-character ceiling is the provider's hard input limit, not a local
//     choice.
//  3. One segment: synthesize the whole text and write the returned bytes
//     straight to the output path. No temp files, no concatenation.
//  4. Multiple segments: for each index in order, slice the text, synthesize
//     the slice, and write it to a uniquely named temp file in the TTS
//     output directory. Every temp file is registered with the context
//     before its first write, so the context's Close() sweep removes
//     whatever a failure leaves behind.
//  5. Publish a SegmentBatch for the concatenation command.
//
// Segments are synthesized strictly in sequence. Parallel calls would
// complicate ordering for no benefit here: the provider's rate limit, not
// local latency, is the bottleneck.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jaycherian/go-pronun-backend/internal/core/cor"
	"github.com/jaycherian/go-pronun-backend/internal/core/model"
	"github.com/jaycherian/go-pronun-backend/internal/speech"
)

// audioFilePermissions is the mode for synthesized audio files.
const audioFilePermissions = os.FileMode(0o640)

// SynthesizeSegmentsCommand slices the request text into provider-sized
// segments and synthesizes each one in order.
type SynthesizeSegmentsCommand struct {
	cor.BaseCommand
	client speech.Client // External synthesis capability.
	ttsDir string        // Directory for per-segment temp files.
}

// NewSynthesizeSegmentsCommand is the constructor for
// SynthesizeSegmentsCommand.
//
// Inputs:
//   - name: A string name for this command instance, used for telemetry.
//   - client: The speech-synthesis client to call per segment.
//   - ttsDir: The fixed TTS output directory for segment temp files.
//
// Outputs:
//   - *SynthesizeSegmentsCommand: A pointer to the newly instantiated command.
func NewSynthesizeSegmentsCommand(name string, client speech.Client, ttsDir string) *SynthesizeSegmentsCommand {
	return &SynthesizeSegmentsCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		ttsDir:      ttsDir,
	}
}

// Execute contains the core logic for the command.
func (c *SynthesizeSegmentsCommand) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.SynthesisRequest)

	// Segment on characters, not bytes: the provider's limit counts
	// characters and the script may be non-ASCII.
	runes := []rune(req.Text)
	segmentCount := (len(runes) + speech.MaxInputChars - 1) / speech.MaxInputChars

	if segmentCount <= 1 {
		c.synthesizeSingle(context, req)
		return
	}

	segmentPaths := make([]string, 0, segmentCount)
	for i := 0; i < segmentCount; i++ {
		start := i * speech.MaxInputChars
		end := start + speech.MaxInputChars
		if end > len(runes) {
			end = len(runes)
		}

		segmentPath := filepath.Join(c.ttsDir, fmt.Sprintf("%s_TTS_%d_%s.mp3", req.VideoID, i, uuid.NewString()))
		// Register before writing: if a later segment fails, the sweep in
		// Context.Close() removes this one too.
		context.AddTempFile(segmentPath)

		audioBytes, err := c.client.Synthesize(context.GetContext(), string(runes[start:end]), req.Speed)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("segment %d of %d: %w", i+1, segmentCount, err))
			return
		}

		if err := os.WriteFile(segmentPath, audioBytes, audioFilePermissions); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to write segment %d: %w", i+1, err))
			return
		}
		segmentPaths = append(segmentPaths, segmentPath)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &model.SegmentBatch{
		OutputPath:   req.OutputPath,
		Speed:        req.Speed,
		SegmentPaths: segmentPaths,
	})
}

// synthesizeSingle handles the one-segment fast path: a single provider call
// whose raw bytes are written directly to the final output location.
func (c *SynthesizeSegmentsCommand) synthesizeSingle(context cor.Context, req *model.SynthesisRequest) {
	audioBytes, err := c.client.Synthesize(context.GetContext(), req.Text, req.Speed)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	if err := os.WriteFile(req.OutputPath, audioBytes, audioFilePermissions); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to write synthesized audio: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &model.SegmentBatch{
		OutputPath: req.OutputPath,
		Speed:      req.Speed,
		Final:      true,
	})
}
