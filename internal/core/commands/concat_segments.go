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
// defines the final step of the TTS pipeline: folding the per-segment audio
// files, in text order, into the combined output file.
//
// Logic Flow:
//  1. Read the SegmentBatch from the context.
//  2. If the batch is already final (single-segment fast path), just resolve
//     the absolute output path and publish the result.
//  3. Otherwise hand the ordered segment list to the audio engine, which
//     decodes and appends them into one file at the output path.
//  4. Delete each segment file once the fold has succeeded. Segment files
//     are also registered in the context's temp registry, so anything this
//     step does not reach is removed by the Close() sweep.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/go-pronun-backend/internal/audio"
	"github.com/jaycherian/go-pronun-backend/internal/core/cor"
	"github.com/jaycherian/go-pronun-backend/internal/core/model"
)

// ConcatSegmentsCommand folds synthesized segment files into the single
// combined output via the injected audio engine.
type ConcatSegmentsCommand struct {
	cor.BaseCommand
	engine audio.Engine // External decode/concatenate capability.
}

// NewConcatSegmentsCommand is the constructor for ConcatSegmentsCommand.
//
// Inputs:
//   - name: A string name for this command instance, used for telemetry.
//   - engine: The audio engine performing the ordered fold.
//
// Outputs:
//   - *ConcatSegmentsCommand: A pointer to the newly instantiated command.
func NewConcatSegmentsCommand(name string, engine audio.Engine) *ConcatSegmentsCommand {
	return &ConcatSegmentsCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		engine:      engine,
	}
}

// Execute contains the core logic for the command.
func (c *ConcatSegmentsCommand) Execute(context cor.Context) {
	batch := context.Get(c.GetInputParam()).(*model.SegmentBatch)

	if !batch.Final {
		if err := c.engine.ConcatAudio(context.GetContext(), batch.SegmentPaths, batch.OutputPath); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to combine %d segments: %w", len(batch.SegmentPaths), err))
			return
		}

		// Folded; the per-segment files are no longer needed. Removal
		// failures are logged, not fatal: the combined output is intact.
		for _, segment := range batch.SegmentPaths {
			if err := os.Remove(segment); err != nil {
				slog.Warn("failed to remove folded segment file", "path", segment, "error", err)
			}
		}
	}

	absPath, err := filepath.Abs(batch.OutputPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to resolve output path: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &model.SynthesisResult{AudioPath: absPath})
}
