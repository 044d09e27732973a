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

// Package commands provides the concrete pipeline commands used by the
// upload and synthesis workflows. This file defines the command that turns
// an uploaded video into its MP3 sibling.
//
// Logic Flow:
//  1. Read the ExtractionRequest (source path + video id) from the context.
//  2. Ask the audio engine to extract the audio track as an MP3 into the
//     converted-audio directory, keyed `<video_id>.mp3`.
//  3. Verify the output file landed, then publish its path for the next
//     command (or the invoking service).
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaycherian/go-pronun-backend/internal/audio"
	"github.com/jaycherian/go-pronun-backend/internal/core/cor"
	"github.com/jaycherian/go-pronun-backend/internal/core/model"
)

// ExtractAudioCommand converts a persisted upload into an MP3 via the
// injected audio engine.
type ExtractAudioCommand struct {
	cor.BaseCommand
	engine   audio.Engine // External conversion capability.
	audioDir string       // Directory receiving extracted MP3s.
}

// NewExtractAudioCommand is the constructor for ExtractAudioCommand.
//
// Inputs:
//   - name: A string name for this command instance, used for telemetry.
//   - engine: The audio conversion engine to delegate to.
//   - audioDir: The fixed directory for converted MP3s.
//
// Outputs:
//   - *ExtractAudioCommand: A pointer to the newly instantiated command.
func NewExtractAudioCommand(name string, engine audio.Engine, audioDir string) *ExtractAudioCommand {
	return &ExtractAudioCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		engine:      engine,
		audioDir:    audioDir,
	}
}

// Execute contains the core logic for the command.
func (c *ExtractAudioCommand) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.ExtractionRequest)
	outputPath := filepath.Join(c.audioDir, req.VideoID+".mp3")

	if err := c.engine.ExtractAudio(context.GetContext(), req.SourcePath, outputPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("mp3 extraction failed for %s: %w", req.VideoID, err))
		return
	}

	// The engine reported success; the file must exist.
	if _, err := os.Stat(outputPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("mp3 missing after extraction for %s: %w", req.VideoID, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), outputPath)
}
