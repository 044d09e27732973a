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

// Package services contains the business logic of the backend. This file
// defines the SynthesizerService, the orchestrator of the text-to-speech
// pipeline: it resolves the output location, validates the speed multiplier,
// runs the segment-synthesize-concatenate chain, and translates any failure
// into the closed synthesis error taxonomy.
//
// The synthesis and audio clients are injected through the constructor, not
// captured as package state, so tests substitute fakes without any global
// patching.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jaycherian/go-pronun-backend/internal/audio"
	"github.com/jaycherian/go-pronun-backend/internal/core/commands"
	"github.com/jaycherian/go-pronun-backend/internal/core/cor"
	"github.com/jaycherian/go-pronun-backend/internal/core/model"
	"github.com/jaycherian/go-pronun-backend/internal/platform"
	"github.com/jaycherian/go-pronun-backend/internal/speech"
)

// SpeedBounds documents the provider's accepted speed multiplier range.
const (
	DefaultSpeed = 1.0
	MinSpeed     = 0.5
	MaxSpeed     = 4.0
)

// SynthesizerService orchestrates one synthesis call end to end. It is safe
// for concurrent use: all per-call state lives in the pipeline context, and
// generated file names are collision-resistant.
type SynthesizerService struct {
	ttsDir        string
	validateSpeed bool
	minSpeed      float64
	maxSpeed      float64
	chain         cor.Chain
}

// NewSynthesizerService wires the synthesis pipeline.
//
// Inputs:
//   - cfg: The speech-provider section of the configuration, for the speed
//     validation policy.
//   - storage: The storage layout, for the TTS output root.
//   - client: The speech-synthesis capability (explicit dependency).
//   - engine: The audio decode/concatenate capability (explicit dependency).
//
// Outputs:
//   - *SynthesizerService: A pointer to the wired service.
func NewSynthesizerService(cfg platform.SpeechProvider, storage platform.Storage, client speech.Client, engine audio.Engine) *SynthesizerService {
	minSpeed := cfg.MinSpeed
	if minSpeed == 0 {
		minSpeed = MinSpeed
	}
	maxSpeed := cfg.MaxSpeed
	if maxSpeed == 0 {
		maxSpeed = MaxSpeed
	}

	chain := cor.NewBaseChain("tts_synthesis").
		AddCommand(commands.NewSynthesizeSegmentsCommand("synthesize_segments", client, storage.TTSDir)).
		AddCommand(commands.NewConcatSegmentsCommand("concat_segments", engine))

	return &SynthesizerService{
		ttsDir:        storage.TTSDir,
		validateSpeed: cfg.ValidateSpeed,
		minSpeed:      minSpeed,
		maxSpeed:      maxSpeed,
		chain:         chain,
	}
}

// Synthesize produces one audio file reading the request text aloud and
// returns its resolved absolute path. Failures are always a
// *speech.SynthesisError; the category is logged here, once, before the
// error is handed back for translation into the caller-visible signal.
func (s *SynthesizerService) Synthesize(ctx context.Context, req *model.SynthesisRequest) (*model.SynthesisResult, error) {
	run := &model.SynthesisRequest{
		Text:    req.Text,
		VideoID: req.VideoID,
		Speed:   req.Speed,
	}
	if run.Speed == 0 {
		run.Speed = DefaultSpeed
	}

	// Synthesis calls are billed; refuse empty input before one is issued.
	if strings.TrimSpace(run.Text) == "" {
		err := speech.NewError(speech.CategoryBadRequest, "text must not be empty", nil)
		s.logFailure(run.VideoID, err)
		return nil, err
	}

	if s.validateSpeed && (run.Speed < s.minSpeed || run.Speed > s.maxSpeed) {
		err := speech.NewError(speech.CategoryBadRequest,
			fmt.Sprintf("speed %.2f outside accepted range [%.1f, %.1f]", run.Speed, s.minSpeed, s.maxSpeed), nil)
		s.logFailure(run.VideoID, err)
		return nil, err
	}

	run.OutputPath = s.resolveOutputPath(req.OutputPath, run.VideoID)

	pipeCtx := cor.NewBaseContext()
	// The sweep removes any segment temp file a failure left unfolded.
	defer pipeCtx.Close()
	pipeCtx.SetContext(ctx)
	pipeCtx.Add(cor.CtxIn, run)

	s.chain.Execute(pipeCtx)

	if pipeCtx.HasErrors() {
		synthErr := translateSynthesisFailure(pipeCtx.FirstError())
		s.logFailure(run.VideoID, synthErr)
		return nil, synthErr
	}

	result, ok := pipeCtx.Get(cor.CtxIn).(*model.SynthesisResult)
	if !ok {
		synthErr := speech.NewError(speech.CategoryProcessing, "synthesis pipeline produced no result", nil)
		s.logFailure(run.VideoID, synthErr)
		return nil, synthErr
	}

	slog.Info("speech synthesis complete", "video_id", run.VideoID, "audio_path", result.AudioPath)
	return result, nil
}

// resolveOutputPath implements the output location trichotomy: absent paths
// get a generated unique name under the TTS root, relative paths are rooted
// under the TTS root, absolute paths are used verbatim.
func (s *SynthesizerService) resolveOutputPath(outputPath, videoID string) string {
	if outputPath == "" {
		return filepath.Join(s.ttsDir, fmt.Sprintf("%s_TTS_%s.mp3", videoID, uuid.NewString()))
	}
	if !filepath.IsAbs(outputPath) {
		return filepath.Join(s.ttsDir, outputPath)
	}
	return outputPath
}

// logFailure records the failure with its category and message before the
// error leaves the service. No failure is silently swallowed.
func (s *SynthesizerService) logFailure(videoID string, err *speech.SynthesisError) {
	slog.Error("speech synthesis failed",
		"video_id", videoID,
		"category", string(err.Category),
		"retry", string(err.Retry()),
		"error", err.Error(),
	)
}

// translateSynthesisFailure folds an arbitrary pipeline failure into the
// taxonomy: provider and transport failures already carry their category;
// anything else (filesystem writes, decode failures) becomes a generic
// processing failure.
func translateSynthesisFailure(err error) *speech.SynthesisError {
	var synthErr *speech.SynthesisError
	if errors.As(err, &synthErr) {
		return synthErr
	}
	return speech.NewError(speech.CategoryProcessing, "speech synthesis processing failed", err)
}
