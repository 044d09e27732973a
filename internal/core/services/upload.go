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
// defines the UploadService, the orchestrator of the video upload path:
// extension validation, UUID-keyed persistence, MP3 extraction through the
// pipeline, and optional script persistence.
//
// Logic Flow (Process):
//  1. Validate the video extension against the accepted media formats and,
//     when a script accompanies the video, its extension against the
//     accepted document formats. Rejections are ErrBadInput.
//  2. Generate a fresh video_id (UUID hex) and persist the video under
//     `<video_dir>/<id>.<ext>`. The saved bytes are additionally sniffed;
//     a container that does not look like media at all is logged, but the
//     extension allow-list remains the gate.
//  3. Run the extraction pipeline to produce the `<audio_dir>/<id>.mp3`
//     sibling.
//  4. Persist the script, if any, under `<script_dir>/<id>.<ext>`. A missing
//     script means a downstream speech-to-text step will generate one; that
//     step lives outside this service.
//  5. Return the receipt with the id and the feedback endpoint pointer.
//
// Every storage or conversion failure surfaces as a generic processing
// error: the caller cannot act on finer detail, so none is exposed.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/jaycherian/go-pronun-backend/internal/audio"
	"github.com/jaycherian/go-pronun-backend/internal/core/commands"
	"github.com/jaycherian/go-pronun-backend/internal/core/cor"
	"github.com/jaycherian/go-pronun-backend/internal/core/model"
	"github.com/jaycherian/go-pronun-backend/internal/platform"
)

// Sentinel errors for the upload path. The handler collapses everything to
// two caller-visible categories: bad input (400) and processing failure
// (500).
var (
	// ErrBadInput marks client-side faults: unsupported formats or a
	// malformed script field.
	ErrBadInput = errors.New("bad upload input")
	// ErrProcessing marks server-side faults: storage or conversion
	// failures.
	ErrProcessing = errors.New("upload processing failed")
)

// allowedVideoExtensions is the accepted set of media container and audio
// formats for the video field.
var allowedVideoExtensions = map[string]struct{}{
	"webm": {}, "mov": {}, "avi": {}, "mkv": {}, "flac": {}, "m4a": {},
	"mp3": {}, "mp4": {}, "mpeg": {}, "mpga": {}, "oga": {}, "ogg": {}, "wav": {},
}

// allowedScriptExtensions is the accepted set of document formats for the
// optional script field.
var allowedScriptExtensions = map[string]struct{}{
	"docx": {}, "txt": {}, "pdf": {}, "hwp": {}, "hwpx": {},
}

// sniffHeaderSize is how many leading bytes the filetype matcher needs.
const sniffHeaderSize = 261

// UploadInput carries one upload request into the service. Script fields
// are zero-valued when no script accompanies the video.
type UploadInput struct {
	VideoFilename  string    // Original filename of the uploaded video.
	Video          io.Reader // Video content.
	ScriptFilename string    // Original filename of the script, or "".
	Script         io.Reader // Script content, or nil.
}

// UploadService persists uploads and derives their MP3 siblings.
type UploadService struct {
	storage platform.Storage
	chain   cor.Chain
}

// NewUploadService wires the upload pipeline.
//
// Inputs:
//   - storage: The storage layout for videos, audio, and scripts.
//   - engine: The audio conversion capability (explicit dependency).
//
// Outputs:
//   - *UploadService: A pointer to the wired service.
func NewUploadService(storage platform.Storage, engine audio.Engine) *UploadService {
	chain := cor.NewBaseChain("upload_processing").
		AddCommand(commands.NewExtractAudioCommand("extract_audio", engine, storage.AudioDir))

	return &UploadService{storage: storage, chain: chain}
}

// Process validates and persists one upload, extracts its MP3, and returns
// the receipt.
func (s *UploadService) Process(ctx context.Context, in UploadInput) (*model.UploadReceipt, error) {
	videoExt := fileExtension(in.VideoFilename)
	if _, ok := allowedVideoExtensions[videoExt]; !ok {
		slog.Error("unsupported video file format", "extension", videoExt, "filename", in.VideoFilename)
		return nil, fmt.Errorf("%w: unsupported video file format %q", ErrBadInput, videoExt)
	}

	scriptExt := ""
	if in.Script != nil {
		scriptExt = fileExtension(in.ScriptFilename)
		if _, ok := allowedScriptExtensions[scriptExt]; !ok {
			slog.Error("unsupported script file format", "extension", scriptExt, "filename", in.ScriptFilename)
			return nil, fmt.Errorf("%w: unsupported script file format %q", ErrBadInput, scriptExt)
		}
	}

	videoID := strings.ReplaceAll(uuid.NewString(), "-", "")

	videoPath := filepath.Join(s.storage.VideoDir, videoID+"."+videoExt)
	if err := persistFile(videoPath, in.Video); err != nil {
		slog.Error("failed to persist uploaded video", "video_id", videoID, "error", err)
		return nil, fmt.Errorf("%w: could not store video", ErrProcessing)
	}
	slog.Info("video persisted", "video_id", videoID, "path", videoPath)

	s.sniffContent(videoPath, videoExt)

	if err := s.extractMP3(ctx, videoPath, videoID); err != nil {
		slog.Error("mp3 conversion failed", "video_id", videoID, "error", err)
		return nil, fmt.Errorf("%w: mp3 conversion failed", ErrProcessing)
	}

	if in.Script != nil {
		scriptPath := filepath.Join(s.storage.ScriptDir, videoID+"."+scriptExt)
		if err := persistFile(scriptPath, in.Script); err != nil {
			slog.Error("failed to persist script", "video_id", videoID, "error", err)
			return nil, fmt.Errorf("%w: could not store script", ErrProcessing)
		}
		slog.Info("script persisted", "video_id", videoID, "path", scriptPath)
	} else {
		slog.Info("no script provided; downstream transcription will generate one", "video_id", videoID)
	}

	return &model.UploadReceipt{
		VideoID: videoID,
		Message: fmt.Sprintf("Video upload and MP3 conversion complete. Call pronun/send-feedback/%s to receive feedback data.", videoID),
	}, nil
}

// extractMP3 runs the extraction pipeline for one persisted video.
func (s *UploadService) extractMP3(ctx context.Context, videoPath, videoID string) error {
	pipeCtx := cor.NewBaseContext()
	defer pipeCtx.Close()
	pipeCtx.SetContext(ctx)
	pipeCtx.Add(cor.CtxIn, &model.ExtractionRequest{SourcePath: videoPath, VideoID: videoID})

	s.chain.Execute(pipeCtx)

	if pipeCtx.HasErrors() {
		return pipeCtx.FirstError()
	}
	return nil
}

// sniffContent checks the persisted bytes against the magic-number matcher.
// A mismatch is informational only: some accepted formats (e.g. mpga) have
// no recognizable magic, and the extension allow-list remains the gate.
func (s *UploadService) sniffContent(path, claimedExt string) {
	header := make([]byte, sniffHeaderSize)
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	n, _ := io.ReadFull(f, header)
	kind, err := filetype.Match(header[:n])
	if err != nil || kind == filetype.Unknown {
		slog.Warn("could not sniff uploaded content type", "path", path, "claimed_extension", claimedExt)
		return
	}
	if kind.Extension != claimedExt {
		slog.Warn("uploaded content does not match its extension",
			"path", path, "claimed_extension", claimedExt, "sniffed_extension", kind.Extension)
	}
}

// persistFile streams the reader to a new file at path.
func persistFile(path string, content io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, content); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return out.Close()
}

// fileExtension returns the lowercased extension without the dot, or ""
// when the filename has none.
func fileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
