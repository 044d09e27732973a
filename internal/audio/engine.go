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

// Package audio wraps the external audio conversion capability. The service
// does not decode or encode media itself; all codec work is delegated to an
// exec'd ffmpeg process. This file defines the Engine interface and its
// ffmpeg-backed implementation.
//
// Logic Flow (ExtractAudio):
//  1. Build the ffmpeg argument list: strip the video stream (-vn) and
//     encode the audio track as MP3 at the configured bitrate.
//  2. Run ffmpeg against a temporary output file.
//  3. On success, move the temporary file to the final destination.
//
// Logic Flow (ConcatAudio):
//  1. Write an ffmpeg concat-demuxer list file naming each segment in order.
//  2. Run ffmpeg with stream copy (-c copy); MP3 frames concatenate without
//     re-encoding, so segment order in the list file is the only thing that
//     determines output order.
//  3. Move the combined temporary file to the final destination.
package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jaycherian/go-pronun-backend/internal/platform"
)

// Constants used for ffmpeg command execution.
const (
	// extractArgsFormat drops the video stream and encodes the audio track
	// as MP3: -y overwrites, -hide_banner quiets startup noise, -vn strips
	// video, -b:a sets the audio bitrate.
	extractArgsFormat = "-y -hide_banner -i %s -vn -acodec libmp3lame -b:a %s -f mp3 %s"
	// concatArgsFormat joins pre-encoded MP3 segments without re-encoding
	// via the concat demuxer. -safe 0 permits absolute paths in the list.
	concatArgsFormat = "-y -hide_banner -f concat -safe 0 -i %s -c copy -f mp3 %s"

	tempFilePrefix   = "ffmpeg-output-"
	listFilePrefix   = "ffmpeg-concat-"
	commandSeparator = " "
	defaultBitrate   = "192k"
)

// Engine is the contract for the external audio conversion capability.
// Both operations block until ffmpeg exits; cancellation arrives through
// the context.
type Engine interface {
	// ExtractAudio reads the audio track of the media file at sourcePath
	// and writes it as an MP3 to outputPath.
	ExtractAudio(ctx context.Context, sourcePath string, outputPath string) error

	// ConcatAudio joins the given audio files, in slice order, into a
	// single MP3 at outputPath. The inputs are left in place.
	ConcatAudio(ctx context.Context, segmentPaths []string, outputPath string) error
}

// FFmpegEngine implements Engine by exec'ing the ffmpeg binary.
type FFmpegEngine struct {
	commandPath string // Path to the ffmpeg executable.
	mp3Bitrate  string // Bitrate for extracted MP3s.
}

// NewFFmpegEngine is the constructor for FFmpegEngine.
//
// Inputs:
//   - cfg: The ffmpeg section of the loaded configuration.
//
// Outputs:
//   - *FFmpegEngine: A pointer to the newly instantiated engine.
func NewFFmpegEngine(cfg platform.FFmpeg) *FFmpegEngine {
	bitrate := cfg.MP3Bitrate
	if bitrate == "" {
		bitrate = defaultBitrate
	}
	commandPath := cfg.CommandPath
	if commandPath == "" {
		commandPath = "ffmpeg"
	}
	return &FFmpegEngine{commandPath: commandPath, mp3Bitrate: bitrate}
}

// ExtractAudio implements Engine.
func (e *FFmpegEngine) ExtractAudio(ctx context.Context, sourcePath string, outputPath string) error {
	tempFile, err := os.CreateTemp("", tempFilePrefix+"*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create temp output for extraction: %w", err)
	}
	_ = tempFile.Close()
	defer func() { _ = os.Remove(tempFile.Name()) }()

	args := fmt.Sprintf(extractArgsFormat, sourcePath, e.mp3Bitrate, tempFile.Name())
	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("error extracting audio from %s: %w", sourcePath, err)
	}

	return MoveFile(tempFile.Name(), outputPath)
}

// ConcatAudio implements Engine.
func (e *FFmpegEngine) ConcatAudio(ctx context.Context, segmentPaths []string, outputPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("no audio segments to concatenate for %s", outputPath)
	}

	listFile, err := writeConcatList(segmentPaths)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(listFile) }()

	tempFile, err := os.CreateTemp("", tempFilePrefix+"*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create temp output for concatenation: %w", err)
	}
	_ = tempFile.Close()
	defer func() { _ = os.Remove(tempFile.Name()) }()

	args := fmt.Sprintf(concatArgsFormat, listFile, tempFile.Name())
	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("error concatenating %d segments: %w", len(segmentPaths), err)
	}

	return MoveFile(tempFile.Name(), outputPath)
}

// run executes ffmpeg with the given space-separated argument string.
func (e *FFmpegEngine) run(ctx context.Context, args string) error {
	cmd := exec.CommandContext(ctx, e.commandPath, strings.Split(args, commandSeparator)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running ffmpeg: %w", err)
	}
	return nil
}

// writeConcatList writes a concat-demuxer list file naming each segment
// in order and returns its path. Single quotes in paths are escaped per the
// demuxer's quoting rules.
func writeConcatList(segmentPaths []string) (string, error) {
	listFile, err := os.CreateTemp("", listFilePrefix+"*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create concat list file: %w", err)
	}

	var builder strings.Builder
	for _, segment := range segmentPaths {
		abs, err := filepath.Abs(segment)
		if err != nil {
			_ = listFile.Close()
			_ = os.Remove(listFile.Name())
			return "", fmt.Errorf("failed to resolve segment path %s: %w", segment, err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		builder.WriteString(fmt.Sprintf("file '%s'\n", escaped))
	}

	if _, err := listFile.WriteString(builder.String()); err != nil {
		_ = listFile.Close()
		_ = os.Remove(listFile.Name())
		return "", fmt.Errorf("failed to write concat list file: %w", err)
	}
	if err := listFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close concat list file: %w", err)
	}
	return listFile.Name(), nil
}

// MoveFile copies sourcePath to destPath and removes the source. A plain
// os.Rename is not enough because the temp directory and the storage
// directories may sit on different filesystems.
func MoveFile(sourcePath, destPath string) error {
	inputFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("could not open source file: %w", err)
	}
	defer func() { _ = inputFile.Close() }()

	outputFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("could not open dest file: %w", err)
	}
	defer func() { _ = outputFile.Close() }()

	if _, err = io.Copy(outputFile, inputFile); err != nil {
		return fmt.Errorf("could not copy to dest from source: %w", err)
	}

	_ = inputFile.Close()

	if err = os.Remove(sourcePath); err != nil {
		return fmt.Errorf("could not remove source file: %w", err)
	}
	return nil
}
