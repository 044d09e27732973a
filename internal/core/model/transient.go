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

// Package model defines the core data structures for the application.
// Everything here is transient: requests, receipts, and the intermediate
// containers passed between pipeline commands. There is no persistent
// database; assets live on the filesystem keyed by generated identifiers,
// and these structs exist only for the duration of one call.
package model

// UploadReceipt is the response body of the upload endpoint. The message
// points the caller at the feedback endpoint for the new video.
type UploadReceipt struct {
	VideoID string `json:"video_id"` // The generated opaque identifier for the uploaded video.
	Message string `json:"message"`  // Human-readable confirmation with the follow-up endpoint.
}

// SynthesisRequest describes one text-to-speech call. OutputPath may be
// empty (a unique path is generated), relative (rooted under the TTS output
// directory), or absolute (used verbatim).
type SynthesisRequest struct {
	Text       string  `json:"text"`                  // The script to read aloud.
	VideoID    string  `json:"video_id"`              // Identifier used in generated file names.
	OutputPath string  `json:"output_path,omitempty"` // Optional explicit output location.
	Speed      float64 `json:"speed,omitempty"`       // Speed multiplier; provider accepts 0.5–4.0.
}

// SegmentBatch is the intermediate hand-off between the synthesis command
// and the concatenation command. SegmentPaths holds one temp file per
// segment, in original text order; order here is the order of the final
// audio.
type SegmentBatch struct {
	OutputPath   string   // The resolved final output path.
	Speed        float64  // The speed the segments were synthesized at.
	SegmentPaths []string // Per-segment temp files, in text order; empty when Final.
	Final        bool     // True when a single segment was written directly to OutputPath.
}

// ExtractionRequest is the input to the audio-extraction step of the upload
// pipeline: the persisted source video and the identifier its MP3 sibling
// will be keyed by.
type ExtractionRequest struct {
	SourcePath string // Path of the persisted uploaded video.
	VideoID    string // Identifier keying the derived MP3.
}

// SynthesisResult is the outcome of a successful synthesis call.
type SynthesisResult struct {
	AudioPath string `json:"audio_path"` // Resolved absolute path of the combined audio file.
}
