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

// Package platform defines the data structures for application configuration,
// loaded from TOML files, along with the shared service clients built from
// that configuration. It provides a structured way to manage settings for the
// HTTP server, the local media storage layout, the ffmpeg tool, and the
// external speech-synthesis provider.
//
// Structs:
//   - Storage: The fixed directory layout for uploaded and derived assets.
//   - FFmpeg: Location and output settings for the ffmpeg executable.
//   - SpeechProvider: Connection, model, and quota settings for the
//     text-to-speech API.
//   - Config: The top-level struct that aggregates all other configuration
//     structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with
//     the map fields ready for population.
package platform

// Storage represents the fixed on-disk layout for media assets. Every path
// written by the service is rooted under one of these directories and keyed
// by a generated identifier, so concurrent requests never contend for the
// same file.
type Storage struct {
	VideoDir  string `toml:"video_dir"`  // Directory for uploaded source videos.
	AudioDir  string `toml:"audio_dir"`  // Directory for MP3s extracted from uploads.
	ScriptDir string `toml:"script_dir"` // Directory for uploaded script documents.
	TTSDir    string `toml:"tts_dir"`    // Directory for synthesized speech output.
}

// FFmpeg represents the configuration for the external audio conversion tool.
type FFmpeg struct {
	CommandPath string `toml:"command_path"` // Path to the ffmpeg executable (e.g., "/usr/bin/ffmpeg").
	MP3Bitrate  string `toml:"mp3_bitrate"`  // Bitrate for extracted MP3s (e.g., "192k").
}

// SpeechProvider represents the configuration for one text-to-speech
// synthesis backend. The service talks to any provider exposing an
// OpenAI-compatible `/v1/audio/speech` surface.
type SpeechProvider struct {
	BaseURL              string  `toml:"base_url"`                // Root URL of the provider API (e.g., "https://api.openai.com").
	APIKeyEnv            string  `toml:"api_key_env"`             // Name of the environment variable holding the API key.
	Model                string  `toml:"model"`                   // Synthesis model identifier (e.g., "tts-1").
	Voice                string  `toml:"voice"`                   // Voice selector (e.g., "alloy").
	TimeoutInSeconds     int     `toml:"timeout_in_seconds"`      // Per-call HTTP timeout.
	MaxRequestsPerMinute int     `toml:"max_requests_per_minute"` // Quota ceiling enforced client-side.
	ValidateSpeed        bool    `toml:"validate_speed"`          // Reject out-of-range speed before calling the provider.
	MinSpeed             float64 `toml:"min_speed"`               // Lowest accepted speed multiplier (provider limit: 0.5).
	MaxSpeed             float64 `toml:"max_speed"`               // Highest accepted speed multiplier (provider limit: 4.0).
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name string `toml:"name"` // The name of the application, used in telemetry.
		Port int    `toml:"port"` // The TCP port the HTTP server listens on.
	} `toml:"application"`
	Storage         Storage                   `toml:"storage"`          // Local storage layout.
	FFmpeg          FFmpeg                    `toml:"ffmpeg"`           // ffmpeg settings.
	SpeechProviders map[string]SpeechProvider `toml:"speech_providers"` // Speech providers keyed by a logical name (e.g., "default").
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The provider map must exist before the TOML loader tries to
// populate it.
func NewConfig() *Config {
	return &Config{
		SpeechProviders: make(map[string]SpeechProvider),
	}
}
