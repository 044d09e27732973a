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

package main

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/jaycherian/go-pronun-backend/internal/audio"
	"github.com/jaycherian/go-pronun-backend/internal/core/services"
	"github.com/jaycherian/go-pronun-backend/internal/platform"
	"github.com/jaycherian/go-pronun-backend/internal/speech"
)

// DefaultProviderName is the key of the speech provider used when a request
// does not select one explicitly.
const DefaultProviderName = "default"

var (
	config     *platform.Config
	configOnce sync.Once
)

// StateManager holds the initialized service graph for the running server so
// handlers share a single set of clients and pipelines.
type StateManager struct {
	Config      *platform.Config
	Upload      *services.UploadService
	Synthesizer *services.SynthesizerService
}

// SetupOS points the config loader at the local configuration directory when
// the process environment has not already chosen one.
func SetupOS() {
	if len(os.Getenv(platform.EnvConfigFilePrefix)) == 0 {
		_ = os.Setenv(platform.EnvConfigFilePrefix, "configs")
	}
	if len(os.Getenv(platform.EnvConfigRuntime)) == 0 {
		_ = os.Setenv(platform.EnvConfigRuntime, "local")
	}
}

// GetConfig loads the layered TOML configuration exactly once and returns the
// shared instance.
func GetConfig() *platform.Config {
	configOnce.Do(func() {
		SetupOS()
		config = platform.NewConfig()
		platform.LoadConfig(config)
	})
	return config
}

// InitState builds the full service graph from configuration: storage
// directories, the rate-limited speech client, the ffmpeg engine, and the
// upload and synthesis services on top of them.
func InitState(cfg *platform.Config) (*StateManager, error) {
	if err := platform.EnsureStorageDirs(cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to prepare storage directories: %w", err)
	}

	provider, ok := cfg.SpeechProviders[DefaultProviderName]
	if !ok {
		return nil, fmt.Errorf("no speech provider named %q in configuration", DefaultProviderName)
	}

	client := speech.NewHTTPClient(provider)
	limited := speech.NewQuotaAwareClient(client, provider.MaxRequestsPerMinute)

	engine := audio.NewFFmpegEngine(cfg.FFmpeg)

	state := &StateManager{
		Config:      cfg,
		Upload:      services.NewUploadService(cfg.Storage, engine),
		Synthesizer: services.NewSynthesizerService(provider, cfg.Storage, limited, engine),
	}
	log.Printf("service state initialized: provider=%s model=%s", DefaultProviderName, provider.Model)
	return state, nil
}
