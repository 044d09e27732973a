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

// Package test provides utility functions and mock data to support the
// application's test suite. It sets up a consistent test environment, loads
// the test-specific configuration, and supplies sample payloads for the
// upload and synthesis workflows.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/jaycherian/go-pronun-backend/internal/platform"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are parsed only once per
// test binary.
type StateManager struct {
	config *platform.Config
}

var state = &StateManager{}

// HandleErr fails the current test when err is non-nil. Convenience to cut
// boilerplate error checks in test bodies.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestVideoBytes returns a minimal byte sequence carrying an MP4 "ftyp"
// box header, enough for content sniffing to recognize the payload as video
// without shipping a real media file in the repository.
func GetTestVideoBytes() []byte {
	header := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	}
	// Pad past the sniffing window so short-read paths are exercised too.
	return append(header, make([]byte, 512)...)
}

// GetTestScriptText returns a small plain-text practice script.
func GetTestScriptText() string {
	return "The quick brown fox jumps over the lazy dog.\nShe sells seashells by the seashore.\n"
}

// SetupOS configures the environment variables the configuration loader
// depends on so it reads the test override file (.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(platform.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(platform.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. The TOML
// files are loaded on first use and cached for every later call.
func GetConfig() *platform.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := platform.NewConfig()
		platform.LoadConfig(config)
		state.config = config
	}
	return state.config
}
