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

// Package platform provides the configuration loading utilities.
// This file implements a hierarchical configuration loader: a base TOML file
// is read first, and an environment-specific file (e.g., .env.local.toml,
// .env.test.toml) then overwrites any values it repeats. The runtime
// environment and the config directory are selected through environment
// variables, which lets tests point the loader at their own override file.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: The hierarchical loader described above.
//   - EnsureStorageDirs: Creates the configured storage directories at startup.
package platform

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Constants for configuration loading, mirroring the file naming scheme
// `<prefix>/.env[.<runtime>].toml`.
const (
	ConfigFileBaseName  = ".env"                  // The base name for configuration files.
	ConfigFileExtension = ".toml"                 // The file extension for configuration files.
	ConfigSeparator     = "."                     // The separator used in config file names.
	EnvConfigFilePrefix = "PRONUN_CONFIG_PREFIX"  // Environment variable naming the config directory.
	EnvConfigRuntime    = "PRONUN_RUNTIME"        // Environment variable naming the runtime context (e.g., "local", "test").
	DirPermissions      = os.FileMode(0o750)      // Permissions for created storage directories.
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It
// first loads a base configuration file and then overwrites its values with
// an environment-specific configuration file. The paths and environment are
// determined by the PRONUN_CONFIG_PREFIX and PRONUN_RUNTIME environment
// variables.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct that will be
//     populated from the TOML files.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	// Default to the "test" runtime when unset so test runs never pick up a
	// developer's local override file by accident.
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// Values in the environment file overwrite the values from the base config.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// EnsureStorageDirs creates every directory in the storage layout if it does
// not already exist. Called once at startup so request handlers can assume
// the layout is in place.
//
// Inputs:
//   - storage: The storage layout section of the loaded configuration.
//
// Outputs:
//   - error: The first directory creation failure, if any.
func EnsureStorageDirs(storage Storage) error {
	for _, dir := range []string{storage.VideoDir, storage.AudioDir, storage.ScriptDir, storage.TTSDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return nil
}
