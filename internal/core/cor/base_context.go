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

// Package cor provides the pipeline framework. This file defines BaseContext,
// the default Context implementation: a property bag for one pipeline run
// holding data, collected errors, and the temp-file registry whose Close()
// sweep guarantees that no intermediate segment or scratch file outlives the
// run, regardless of where the pipeline stopped.
package cor

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value data shared between commands.
	errors    map[string]error       // Failures keyed by the command that recorded them.
	tempFiles []string               // Paths registered for the Close() cleanup sweep.
	context   context.Context        // Go context carrying cancellation and the active span.
}

// NewBaseContext returns a new, empty pipeline context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext sets the underlying standard Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying standard Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close sweeps the temp-file registry. Files a command already folded in and
// removed are skipped silently; anything else left behind, including files
// written by a command that failed halfway, is deleted here. Cleanup
// failures are logged and never escalate: they must not mask the error that
// stopped the pipeline.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		err := os.Remove(file)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove temporary file", "path", file, "error", err)
		}
	}
}

// Add stores a key-value pair in the context's data map.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a file path for the Close() cleanup sweep.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns all registered temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records a failure under the given command name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns all recorded failures keyed by command name.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value from the context's data map, or nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair from the context's data map.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command has recorded a failure.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// FirstError returns one of the recorded failures, preferring none in
// particular; pipelines here stop at the first error, so in practice the
// map holds at most one entry.
func (c *BaseContext) FirstError() error {
	for _, err := range c.errors {
		return err
	}
	return nil
}
