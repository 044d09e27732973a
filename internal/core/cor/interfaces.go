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

// Package cor (Chain of Responsibility) provides the building blocks for the
// media pipelines in this service: upload processing (persist, extract MP3)
// and speech synthesis (segment, synthesize, concatenate). A pipeline is a
// Chain of Commands sharing one Context. The Context carries the data flowing
// between commands, collects errors, and tracks every temporary file
// created along the way so that
// Close() can guarantee cleanup on every exit path, success or failure.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data through a chain: after a
// command runs, the value it stored under CtxOut becomes the next command's
// CtxIn.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for one pipeline execution. Commands read
// their inputs from it, write their outputs to it, record failures on it,
// and register temporary files with it.
type Context interface {
	// SetContext sets the standard Go context, which carries cancellation
	// and the active trace span.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair, returning the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records a failure under the name of the command that hit it.
	AddError(key string, err error)

	// GetErrors returns all recorded failures keyed by command name.
	GetErrors() map[string]error

	// HasErrors reports whether any command has failed.
	HasErrors() bool

	// FirstError returns one recorded failure, or nil when none exist.
	FirstError() error

	// AddTempFile registers a temporary file for cleanup. Commands must
	// register every intermediate file the moment it is created, before
	// doing anything that can fail.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary file paths.
	GetTempFiles() []string

	// Close removes every registered temporary file that still exists.
	// Callers defer it at pipeline start, making cleanup unconditional.
	Close()
}

// Executable is anything with core execution logic over a shared Context.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic unit of pipeline work with tracing and metrics.
type Command interface {
	Executable

	// GetName returns the command's name, used in spans, counters and logs.
	GetName() string

	// GetInputParam returns the context key holding this command's input.
	GetInputParam() string

	// GetOutputParam returns the context key receiving this command's output.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// pipelines can nest.
type Chain interface {
	Command

	// ContinueOnFailure configures whether later commands still run after
	// an earlier one records an error. Defaults to stopping.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
