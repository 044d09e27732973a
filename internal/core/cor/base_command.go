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

// Package cor provides the pipeline framework. This file defines BaseCommand,
// the embeddable default implementation of the Command interface. Concrete
// commands embed it to inherit naming, OpenTelemetry instrumentation, and
// the default in/out parameter keys that make chain piping work.
package cor

import (
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// meterNamespace is the instrumentation scope for all pipeline metrics.
const meterNamespace = "github.com/jaycherian/go-pronun-backend/pipeline"

// BaseCommand is the default implementation of the Command interface.
type BaseCommand struct {
	Name            string              // Unique command name, used for spans and counters.
	InputParamName  string              // Optional override for the input context key.
	OutputParamName string              // Optional override for the output context key.
	Tracer          trace.Tracer        // Tracer for creating spans.
	SuccessCounter  metric.Int64Counter // Incremented once per successful execution.
	ErrorCounter    metric.Int64Counter // Incremented once per failed execution.
}

// NewBaseCommand initializes a command with a name and its OpenTelemetry
// instrumentation (a tracer plus success/error counters namespaced by the
// command name).
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(meterNamespace)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		log.Printf("error creating success counter for command '%s': %v\n", name, err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		log.Printf("error creating error counter for command '%s': %v\n", name, err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the name of the command.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable reports whether the command has a valid context and its
// expected input present. Commands with stricter preconditions override it.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

// GetInputParam returns the context key for this command's input, defaulting
// to CtxIn so chains can pipe one command's output into the next.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the context key for this command's output,
// defaulting to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// GetTracer returns the OpenTelemetry tracer for this command.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetSuccessCounter returns the success metric counter for this command.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the error metric counter for this command.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
