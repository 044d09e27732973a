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

// Package cor_test verifies the pipeline framework itself: output-to-input
// piping between commands, the stop-on-error default, and the temp-file
// sweep on Close().
package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-pronun-backend/internal/core/cor"
)

// appendCommand is a minimal test command: it reads the string under its
// input key, appends its suffix, and publishes the result.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	ran    bool
}

func newAppendCommand(name, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(ctx cor.Context) {
	c.ran = true
	in := ctx.Get(c.GetInputParam()).(string)
	ctx.Add(c.GetOutputParam(), in+c.suffix)
}

// failingCommand records an error and produces no output.
type failingCommand struct {
	cor.BaseCommand
	ran bool
}

func newFailingCommand(name string) *failingCommand {
	return &failingCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *failingCommand) Execute(ctx cor.Context) {
	c.ran = true
	ctx.AddError(c.GetName(), errors.New("deliberate failure"))
}

// TestChainPipesOutputToInput asserts that each command's CtxOut value
// becomes the next command's CtxIn value, in order.
func TestChainPipesOutputToInput(t *testing.T) {
	first := newAppendCommand("first", "-a")
	second := newAppendCommand("second", "-b")

	chain := cor.NewBaseChain("piping").
		AddCommand(first).
		AddCommand(second)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "start")

	chain.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.True(t, first.ran)
	assert.True(t, second.ran)
	assert.Equal(t, "start-a-b", chainCtx.Get(cor.CtxIn))
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

// TestChainStopsOnError asserts that a failure halts the chain before later
// commands run, and that the failure is retrievable afterwards.
func TestChainStopsOnError(t *testing.T) {
	bad := newFailingCommand("bad")
	after := newAppendCommand("after", "-x")

	chain := cor.NewBaseChain("halting").
		AddCommand(bad).
		AddCommand(after)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "start")

	chain.Execute(chainCtx)

	assert.True(t, bad.ran)
	assert.False(t, after.ran)
	require.True(t, chainCtx.HasErrors())
	assert.EqualError(t, chainCtx.FirstError(), "deliberate failure")
}

// TestChainContinueOnFailure asserts the opt-in behavior: later commands
// still run after an earlier failure.
func TestChainContinueOnFailure(t *testing.T) {
	bad := newFailingCommand("bad")
	after := newAppendCommand("after", "-x")

	chain := cor.NewBaseChain("continuing").
		ContinueOnFailure(true).
		AddCommand(bad).
		AddCommand(after)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, "start")

	chain.Execute(chainCtx)

	assert.True(t, bad.ran)
	assert.True(t, after.ran)
	assert.True(t, chainCtx.HasErrors())
}

// TestContextCloseSweepsTempFiles asserts that Close removes every
// registered file that still exists and tolerates ones already gone.
func TestContextCloseSweepsTempFiles(t *testing.T) {
	dir := t.TempDir()

	left := filepath.Join(dir, "leftover.mp3")
	require.NoError(t, os.WriteFile(left, []byte("x"), 0o640))
	gone := filepath.Join(dir, "already-removed.mp3")

	chainCtx := cor.NewBaseContext()
	chainCtx.AddTempFile(left)
	chainCtx.AddTempFile(gone)

	chainCtx.Close()

	_, err := os.Stat(left)
	assert.True(t, os.IsNotExist(err))
}
