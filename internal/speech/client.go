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

// Package speech provides the client for the external text-to-speech
// provider. This file defines the Client interface, its HTTP implementation
// for providers exposing an OpenAI-compatible `/v1/audio/speech` surface,
// and a quota-aware decorator that rate limits outbound calls.
//
// Logic Flow (HTTPClient.Synthesize):
//  1. Marshal the synthesis request (model, voice, input text, speed).
//  2. POST it to `<base_url>/v1/audio/speech` with bearer authentication.
//  3. On a 200, return the raw audio bytes of the response body.
//  4. On any other status, parse the provider's error envelope and fold the
//     status code into the closed taxonomy defined in errors.go.
//  5. Transport failures (timeouts, refused connections) are folded into
//     the taxonomy as well, so callers only ever see a SynthesisError.
//
// The provider rejects input longer than MaxInputChars; pre-chunking is the
// caller's responsibility.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/jaycherian/go-pronun-backend/internal/platform"
)

// MaxInputChars is the hard per-request input limit imposed by the synthesis
// provider. Text beyond this length must be chunked by the caller.
const MaxInputChars = 4000

const (
	speechPath      = "/v1/audio/speech"
	responseFormat  = "mp3"
	defaultTimeout  = 60 * time.Second
	maxErrorBodyLen = 8 << 10 // Provider error envelopes are small; cap the read.
)

// Client is the contract for a speech-synthesis capability. The synthesizer
// and the upload orchestrator receive a Client explicitly (constructor
// injection) so tests can substitute a fake without process-wide patching.
type Client interface {
	// Synthesize converts text of at most MaxInputChars characters into raw
	// audio bytes at the given speed multiplier. Failures are always a
	// *SynthesisError.
	Synthesize(ctx context.Context, text string, speed float64) ([]byte, error)
}

// synthesisPayload is the request body for the provider's speech endpoint.
type synthesisPayload struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	ResponseFormat string  `json:"response_format"`
}

// providerErrorEnvelope matches the JSON error body returned by the provider
// on non-2xx responses.
type providerErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// HTTPClient is the production Client implementation. It holds the resolved
// provider settings and a dedicated http.Client with the configured timeout.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	model      string
	voice      string
	httpClient *http.Client
}

// NewHTTPClient builds an HTTPClient from the provider section of the
// configuration. The API key is read from the environment variable named in
// the config so credentials never live in the TOML files.
//
// Inputs:
//   - cfg: The SpeechProvider section of the loaded configuration.
//
// Outputs:
//   - *HTTPClient: A pointer to the configured client.
func NewHTTPClient(cfg platform.SpeechProvider) *HTTPClient {
	timeout := defaultTimeout
	if cfg.TimeoutInSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutInSeconds) * time.Second
	}
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		model:      cfg.Model,
		voice:      cfg.Voice,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Synthesize implements Client against the provider's REST surface.
func (c *HTTPClient) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	body, err := json.Marshal(synthesisPayload{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		Speed:          speed,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return nil, NewError(CategoryUnknownLibrary, "failed to encode synthesis request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+speechPath, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(CategoryUnknownLibrary, "failed to build synthesis request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, translateTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.translateResponseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(CategoryConnection, "failed to read synthesis response body", err)
	}
	return audio, nil
}

// translateResponseError turns a non-200 provider response into a
// SynthesisError, preserving the provider's own message when it sends one.
func (c *HTTPClient) translateResponseError(resp *http.Response) *SynthesisError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	message := fmt.Sprintf("provider returned status %d", resp.StatusCode)
	var envelope providerErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	return NewError(CategoryForStatus(resp.StatusCode), message, nil)
}

// QuotaAwareClient is a decorator that adds client-side rate limiting to any
// Client. Synthesis calls are billed per character, and the provider also
// enforces a requests-per-minute quota; blocking in the limiter is cheaper
// than burning a request only to receive a 429 back.
type QuotaAwareClient struct {
	wrapped Client
	limiter *rate.Limiter
}

// NewQuotaAwareClient wraps a Client with a token-bucket limiter sized to
// the given requests-per-minute quota.
//
// Inputs:
//   - wrapped: The Client to decorate.
//   - requestsPerMinute: The quota ceiling; values <= 0 disable limiting.
//
// Outputs:
//   - *QuotaAwareClient: A pointer to the decorated client.
func NewQuotaAwareClient(wrapped Client, requestsPerMinute int) *QuotaAwareClient {
	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
	return &QuotaAwareClient{wrapped: wrapped, limiter: limiter}
}

// Synthesize waits for quota headroom, then delegates to the wrapped client.
// A context cancelled while waiting surfaces as a timeout-category error.
func (q *QuotaAwareClient) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return nil, NewError(CategoryTimeout, "gave up waiting for synthesis quota", err)
		}
	}
	return q.wrapped.Synthesize(ctx, text, speed)
}
