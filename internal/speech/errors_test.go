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

// Package speech_test verifies the closed synthesis error taxonomy: every
// category must map to exactly one HTTP status and one retry hint, and
// provider status codes must fold back into the expected category.
package speech_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/go-pronun-backend/internal/speech"
)

// TestCategoryMapping walks the full taxonomy and asserts the status code
// and retry eligibility assigned to each category. The table is the contract
// of the synthesis endpoint, so any drift here is a breaking change.
func TestCategoryMapping(t *testing.T) {
	cases := []struct {
		category speech.Category
		status   int
		retry    speech.RetryEligibility
	}{
		{speech.CategoryAuthentication, http.StatusUnauthorized, speech.RetryNo},
		{speech.CategoryPermissionDenied, http.StatusForbidden, speech.RetryNo},
		{speech.CategoryRateLimitExceeded, http.StatusTooManyRequests, speech.RetryYes},
		{speech.CategoryBadRequest, http.StatusBadRequest, speech.RetryNo},
		{speech.CategoryConflict, http.StatusConflict, speech.RetryYes},
		{speech.CategoryUpstreamServer, http.StatusBadGateway, speech.RetryYes},
		{speech.CategoryNotFound, http.StatusNotFound, speech.RetryNo},
		{speech.CategoryUnprocessable, http.StatusUnprocessableEntity, speech.RetryNo},
		{speech.CategoryGenericAPI, http.StatusBadGateway, speech.RetryYes},
		{speech.CategoryTimeout, http.StatusGatewayTimeout, speech.RetryYes},
		{speech.CategoryConnection, http.StatusServiceUnavailable, speech.RetryYes},
		{speech.CategoryUnknownLibrary, http.StatusInternalServerError, speech.RetryMaybe},
		{speech.CategoryProcessing, http.StatusInternalServerError, speech.RetryMaybe},
	}

	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			err := speech.NewError(tc.category, "boom", nil)
			assert.Equal(t, tc.status, err.HTTPStatus())
			assert.Equal(t, tc.retry, err.Retry())
		})
	}
}

// TestCategoryForStatus asserts the reverse direction: provider response
// codes fold onto the taxonomy, with all 5xx collapsing to the upstream
// server category and unrecognized codes landing on the generic bucket.
func TestCategoryForStatus(t *testing.T) {
	cases := []struct {
		status   int
		expected speech.Category
	}{
		{http.StatusUnauthorized, speech.CategoryAuthentication},
		{http.StatusForbidden, speech.CategoryPermissionDenied},
		{http.StatusTooManyRequests, speech.CategoryRateLimitExceeded},
		{http.StatusBadRequest, speech.CategoryBadRequest},
		{http.StatusConflict, speech.CategoryConflict},
		{http.StatusNotFound, speech.CategoryNotFound},
		{http.StatusUnprocessableEntity, speech.CategoryUnprocessable},
		{http.StatusInternalServerError, speech.CategoryUpstreamServer},
		{http.StatusBadGateway, speech.CategoryUpstreamServer},
		{http.StatusServiceUnavailable, speech.CategoryUpstreamServer},
		{http.StatusTeapot, speech.CategoryGenericAPI},
		{http.StatusPaymentRequired, speech.CategoryGenericAPI},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			assert.Equal(t, tc.expected, speech.CategoryForStatus(tc.status))
		})
	}
}

// TestErrorWrapping asserts that SynthesisError participates in the standard
// errors.Is / errors.As chains so a wrapped cause stays reachable.
func TestErrorWrapping(t *testing.T) {
	cause := errors.New("socket closed")
	err := speech.NewError(speech.CategoryConnection, "provider unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection_failure")
	assert.Contains(t, err.Error(), "provider unreachable")

	var synthErr *speech.SynthesisError
	wrapped := fmt.Errorf("outer context: %w", err)
	assert.ErrorAs(t, wrapped, &synthErr)
	assert.Equal(t, speech.CategoryConnection, synthErr.Category)
}
