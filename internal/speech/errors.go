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
// provider. This file defines the closed error taxonomy for synthesis
// failures.
//
// The provider SDKs for services like this expose a long hierarchy of
// exception classes. Rather than a catch chain, every failure the provider
// (or the transport underneath it) can produce is folded into a single
// tagged error type, SynthesisError, carrying one of a fixed set of
// categories. Each category maps to exactly one caller-visible HTTP status
// and one retry-eligibility hint, so callers can decide whether to retry
// with one exhaustive switch.
package speech

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Category identifies one class of synthesis failure. The set is closed:
// every failure raised by the provider, the transport, or the surrounding
// file handling is assigned exactly one of these values.
type Category string

const (
	CategoryAuthentication    Category = "authentication"
	CategoryPermissionDenied  Category = "permission_denied"
	CategoryRateLimitExceeded Category = "rate_limit_exceeded"
	CategoryBadRequest        Category = "bad_request"
	CategoryConflict          Category = "conflict"
	CategoryUpstreamServer    Category = "upstream_server_error"
	CategoryNotFound          Category = "not_found"
	CategoryUnprocessable     Category = "unprocessable_entity"
	CategoryGenericAPI        Category = "generic_api_error"
	CategoryTimeout           Category = "timeout"
	CategoryConnection        Category = "connection_failure"
	CategoryUnknownLibrary    Category = "unknown_library_error"
	CategoryProcessing        Category = "processing_failure"
)

// RetryEligibility is the hint attached to each category telling the caller
// whether a retry of the same request can reasonably succeed.
type RetryEligibility string

const (
	RetryNo    RetryEligibility = "no"
	RetryYes   RetryEligibility = "yes"
	RetryMaybe RetryEligibility = "maybe"
)

// SynthesisError is the single error type produced by the speech client.
// It tags the underlying failure with its category so callers can translate
// it into a stable signal without inspecting provider-specific details.
type SynthesisError struct {
	Category Category // The failure class from the closed taxonomy.
	Message  string   // Human-readable detail, logged but never parsed.
	Err      error    // The wrapped cause, if any.
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech synthesis %s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("speech synthesis %s: %s", e.Category, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the caller-visible status code for this error's
// category. The mapping is the contract of the synthesis endpoint: a caller
// seeing 504 knows the provider timed out and that a retry is eligible.
func (e *SynthesisError) HTTPStatus() int {
	switch e.Category {
	case CategoryAuthentication:
		return http.StatusUnauthorized
	case CategoryPermissionDenied:
		return http.StatusForbidden
	case CategoryRateLimitExceeded:
		return http.StatusTooManyRequests
	case CategoryBadRequest:
		return http.StatusBadRequest
	case CategoryConflict:
		return http.StatusConflict
	case CategoryUpstreamServer, CategoryGenericAPI:
		return http.StatusBadGateway
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryUnprocessable:
		return http.StatusUnprocessableEntity
	case CategoryTimeout:
		return http.StatusGatewayTimeout
	case CategoryConnection:
		return http.StatusServiceUnavailable
	default: // CategoryUnknownLibrary, CategoryProcessing
		return http.StatusInternalServerError
	}
}

// Retry returns the retry-eligibility hint for this error's category.
// Quota, conflict, upstream, timeout and connection failures are worth
// retrying; credential and request-shape failures are not.
func (e *SynthesisError) Retry() RetryEligibility {
	switch e.Category {
	case CategoryRateLimitExceeded, CategoryConflict, CategoryUpstreamServer,
		CategoryGenericAPI, CategoryTimeout, CategoryConnection:
		return RetryYes
	case CategoryAuthentication, CategoryPermissionDenied, CategoryBadRequest,
		CategoryNotFound, CategoryUnprocessable:
		return RetryNo
	default:
		return RetryMaybe
	}
}

// NewError builds a SynthesisError with the given category.
func NewError(category Category, message string, err error) *SynthesisError {
	return &SynthesisError{Category: category, Message: message, Err: err}
}

// CategoryForStatus maps a provider response status code onto the taxonomy.
// Any 5xx is an upstream server failure; recognized 4xx codes keep their
// specific class; anything else the provider invents is a generic API error.
func CategoryForStatus(statusCode int) Category {
	switch {
	case statusCode == http.StatusUnauthorized:
		return CategoryAuthentication
	case statusCode == http.StatusForbidden:
		return CategoryPermissionDenied
	case statusCode == http.StatusTooManyRequests:
		return CategoryRateLimitExceeded
	case statusCode == http.StatusBadRequest:
		return CategoryBadRequest
	case statusCode == http.StatusConflict:
		return CategoryConflict
	case statusCode == http.StatusNotFound:
		return CategoryNotFound
	case statusCode == http.StatusUnprocessableEntity:
		return CategoryUnprocessable
	case statusCode >= 500:
		return CategoryUpstreamServer
	default:
		return CategoryGenericAPI
	}
}

// translateTransportError folds transport-level failures into the taxonomy.
// Deadline expiry (from the context or the socket) is a timeout; every other
// network-level failure is a connection failure; anything unrecognized is an
// unknown library error.
func translateTransportError(err error) *SynthesisError {
	var synthErr *SynthesisError
	if errors.As(err, &synthErr) {
		return synthErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CategoryTimeout, "synthesis request deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewError(CategoryTimeout, "synthesis request timed out", err)
		}
		return NewError(CategoryConnection, "failed to reach synthesis provider", err)
	}

	return NewError(CategoryUnknownLibrary, "unrecognized synthesis client failure", err)
}
