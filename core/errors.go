// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrUnexpectedStatus indicates a source answered with a non-success status.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMalformedPayload indicates a source payload could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrEmptyName indicates a record without a trend name.
	ErrEmptyName = errors.New("trend name cannot be empty")
)

// FetchError reports a failed source fetch. It is recoverable: the orchestrator
// retries it and, when retries are exhausted, marks only that source as failed.
type FetchError struct {
	Source string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Timeout reports whether the fetch failed by exceeding its deadline.
func (e *FetchError) Timeout() bool { return errors.Is(e.Cause, ErrTimeout) }

// IndexError reports a failed operation against the trend index.
type IndexError struct {
	Op    string
	Cause error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %v", e.Op, e.Cause)
}

func (e *IndexError) Unwrap() error { return e.Cause }

// GenerationKind classifies text generation failures.
type GenerationKind string

const (
	GenRateLimited  GenerationKind = "rate_limited"
	GenTimeout      GenerationKind = "timeout"
	GenInvalidInput GenerationKind = "invalid_input"
	GenUnavailable  GenerationKind = "unavailable"
)

// GenerationError reports a failed text generation call.
type GenerationError struct {
	Kind  GenerationKind
	Cause error
}

func (e *GenerationError) Error() string {
	if e.Cause == nil {
		return "generation " + string(e.Kind)
	}
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// ValidationError reports a record or request that violates a required field rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsIndexError reports whether err carries an IndexError.
func IsIndexError(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie)
}

// GenerationKindOf returns the generation failure class carried by err, or ""
// when err is not a GenerationError.
func GenerationKindOf(err error) GenerationKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
