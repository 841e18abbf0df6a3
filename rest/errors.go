// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rest

import (
	"fmt"

	"github.com/juju/errors"
)

// The dispatcher maps every failure onto exactly one of these kinds.
// Callers match with errors.Is and, where a kind carries detail,
// retrieve it with errors.As.
const (
	// ErrInvalidAddress means the endpoint base URL and request path
	// do not combine into a well formed address.
	ErrInvalidAddress = errors.ConstError("invalid address")

	// ErrNetworkFailure covers transport level failures: DNS,
	// connection refused, timeouts, connection resets.
	ErrNetworkFailure = errors.ConstError("network failure")

	// ErrHTTPFailure means the server answered with a non-2xx status.
	// The raw response body rides along in *HTTPError.
	ErrHTTPFailure = errors.ConstError("http failure")

	// ErrEncodingFailure means the request body could not be
	// serialized to the wire format.
	ErrEncodingFailure = errors.ConstError("encoding failure")

	// ErrDecodingFailure means a 2xx response body did not match the
	// expected shape. Detail rides along in *DecodeError.
	ErrDecodingFailure = errors.ConstError("decoding failure")

	// ErrCancelled means the caller's context was cancelled or its
	// deadline passed before a response was consumed.
	ErrCancelled = errors.ConstError("cancelled")
)

// failure pins an underlying cause to one kind of the taxonomy.
type failure struct {
	kind  errors.ConstError
	cause error
}

func newFailure(kind errors.ConstError, cause error) error {
	return &failure{kind: kind, cause: cause}
}

// Error is part of the error interface.
func (f *failure) Error() string {
	if f.cause == nil {
		return string(f.kind)
	}
	return fmt.Sprintf("%s: %v", f.kind, f.cause)
}

// Is reports membership of the taxonomy kind.
func (f *failure) Is(target error) bool {
	return target == f.kind
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (f *failure) Unwrap() error {
	return f.cause
}

// HTTPError is the carrier for ErrHTTPFailure. The body is kept as raw
// text for diagnostics; no shape is assumed.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error is part of the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http failure: server returned status %d", e.StatusCode)
}

// Is reports that an HTTPError is an ErrHTTPFailure.
func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTPFailure
}

// DecodeError is the carrier for ErrDecodingFailure.
type DecodeError struct {
	// Cause is the unmarshalling error.
	Cause error

	// Body is the payload that failed to decode.
	Body []byte
}

// Error is part of the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding failure: %v", e.Cause)
}

// Is reports that a DecodeError is an ErrDecodingFailure.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecodingFailure
}

// Unwrap exposes the unmarshalling error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}
