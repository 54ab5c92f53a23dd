// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package backend implements the adapter contract for external
// text-generation providers. The router is agnostic to transport
// specifics beyond this contract: each adapter owns its endpoint,
// credentials, HTTP client, and rate limiter. No global client state.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Client is the uniform call contract every provider adapter satisfies.
type Client interface {
	// Name returns the backend's configured name.
	Name() string

	// Call sends the prompt to the provider and returns the generated
	// content. The adapter bounds the call with its configured timeout;
	// a tighter deadline on ctx wins.
	Call(ctx context.Context, prompt string) (string, error)
}

// ErrorKind classifies a backend failure. All kinds are treated
// uniformly as "attempt failed" by the executor; the kind only feeds
// health records and logs.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindRejected  ErrorKind = "rejected"
	KindMalformed ErrorKind = "malformed"
	KindTransport ErrorKind = "transport"
)

// callError wraps a provider failure with its classification.
type callError struct {
	kind ErrorKind
	code int
	msg  string
}

func (e *callError) Error() string {
	if e.code != 0 {
		return fmt.Sprintf("backend %s (status %d): %s", e.kind, e.code, e.msg)
	}
	return fmt.Sprintf("backend %s: %s", e.kind, e.msg)
}

// newCallError builds a classified backend error.
func newCallError(kind ErrorKind, code int, msg string) error {
	return &callError{kind: kind, code: code, msg: msg}
}

// KindOf extracts the classification from a backend error. Context
// deadline and cancellation errors classify as timeouts; anything
// unrecognized is a transport failure.
func KindOf(err error) ErrorKind {
	var ce *callError
	if errors.As(err, &ce) {
		return ce.kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindTransport
}

// StatusCode returns the HTTP status carried by a rejection error, or 0.
func StatusCode(err error) int {
	var ce *callError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 0
}
