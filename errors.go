/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import "github.com/pkg/errors"

// Kind enumerates the outer-loop dispositions of spec.md §7: what the
// Dispatcher's run loop does in response to an inner-loop failure. Grounded
// on badu-http's conn.go error handling (errTooLarge → 431, badRequestError
// → 400), generalized into a sum type rather than conn.go's pair of
// sentinel/string-typed errors, and wrapped with github.com/pkg/errors so a
// caller can still recover the underlying cause through Error's Unwrap
// (errors.Unwrap, errors.Is, errors.As).
type Kind int

const (
	KindKeepAliveExpire Kind = iota // idle timeout; silent close
	KindRequestTimeout              // partial-head timeout; 408 + close
	KindHeaderTooLarge              // head exceeded R; 431 + close
	KindBadRequest                  // malformed head / CL-TE conflict / bad version; 400 + close
	KindIO                          // transport failure; abort, propagate
	KindService                     // handler returned an error; propagate
	KindBody                        // body stream error; propagate, connection must close
)

func (k Kind) String() string {
	switch k {
	case KindKeepAliveExpire:
		return "keep_alive_expire"
	case KindRequestTimeout:
		return "request_timeout"
	case KindHeaderTooLarge:
		return "header_too_large"
	case KindBadRequest:
		return "bad_request"
	case KindIO:
		return "io"
	case KindService:
		return "service"
	case KindBody:
		return "body"
	default:
		return "unknown"
	}
}

// Error is the Dispatcher's own error type: a Kind plus the wrapped cause,
// matching spec.md §7's taxonomy. Errors.Is/As work against Kind via Is.
type Error struct {
	Kind  Kind
	cause error
}

// NewError wraps cause (which may be nil for a bare sentinel, e.g.
// KindKeepAliveExpire) with a Kind classification.
func NewError(kind Kind, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return "h1engine: " + e.Kind.String()
	}
	return "h1engine: " + e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, h1engine.NewError(h1engine.KindBadRequest, nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// closesConnection reports whether this error's Kind always terminates the
// connection, per spec.md §4.5's outer-loop match.
func (e *Error) closesConnection() bool {
	switch e.Kind {
	case KindKeepAliveExpire, KindRequestTimeout, KindHeaderTooLarge, KindBadRequest:
		return true
	default:
		return false
	}
}
