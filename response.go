/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"io"

	"github.com/badu/h1engine/internal/hdr"
)

// BodyKind tags a Response's declared body size, spec.md §3's
// `None | Sized(n) | Stream`.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodySized
	BodyStreamKind
)

// Response is the value a Handler returns: a status code, header map, and
// a lazy byte-chunk body declaring its own size. It replaces this file's
// former client-side *Response.Write (status-line-plus-io.Writer, built
// for reading a server's reply back on the client) with the functional
// return value spec.md §6's Handler contract requires — this engine never
// plays the client role, so that method and its transferWriter plumbing
// have no home here and are not carried forward.
type Response struct {
	Status int
	Header hdr.Header

	// Kind declares how Body's size is known. BodyNone ignores Body
	// entirely; BodySized requires Len to be accurate (the Head Encoder
	// writes it verbatim as Content-Length); BodyStreamKind has no
	// declared size and is framed chunked.
	Kind BodyKind
	Len  int64 // valid only when Kind == BodySized
	Body io.Reader
}

// NewResponse constructs a Response with an empty header map ready for
// Set/Add calls.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: make(hdr.Header)}
}
