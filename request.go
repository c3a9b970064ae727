/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"io"

	"github.com/badu/h1engine/internal/hdr"
)

// Request is the opaque value spec.md §3 describes: method, URI, version,
// header map, extensions, and a body. It replaces badu-http's
// *http.Request, trading its ResponseWriter-paired, field-heavy shape for
// the narrower read-only contract a functional Handler needs.
type Request struct {
	Method  string
	URI     string
	Proto   string // "HTTP/1.1" or "HTTP/1.0"
	Header  hdr.Header
	Host    string
	RemoteAddr string

	// Body is the request's BodyStream (io.Reader), or EmptyBody when the
	// TransferCoding chosen by the Head Decoder was Eof. Handlers that
	// never read Body are still safe: the Dispatcher drains and closes it
	// unconditionally after the handler returns (spec.md §4.5 step 3.f/g).
	Body io.Reader

	// Extensions is the per-request-reused bag ConnectionContext owns
	// (spec.md §3's "extensions bag"), available for request-scoped
	// key/value data a handler or middleware wants to stash without an
	// allocation per request.
	Extensions map[interface{}]interface{}
}

// EmptyBody is Body's value for a request whose TransferCoding is Eof.
var EmptyBody io.Reader = emptyBody{}

type emptyBody struct{}

func (emptyBody) Read([]byte) (int, error) { return 0, io.EOF }
