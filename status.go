/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"strconv"

	"github.com/badu/h1engine/internal/iobuf"
)

// writeStatusOnly appends a status-only response — status line and a fixed
// "Content-Length: 0" / "Connection: close" header block, with no body —
// directly to buf, bypassing the Head Encoder and TransferCoding entirely. Grounded on
// badu-http's conn.go literal fmt.Fprintf(c.netConIface, "HTTP/1.1 "+publicErr+
// errorHeaders+publicErr) writes for its 431/400 paths, generalized to the
// three canonical codes this engine's outer loop can emit (spec.md §4.5)
// and routed through the bounded WriteBuffer instead of writing straight to
// the transport, so it plays by the same W-bound drain discipline as every
// other response.
func writeStatusOnly(buf *iobuf.WriteBuffer, status int) {
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(status))
	buf.WriteString(" ")
	buf.WriteString(reasonPhrase(status))
	buf.WriteString(statusOnlyHeaders)
}

// statusOnlyHeaders is the fixed header block of a status-only response,
// adapted from badu-http's types_strings.go errorHeaders constant: an empty
// body declared with Content-Length: 0, followed by Connection: close.
const statusOnlyHeaders = "\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"
