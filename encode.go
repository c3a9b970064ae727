/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"strconv"

	"github.com/badu/h1engine/internal/hdr"
	"github.com/badu/h1engine/internal/iobuf"
	"github.com/badu/h1engine/internal/transfer"
)

// statusText is badu-http's types_strings.go status-reason table, trimmed
// to the codes this engine's own canonical responses and ordinary handler
// responses are expected to use; any other code falls back to "status code
// NNN", mirroring badu-http's response.go Write fallback.
var statusText = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	411: "Length Required",
	413: "Payload Too Large",
	414: "URI Too Long",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

func reasonPhrase(status int) string {
	if s, ok := statusText[status]; ok {
		return s
	}
	return "status code " + strconv.Itoa(status)
}

// errProtoStatus is returned by encodeHead when resp.Status is a rejected
// 1xx: every informational status except 100 Continue and 101 Switching
// Protocols.
var errProtoStatus = errBadRequestString("1xx status from handler is not permitted")

// encodeHead implements spec.md §4.3: serialize a response head into buf
// and return the TransferCoding the body must be encoded with. Grounded on
// badu-http's chunk_writer.go/response_server.go status-line and header
// writing, generalized from its ResponseWriter-driven incremental writes
// into one pass over an already-complete Response value.
func encodeHead(resp *Response, req *Request, ctx *connectionContext, buf *iobuf.WriteBuffer) (*transfer.Coding, error) {
	status := resp.Status
	if status >= 100 && status < 200 && status != 100 && status != 101 {
		return nil, errProtoStatus
	}

	if status == 200 && req.Proto == "HTTP/1.1" {
		buf.WriteString("HTTP/1.1 200 OK\r\n")
	} else {
		buf.WriteString(req.Proto)
		buf.WriteString(" ")
		buf.WriteString(strconv.Itoa(status))
		buf.WriteString(" ")
		buf.WriteString(reasonPhrase(status))
		buf.WriteString("\r\n")
	}

	skipLen := status == 101 || (ctx.isConnectMethod && status >= 200 && status < 300)

	var coding *transfer.Coding
	upgradeForced := false
	dateSupplied := false

	for _, v := range resp.Header.Values(hdr.Connection) {
		if hdr.TokenContains(v, hdr.TokenUpgrade) {
			upgradeForced = true
		}
	}
	if resp.Header.Get(hdr.Date) != "" {
		dateSupplied = true
	}

	switch {
	case upgradeForced || resp.Header.Get(hdr.Upgrade) != "":
		coding = transfer.NewUpgrade()
	case resp.Header.Get(hdr.ContentLength) != "":
		n, err := strconv.ParseUint(resp.Header.Get(hdr.ContentLength), 10, 64)
		if err != nil {
			return nil, errBadRequestString("invalid Content-Length on response")
		}
		coding = transfer.NewLength(n)
	case isChunkedHeader(resp.Header):
		coding = transfer.NewChunked()
	case !skipLen:
		switch resp.Kind {
		case BodySized:
			resp.Header.Set(hdr.ContentLength, strconv.FormatInt(resp.Len, 10))
			coding = transfer.NewLength(uint64(resp.Len))
		case BodyStreamKind:
			resp.Header.Set(hdr.TransferEncoding, hdr.TokenChunked)
			coding = transfer.NewChunked()
		default:
			coding = transfer.NewEOF()
		}
	default:
		coding = transfer.NewEOF()
	}

	if err := resp.Header.WriteSubset(buf, excludeOnWrite); err != nil {
		return nil, err
	}

	if ctx.closeRequested {
		buf.WriteString("Connection: close\r\n")
	}
	if !dateSupplied {
		buf.WriteString("Date: ")
		buf.WriteString(ctx.date.Format())
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")

	if ctx.isHeadMethod {
		return transfer.NewEOF(), nil
	}
	return coding, nil
}

func isChunkedHeader(h hdr.Header) bool {
	for _, v := range h.Values(hdr.TransferEncoding) {
		if hdr.TokenContains(v, hdr.TokenChunked) {
			return true
		}
	}
	return false
}

// excludeOnWrite keeps WriteSubset from writing the handler's Connection
// header, which encodeHead replaces with its own close_requested policy,
// mirroring badu-http's respExcludeHeader in utils_response.go. A
// handler-supplied Date is written as-is and suppresses the automatic one.
var excludeOnWrite = map[string]bool{
	hdr.Connection: true,
}
