/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"bytes"
	"strconv"

	"github.com/badu/h1engine/internal/hdr"
	"github.com/badu/h1engine/internal/iobuf"
	"github.com/badu/h1engine/internal/transfer"
	"golang.org/x/net/http/httpguts"
)

// DecodeResult classifies decodeHead's outcome: a full head was parsed
// (decodeReady) or more bytes are needed (decodeNeedMore). A Kind error is
// returned separately; when it is non-nil the DecodeResult carries no
// meaning.
type DecodeResult int

const (
	decodeReady DecodeResult = iota
	decodeNeedMore
)

const crlfcrlf = "\r\n\r\n"

// decodeHead implements spec.md §4.2: parse a request head from buf using
// at most cfg.MaxHeaderCount header slots, reusing ctx's header map.
// Grounded on badu-http's conn.go readRequest (Host validation, header
// field validation via what was golang.org/x/net/lex/httplex and is now
// golang.org/x/net/http/httpguts) and utils_transfer.go's fixLength
// (Content-Length/Transfer-Encoding conflict rules), reshaped from a
// blocking bufio.Reader scan into a single non-blocking pass over buf's
// already-buffered bytes.
func decodeHead(buf *iobuf.ReadBuffer, ctx *connectionContext, cfg Config) (*Request, *transfer.Coding, DecodeResult, error) {
	data := buf.Bytes()
	idx := bytes.Index(data, []byte(crlfcrlf))
	if idx < 0 {
		if buf.AtLimit() {
			return nil, nil, decodeReady, NewError(KindHeaderTooLarge, errHeaderTooLarge)
		}
		return nil, nil, decodeNeedMore, nil
	}
	headEnd := idx + len(crlfcrlf)
	head := data[:headEnd]

	lineEnd := bytes.Index(head, []byte("\r\n"))
	if lineEnd < 0 {
		return nil, nil, decodeReady, NewError(KindBadRequest, errBadRequest("malformed request line"))
	}
	requestLine := head[:lineEnd]
	rest := head[lineEnd+2:]

	method, uri, proto, err := parseRequestLine(requestLine)
	if err != nil {
		return nil, nil, decodeReady, NewError(KindBadRequest, err)
	}
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return nil, nil, decodeReady, NewError(KindBadRequest, errBadRequest("unsupported protocol version"))
	}

	// reset clears not just the header map but also ctx.extensions, so a
	// key a handler stashed in the previous request's Extensions bag never
	// leaks into this one on a pipelined/keep-alive connection.
	ctx.reset()
	if err := parseHeaderLines(rest, ctx.header, cfg.MaxHeaderCount); err != nil {
		if kerr, ok := err.(*Error); ok {
			return nil, nil, decodeReady, kerr
		}
		return nil, nil, decodeReady, NewError(KindBadRequest, err)
	}

	hosts := ctx.header.Values(hdr.Host)
	isConnect := method == "CONNECT"
	if proto == "HTTP/1.1" && len(hosts) == 0 && !isConnect {
		return nil, nil, decodeReady, NewError(KindBadRequest, errBadRequest("missing required Host header"))
	}
	if len(hosts) > 1 {
		return nil, nil, decodeReady, NewError(KindBadRequest, errBadRequest("too many Host headers"))
	}
	host := ""
	if len(hosts) == 1 {
		if !httpguts.ValidHostHeader(hosts[0]) {
			return nil, nil, decodeReady, NewError(KindBadRequest, errBadRequest("malformed Host header"))
		}
		host = hosts[0]
	}
	ctx.header.Del(hdr.Host)

	coding, closeRequested, isExpectContinue, _, err := chooseRequestCoding(ctx.header, proto, isConnect)
	if err != nil {
		return nil, nil, decodeReady, NewError(KindBadRequest, err)
	}

	buf.Consume(headEnd)

	ctx.isHeadMethod = method == "HEAD"
	ctx.isConnectMethod = isConnect
	ctx.isExpectContinue = isExpectContinue
	ctx.method = method
	if closeRequested {
		ctx.closeRequested = true
	}

	req := &Request{
		Method:     method,
		URI:        uri,
		Proto:      proto,
		Header:     ctx.header,
		Host:       host,
		RemoteAddr: ctx.remoteAddr,
		Extensions: ctx.extensions,
	}
	return req, coding, decodeReady, nil
}

func parseRequestLine(line []byte) (method, uri, proto string, err error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return "", "", "", errBadRequest("malformed request line")
	}
	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 < 0 {
		return "", "", "", errBadRequest("malformed request line")
	}
	sp2 += sp1 + 1
	return string(line[:sp1]), string(line[sp1+1 : sp2]), string(line[sp2+1:]), nil
}

// parseHeaderLines scans CRLF-terminated header lines out of data into h,
// enforcing at most maxHeaders entries and validating each field name and
// value via httpguts, the modern successor to badu-http's
// golang.org/x/net/lex/httplex-backed hdr.ValidHeaderFieldName/Value calls.
func parseHeaderLines(data []byte, h hdr.Header, maxHeaders int) error {
	count := 0
	for len(data) > 0 {
		i := bytes.Index(data, []byte("\r\n"))
		if i < 0 {
			return errBadRequest("malformed header line")
		}
		line := data[:i]
		data = data[i+2:]
		if len(line) == 0 {
			break
		}
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return errBadRequest("malformed header line")
		}
		name := string(line[:colon])
		value := hdr.TrimString(string(line[colon+1:]))
		if !httpguts.ValidHeaderFieldName(name) {
			return errBadRequest("invalid header name")
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return errBadRequest("invalid header value")
		}
		count++
		if count > maxHeaders {
			return NewError(KindHeaderTooLarge, errHeaderTooLarge)
		}
		h.Add(name, value)
	}
	return nil
}

// chooseRequestCoding implements spec.md §4.2's framing selection: chunked
// if TE names chunked as the final coding; else Length(n) if exactly one
// valid Content-Length is present; else Eof. CONNECT and Upgrade both force
// Upgrade framing. Grounded on badu-http's utils_transfer.go fixLength and
// chunked() helpers, adapted to operate on the already-fully-buffered
// header map rather than textproto.MIMEHeader during an incremental read.
func chooseRequestCoding(h hdr.Header, proto string, isConnect bool) (coding *transfer.Coding, closeRequested, expectContinue, isUpgrade bool, err error) {
	teValues := h.Values(hdr.TransferEncoding)
	isChunked := len(teValues) > 0 && hdr.TokenEqual(lastCSV(teValues[len(teValues)-1]), hdr.TokenChunked)

	clValues := h.Values(hdr.ContentLength)
	var contentLength int64 = -1
	if len(clValues) > 0 {
		if isChunked {
			return nil, false, false, false, errBadRequest("both Content-Length and chunked Transfer-Encoding")
		}
		for i, v := range clValues {
			n, perr := strconv.ParseInt(hdr.TrimString(v), 10, 64)
			if perr != nil || n < 0 {
				return nil, false, false, false, errBadRequest("invalid Content-Length")
			}
			if i == 0 {
				contentLength = n
			} else if n != contentLength {
				return nil, false, false, false, errBadRequest("duplicate Content-Length with different values")
			}
		}
	}

	for _, v := range h.Values(hdr.Connection) {
		if hdr.TokenContains(v, hdr.TokenClose) {
			closeRequested = true
		}
		if hdr.TokenContains(v, hdr.TokenUpgrade) {
			isUpgrade = true
		}
	}
	if proto == "HTTP/1.0" && !closeRequested {
		keepAlive := false
		for _, v := range h.Values(hdr.Connection) {
			if hdr.TokenContains(v, hdr.TokenKeepAlive) {
				keepAlive = true
			}
		}
		closeRequested = !keepAlive
	}

	if v := h.Get(hdr.Expect); hdr.TokenEqual(v, hdr.Token100Continue) {
		expectContinue = true
	}
	if h.Get(hdr.Upgrade) != "" {
		isUpgrade = true
	}

	switch {
	case isConnect, isUpgrade:
		coding = transfer.NewUpgrade()
	case isChunked:
		coding = transfer.NewChunked()
	case contentLength > 0:
		coding = transfer.NewLength(uint64(contentLength))
	default:
		coding = transfer.NewEOF()
	}
	return coding, closeRequested, expectContinue, isUpgrade, nil
}

func lastCSV(v string) string {
	if i := bytes.LastIndexByte([]byte(v), ','); i >= 0 {
		return hdr.TrimString(v[i+1:])
	}
	return hdr.TrimString(v)
}

var errHeaderTooLarge = errBadRequestString("request head too large")

type errBadRequestString string

func (e errBadRequestString) Error() string { return string(e) }

func errBadRequest(msg string) error { return errBadRequestString(msg) }
