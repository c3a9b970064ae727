/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package transfer implements the TransferCoding state machine of spec.md
// §4.1: a stateful framing codec translating between on-wire HTTP/1.1 body
// bytes and discrete byte chunks. It is grounded on badu-http's
// utils_chunks.go (readChunkLine/parseHexUint/chunk-extension stripping)
// and types_transfer.go/utils_transfer.go (fixLength, chunked, trailer
// parsing), reshaped from their "read a whole, possibly-blocking body" form
// into the incremental, never-blocking, bounded-buffer form this engine's
// BodyStream requires.
package transfer

import (
	"github.com/badu/h1engine/internal/iobuf"
	"github.com/pkg/errors"
)

// Kind identifies which framing the codec is currently applying.
type Kind int

const (
	KindEOF     Kind = iota // no body expected (request has none, or response forbids one)
	KindLength              // Content-Length framed
	KindChunked             // Transfer-Encoding: chunked
	KindUpgrade             // Connection: Upgrade / CONNECT — raw passthrough
)

// Result classifies the outcome of a Decode call.
type Result int

const (
	ResultOk             Result = iota // a chunk of body bytes was produced
	ResultInsufficientData              // buf doesn't yet hold a full unit; caller must read more
	ResultEOF                           // no more bytes are expected
)

// Coding is the stateful per-request/response transfer codec. The zero
// value is not usable; construct with NewLength, NewChunked, NewEOF, or
// NewUpgrade.
type Coding struct {
	kind      Kind
	remaining uint64 // KindLength: bytes left to read/write
	chunk     chunkState
}

// NewEOF constructs a Coding for a body-less message.
func NewEOF() *Coding { return &Coding{kind: KindEOF} }

// NewLength constructs a Coding framed by a known Content-Length.
func NewLength(n uint64) *Coding { return &Coding{kind: KindLength, remaining: n} }

// NewChunked constructs a Coding for Transfer-Encoding: chunked.
func NewChunked() *Coding { return &Coding{kind: KindChunked} }

// NewUpgrade constructs a Coding for a Connection: Upgrade (or CONNECT)
// body, which passes bytes through unframed.
func NewUpgrade() *Coding { return &Coding{kind: KindUpgrade} }

// Kind reports the codec's current framing.
func (c *Coding) Kind() Kind { return c.kind }

// IsEOF reports whether no more bytes are expected in either direction.
func (c *Coding) IsEOF() bool {
	switch c.kind {
	case KindEOF:
		return true
	case KindLength:
		return c.remaining == 0
	case KindChunked:
		return c.chunk.phase == phaseDone
	default: // KindUpgrade never resolves on its own
		return false
	}
}

// Decode consumes bytes from the front of buf and returns a chunk (copied
// out, safe to retain across the next Fill) or a status. Decode never
// blocks and never reads from the transport itself.
func (c *Coding) Decode(buf *iobuf.ReadBuffer) ([]byte, Result, error) {
	switch c.kind {
	case KindEOF:
		return nil, ResultEOF, nil
	case KindLength:
		return c.decodeLength(buf)
	case KindChunked:
		return c.decodeChunked(buf)
	case KindUpgrade:
		return c.decodeUpgrade(buf)
	default:
		return nil, 0, errors.Errorf("transfer: unknown coding kind %d", c.kind)
	}
}

func (c *Coding) decodeLength(buf *iobuf.ReadBuffer) ([]byte, Result, error) {
	if c.remaining == 0 {
		return nil, ResultEOF, nil
	}
	avail := buf.Bytes()
	if len(avail) == 0 {
		return nil, ResultInsufficientData, nil
	}
	n := uint64(len(avail))
	if n > c.remaining {
		n = c.remaining
	}
	out := append([]byte(nil), avail[:n]...)
	buf.Consume(int(n))
	c.remaining -= n
	return out, ResultOk, nil
}

func (c *Coding) decodeUpgrade(buf *iobuf.ReadBuffer) ([]byte, Result, error) {
	avail := buf.Bytes()
	if len(avail) == 0 {
		return nil, ResultInsufficientData, nil
	}
	out := append([]byte(nil), avail...)
	buf.Consume(len(avail))
	return out, ResultOk, nil
}

// Encode appends bytes in the codec's wire framing to buf. Writing more
// bytes than a KindLength coding's declared remaining size is a programmer
// error, matching spec.md §4.1 ("writing more than n is a programmer
// error"), and panics rather than silently truncating or corrupting the
// stream.
func (c *Coding) Encode(bytes []byte, buf *iobuf.WriteBuffer) {
	switch c.kind {
	case KindEOF:
		// no-op
	case KindLength:
		if uint64(len(bytes)) > c.remaining {
			panic("transfer: Encode wrote more than the declared Content-Length")
		}
		buf.Write(bytes)
		c.remaining -= uint64(len(bytes))
	case KindChunked:
		if len(bytes) == 0 {
			return
		}
		writeChunkSizeLine(buf, len(bytes))
		buf.Write(bytes)
		buf.WriteString("\r\n")
	case KindUpgrade:
		buf.Write(bytes)
	}
}

// EncodeEOF appends the framing terminator, if any, to buf.
func (c *Coding) EncodeEOF(buf *iobuf.WriteBuffer) {
	if c.kind == KindChunked {
		buf.WriteString("0\r\n\r\n")
		c.chunk.phase = phaseDone
	}
}

func writeChunkSizeLine(buf *iobuf.WriteBuffer, n int) {
	const hex = "0123456789abcdef"
	var tmp [16]byte
	i := len(tmp)
	if n == 0 {
		i--
		tmp[i] = '0'
	}
	for n > 0 {
		i--
		tmp[i] = hex[n&0xf]
		n >>= 4
	}
	buf.Write(tmp[i:])
	buf.WriteString("\r\n")
}
