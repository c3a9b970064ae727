/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package body

import (
	"io"
	"sync"

	"github.com/badu/h1engine/internal/iobuf"
	"github.com/badu/h1engine/internal/transfer"
	"github.com/pkg/errors"
)

// ErrReadBufLimit is surfaced when the ReadBuffer has reached its capacity
// limit (R) without yielding a complete framing unit — the request head was
// fine, but the body itself cannot make progress within the configured
// bound. Spec.md §4.4 step 2.
var ErrReadBufLimit = errors.New("body: read buffer limit reached with no progress")

const continuePreamble = "HTTP/1.1 100 Continue\r\n\r\n"

// Stream is the lazy byte-chunk sequence handed to the handler as a
// request's Body. It owns, for its lifetime, the shared transport, the
// ReadBuffer lent by the Dispatcher, this request's TransferCoding, and a
// Notify endpoint — exactly the ownership set spec.md §4.4 describes.
//
// Stream implements io.Reader so handlers consume it with the rest of the
// Go ecosystem's body-reading idioms (io.Copy, io.ReadAll, json.Decoder),
// in place of badu-http's io.ReadCloser request.Body contract, which this
// engine's Close below reproduces via the Notify handoff instead of a
// bufio-pool Close.
type Stream struct {
	transport io.ReadWriter
	buf       *iobuf.ReadBuffer
	coding    *transfer.Coding
	notify    *Notify

	expectContinue bool
	pending        []byte // leftover bytes from a Decode call larger than the caller's p

	once   sync.Once
	closed bool
}

// New constructs a Stream. transport is shared with the Dispatcher for the
// duration of this request's body only, per spec.md §5's "shared resources"
// rule: only one suspension per direction may be outstanding at a time,
// which holds here because the Dispatcher does not touch the transport
// again until this Stream is closed.
func New(transport io.ReadWriter, buf *iobuf.ReadBuffer, coding *transfer.Coding, notify *Notify, expectContinue bool) *Stream {
	return &Stream{
		transport:      transport,
		buf:            buf,
		coding:         coding,
		notify:         notify,
		expectContinue: expectContinue,
	}
}

// Read implements io.Reader. Per spec.md §4.4's pull semantics: the first
// pull sends the deferred 100-continue preamble if one is owed, then
// repeatedly decodes the shared ReadBuffer, filling it from the transport
// only when the codec reports InsufficientData.
func (s *Stream) Read(p []byte) (int, error) {
	if s.expectContinue {
		s.expectContinue = false
		if _, err := io.WriteString(s.transport, continuePreamble); err != nil {
			return 0, errors.Wrap(err, "body: writing 100-continue preamble")
		}
	}

	for len(s.pending) == 0 {
		data, status, err := s.coding.Decode(s.buf)
		if err != nil {
			return 0, err
		}
		switch status {
		case transfer.ResultOk:
			s.pending = data
		case transfer.ResultEOF:
			return 0, io.EOF
		case transfer.ResultInsufficientData:
			if s.buf.AtLimit() {
				return 0, ErrReadBufLimit
			}
			n, ferr := s.buf.Fill(s.transport)
			if n == 0 {
				if ferr == nil || ferr == io.EOF {
					return 0, io.ErrUnexpectedEOF
				}
				return 0, errors.Wrap(ferr, "body: reading from transport")
			}
			if ferr != nil && ferr != io.EOF {
				return 0, errors.Wrap(ferr, "body: reading from transport")
			}
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Close resolves the Notify rendezvous exactly once: if the TransferCoding
// has reached EOF (whether because the handler consumed the whole body, or
// because Drain discarded what the handler left unread), the shared
// ReadBuffer is deposited back to the Dispatcher; otherwise it is
// abandoned and the connection is marked for close by the waiter. Spec.md
// §4.4 step 3 ("on drop").
//
// The Dispatcher must call Close after invoking the handler and before
// waiting on the Notify, regardless of whether the handler fully drained
// the body — Go has no destructor to do this implicitly the way the
// source's Drop impl does.
func (s *Stream) Close() error {
	s.once.Do(func() {
		s.closed = true
		if s.coding.IsEOF() {
			s.notify.Deposit(s.buf)
		} else {
			s.notify.Abandon()
		}
	})
	return nil
}

// Drain reads and discards the entire remaining body, so Close can deposit
// the ReadBuffer even when the handler ignored the body. Dispatchers call
// this before Close when the handler returned without having consumed the
// body to EOF.
func (s *Stream) Drain() error {
	var discard [4096]byte
	for {
		_, err := s.Read(discard[:])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
