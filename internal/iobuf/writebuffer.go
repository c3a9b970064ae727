/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package iobuf

import "io"

// WriteBuffer is a bounded growable byte buffer always owned by the
// Dispatcher (spec.md §3). The Dispatcher stops queuing body chunks once Len
// reaches Limit and drains, so between Drain calls Len exceeds Limit by at
// most the last chunk appended; TransferCoding.Encode and the Head Encoder
// both append to it directly.
type WriteBuffer struct {
	buf   []byte
	limit int
}

// NewWriteBuffer constructs a WriteBuffer with the given capacity limit (W).
func NewWriteBuffer(limit int) *WriteBuffer {
	return &WriteBuffer{limit: limit}
}

// Len reports the number of buffered, undrained bytes.
func (b *WriteBuffer) Len() int { return len(b.buf) }

// Limit reports the buffer's capacity limit (W).
func (b *WriteBuffer) Limit() int { return b.limit }

// AtLimit reports whether Len has reached Limit, per spec.md §3: "when len
// reaches W, the dispatcher must drain to the socket before queuing more
// body bytes."
func (b *WriteBuffer) AtLimit() bool { return len(b.buf) >= b.limit }

// Write appends p to the buffer. Callers are responsible for draining
// before the buffer would grow unboundedly past Limit; Write itself never
// refuses a write (the dispatcher loop is what enforces the W bound by
// draining at the right points), matching the source's WriteBuf, which is
// a plain growable BytesMut.
func (b *WriteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteString is the string-argument twin of Write, avoiding a []byte copy
// for the many literal framing tokens (status lines, chunk-size lines,
// "\r\n") the codec writes.
func (b *WriteBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Bytes returns the buffered, undrained bytes. The slice is only valid
// until the next Write or Reset.
func (b *WriteBuffer) Bytes() []byte { return b.buf }

// Reset empties the buffer after a successful Drain.
func (b *WriteBuffer) Reset() { b.buf = b.buf[:0] }

// Drain writes every buffered byte to w, retrying partial writes, then
// resets the buffer. Mirrors badu-http's (*bufio.Writer).Flush by way of
// checkConnErrorWriter, generalized to the explicit capacity-tracked
// buffer this engine needs instead of a *bufio.Writer.
func (b *WriteBuffer) Drain(w io.Writer) error {
	n := 0
	for n < len(b.buf) {
		m, err := w.Write(b.buf[n:])
		if m == 0 && err == nil {
			err = io.ErrShortWrite
		}
		n += m
		if err != nil {
			b.buf = b.buf[n:]
			return err
		}
	}
	b.Reset()
	return nil
}
