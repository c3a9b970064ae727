/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package iobuf

import (
	"bytes"
	"io"
	"testing"
)

func TestReadBufferFillAndConsume(t *testing.T) {
	buf := NewReadBuffer(1024)
	n, err := buf.Fill(bytes.NewReader([]byte("hello")))
	if err != nil || n != 5 {
		t.Fatalf("Fill: n=%d err=%v", n, err)
	}
	if buf.Len() != 5 {
		t.Fatalf("Len = %d, want 5", buf.Len())
	}
	if string(buf.Bytes()) != "hello" {
		t.Fatalf("Bytes = %q", buf.Bytes())
	}
	buf.Consume(3)
	if string(buf.Bytes()) != "lo" {
		t.Fatalf("Bytes after Consume = %q", buf.Bytes())
	}
	buf.Consume(2)
	if buf.Len() != 0 {
		t.Fatalf("Len after full consume = %d", buf.Len())
	}
}

func TestReadBufferLimitExceeded(t *testing.T) {
	buf := NewReadBuffer(8)
	_, err := buf.Fill(bytes.NewReader(bytes.Repeat([]byte("x"), 8)))
	if err != nil {
		t.Fatalf("first Fill: %v", err)
	}
	if !buf.AtLimit() {
		t.Fatalf("expected AtLimit true")
	}
	_, err = buf.Fill(bytes.NewReader([]byte("y")))
	if err != ErrLimitExceeded {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestReadBufferCompactsOnReserve(t *testing.T) {
	buf := NewReadBuffer(1 << 20)
	buf.Fill(bytes.NewReader(bytes.Repeat([]byte("a"), 100)))
	buf.Consume(100)
	buf.Fill(bytes.NewReader([]byte("b")))
	if string(buf.Bytes()) != "b" {
		t.Fatalf("Bytes = %q, want %q", buf.Bytes(), "b")
	}
}

func TestWriteBufferDrain(t *testing.T) {
	wb := NewWriteBuffer(1024)
	wb.WriteString("hello ")
	wb.Write([]byte("world"))
	var out bytes.Buffer
	if err := wb.Drain(&out); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if out.String() != "hello world" {
		t.Fatalf("got %q", out.String())
	}
	if wb.Len() != 0 {
		t.Fatalf("expected buffer reset after Drain, Len = %d", wb.Len())
	}
}

type partialWriter struct {
	w    io.Writer
	n    int
	errs []error
}

func (p *partialWriter) Write(b []byte) (int, error) {
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	limit := p.n
	if limit > len(b) {
		limit = len(b)
	}
	return p.w.Write(b[:limit])
}

func TestWriteBufferDrainRetriesPartialWrites(t *testing.T) {
	wb := NewWriteBuffer(1024)
	wb.WriteString("hello world")
	var out bytes.Buffer
	pw := &partialWriter{w: &out, n: 4}
	if err := wb.Drain(pw); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if out.String() != "hello world" {
		t.Fatalf("got %q", out.String())
	}
}
