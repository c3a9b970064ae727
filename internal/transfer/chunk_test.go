/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package transfer

import (
	"testing"

	"github.com/badu/h1engine/internal/iobuf"
)

func fillAll(t *testing.T, buf *iobuf.ReadBuffer, data string) {
	t.Helper()
	r := &staticReader{data: []byte(data)}
	for r.pos < len(r.data) {
		if _, err := buf.Fill(r); err != nil {
			t.Fatalf("Fill: %v", err)
		}
	}
}

type staticReader struct {
	data []byte
	pos  int
}

func (r *staticReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, errEOFStatic
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

var errEOFStatic = &staticEOF{}

type staticEOF struct{}

func (*staticEOF) Error() string { return "EOF" }

func TestChunkedDecodeSingleChunk(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	fillAll(t, buf, "5\r\nhello\r\n0\r\n\r\n")

	c := NewChunked()
	data, status, err := c.Decode(buf)
	if err != nil || status != ResultOk || string(data) != "hello" {
		t.Fatalf("got %q %v %v", data, status, err)
	}
	_, status, err = c.Decode(buf)
	if err != nil || status != ResultEOF {
		t.Fatalf("expected EOF, got %v %v", status, err)
	}
	if !c.IsEOF() {
		t.Fatalf("expected IsEOF true")
	}
}

func TestChunkedDecodeMultipleChunksAndExtension(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	fillAll(t, buf, "4;ext=1\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")

	c := NewChunked()
	var got []byte
	for {
		data, status, err := c.Decode(buf)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if status == ResultEOF {
			break
		}
		got = append(got, data...)
	}
	if string(got) != "Wikipedia" {
		t.Fatalf("got %q", got)
	}
}

func TestChunkedDecodePartialChunkData(t *testing.T) {
	// A chunk's data may arrive split across reads; Decode must yield
	// whatever prefix is already buffered rather than waiting for the
	// whole declared chunk size, mirroring Length's min(buf.len, n) rule.
	buf := iobuf.NewReadBuffer(1 << 20)
	fillAll(t, buf, "5\r\nhel")

	c := NewChunked()
	data, status, err := c.Decode(buf)
	if err != nil || status != ResultOk || string(data) != "hel" {
		t.Fatalf("got %q %v %v", data, status, err)
	}

	_, status, err = c.Decode(buf)
	if err != nil || status != ResultInsufficientData {
		t.Fatalf("expected InsufficientData once the buffered prefix is drained, got %v %v", status, err)
	}

	fillAll(t, buf, "lo\r\n0\r\n\r\n")
	data, status, err = c.Decode(buf)
	if err != nil || status != ResultOk || string(data) != "lo" {
		t.Fatalf("got %q %v %v", data, status, err)
	}
	_, status, err = c.Decode(buf)
	if err != nil || status != ResultEOF {
		t.Fatalf("expected EOF, got %v %v", status, err)
	}
}

func TestChunkedDecodeMalformedSize(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	fillAll(t, buf, "zzz\r\n")

	c := NewChunked()
	_, _, err := c.Decode(buf)
	if err == nil {
		t.Fatalf("expected malformed chunk error")
	}
}

func TestChunkedDecodeMissingTrailingCRLF(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	fillAll(t, buf, "3\r\nabcXX")

	c := NewChunked()
	_, _, err := c.Decode(buf)
	if err != nil {
		t.Fatalf("first decode should yield the chunk data: %v", err)
	}
	_, _, err = c.Decode(buf)
	if err != ErrMalformedChunk {
		t.Fatalf("expected ErrMalformedChunk, got %v", err)
	}
}

func TestChunkedEncode(t *testing.T) {
	wb := iobuf.NewWriteBuffer(1 << 20)
	c := NewChunked()
	c.Encode([]byte("hello"), wb)
	c.EncodeEOF(wb)
	want := "5\r\nhello\r\n0\r\n\r\n"
	if string(wb.Bytes()) != want {
		t.Fatalf("got %q want %q", wb.Bytes(), want)
	}
}

func TestLengthDecode(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	fillAll(t, buf, "hello world")

	c := NewLength(5)
	data, status, err := c.Decode(buf)
	if err != nil || status != ResultOk || string(data) != "hello" {
		t.Fatalf("got %q %v %v", data, status, err)
	}
	_, status, err = c.Decode(buf)
	if err != nil || status != ResultEOF {
		t.Fatalf("expected EOF once length is exhausted, got %v %v", status, err)
	}
	if !c.IsEOF() {
		t.Fatalf("expected IsEOF true")
	}
}

func TestLengthDecodeInsufficientData(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	c := NewLength(10)
	_, status, err := c.Decode(buf)
	if err != nil || status != ResultInsufficientData {
		t.Fatalf("expected InsufficientData on an empty buffer, got %v %v", status, err)
	}
}

func TestEOFCoding(t *testing.T) {
	buf := iobuf.NewReadBuffer(1 << 20)
	c := NewEOF()
	_, status, err := c.Decode(buf)
	if err != nil || status != ResultEOF {
		t.Fatalf("got %v %v", status, err)
	}
	if !c.IsEOF() {
		t.Fatalf("expected IsEOF true")
	}
}

func TestParseHexUintOverflow(t *testing.T) {
	_, err := parseHexUint([]byte("ffffffffffffffff0")) // 17 hex digits
	if err == nil {
		t.Fatalf("expected overflow error")
	}
}
