/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package hdr

import (
	"bytes"
	"testing"
)

func TestHeaderAddGetValues(t *testing.T) {
	h := Header{}
	h.Add("x-custom", "a")
	h.Add("X-Custom", "b")
	if got := h.Get("X-CUSTOM"); got != "a" {
		t.Fatalf("Get = %q, want %q", got, "a")
	}
	if got := h.Values("x-Custom"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Values = %v", got)
	}
}

func TestHeaderSetReplaces(t *testing.T) {
	h := Header{}
	h.Add("X-Custom", "a")
	h.Set("x-custom", "b")
	if got := h.Values("X-Custom"); len(got) != 1 || got[0] != "b" {
		t.Fatalf("Values = %v", got)
	}
}

func TestHeaderDelAndReset(t *testing.T) {
	h := Header{}
	h.Set("X-A", "1")
	h.Set("X-B", "2")
	h.Del("x-a")
	if h.Get("X-A") != "" {
		t.Fatalf("expected X-A deleted")
	}
	h.Reset()
	if len(h) != 0 {
		t.Fatalf("expected empty header after Reset, got %v", h)
	}
}

func TestHeaderClone(t *testing.T) {
	h := Header{}
	h.Add("X-A", "1")
	h2 := h.Clone()
	h2.Add("X-A", "2")
	if len(h.Values("X-A")) != 1 {
		t.Fatalf("original header mutated by clone: %v", h)
	}
}

func TestHeaderWriteSubsetExcludesAndSorts(t *testing.T) {
	h := Header{}
	h.Set("X-B", "2")
	h.Set("X-A", "1")
	h.Set(Connection, "close")

	var buf bytes.Buffer
	if err := h.WriteSubset(&buf, map[string]bool{Connection: true}); err != nil {
		t.Fatalf("WriteSubset: %v", err)
	}
	want := "X-A: 1\r\nX-B: 2\r\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestHeaderWriteTrimsValueAndStripsNewlines(t *testing.T) {
	h := Header{}
	h.Set("X-A", "  v\nwith\rbreaks  ")
	var buf bytes.Buffer
	if err := h.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "X-A: v with breaks\r\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestCanonicalHeaderKey(t *testing.T) {
	cases := map[string]string{
		"content-type":   "Content-Type",
		"CONTENT-LENGTH": "Content-Length",
		"x-custom-id":    "X-Custom-Id",
	}
	for in, want := range cases {
		if got := CanonicalHeaderKey(in); got != want {
			t.Fatalf("CanonicalHeaderKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalHeaderKeyLeavesInvalidUnchanged(t *testing.T) {
	in := "bad header"
	if got := CanonicalHeaderKey(in); got != in {
		t.Fatalf("CanonicalHeaderKey(%q) = %q, want unchanged", in, got)
	}
}

func TestTokenEqual(t *testing.T) {
	if !TokenEqual("  Close  ", "close") {
		t.Fatalf("expected TokenEqual true")
	}
	if TokenEqual("keep-alive", "close") {
		t.Fatalf("expected TokenEqual false")
	}
}

func TestTokenContains(t *testing.T) {
	if !TokenContains("keep-alive, Upgrade", "upgrade") {
		t.Fatalf("expected TokenContains true")
	}
	if TokenContains("keep-alive", "close") {
		t.Fatalf("expected TokenContains false")
	}
}
