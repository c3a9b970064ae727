/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package hdr implements the HTTP header map used on both the decode and
// encode side of the engine: a case-insensitively-keyed multi-map that
// writes its keys in sorted order and each key's values in insertion order,
// ported from badu-http's hdr package and trimmed of
// the textproto-style incremental reader, which does not fit the bounded,
// never-blocking decode model this engine requires (see internal/transfer
// and the root package's decode.go for that replacement).
package hdr

import (
	"io"
	"sort"
)

// Header represents the key-value pairs in an HTTP header.
type Header map[string][]string

// Add adds the key, value pair to the header. It appends to any existing
// values associated with key.
func (h Header) Add(key, value string) {
	key = CanonicalHeaderKey(key)
	h[key] = append(h[key], value)
}

// Set sets the header entries associated with key to the single element
// value. It replaces any existing values associated with key.
func (h Header) Set(key, value string) {
	h[CanonicalHeaderKey(key)] = []string{value}
}

// Get gets the first value associated with the given key. It is case
// insensitive; CanonicalHeaderKey is used to canonicalize the provided key.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	v := h[CanonicalHeaderKey(key)]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// GetCanonical is like Get, but key must already be in CanonicalHeaderKey
// form; it skips the canonicalization pass.
func (h Header) GetCanonical(key string) string {
	if v := h[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns all values associated with the given key, case
// insensitively canonicalized.
func (h Header) Values(key string) []string {
	return h[CanonicalHeaderKey(key)]
}

// Del deletes the values associated with key.
func (h Header) Del(key string) {
	delete(h, CanonicalHeaderKey(key))
}

// Reset clears every entry while keeping the underlying map allocation, so
// a ConnectionContext can recycle one Header across every request on a
// connection instead of allocating a fresh map each time.
func (h Header) Reset() {
	for k := range h {
		delete(h, k)
	}
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	h2 := make(Header, len(h))
	for k, vv := range h {
		vv2 := make([]string, len(vv))
		copy(vv2, vv)
		h2[k] = vv2
	}
	return h2
}

// Write writes a header in wire format (without the terminating blank line).
func (h Header) Write(w io.Writer) error {
	return h.WriteSubset(w, nil)
}

type keyValues struct {
	key    string
	values []string
}

// headerSorter implements sort.Interface by sorting a []keyValues by key.
// It's used as a pointer, so it can fit in a sort.Interface value without
// allocation.
type headerSorter struct {
	kvs []keyValues
}

func (s *headerSorter) Len() int           { return len(s.kvs) }
func (s *headerSorter) Swap(i, j int)      { s.kvs[i], s.kvs[j] = s.kvs[j], s.kvs[i] }
func (s *headerSorter) Less(i, j int) bool { return s.kvs[i].key < s.kvs[j].key }

func (h Header) sortedKeyValues(exclude map[string]bool) []keyValues {
	kvs := make([]keyValues, 0, len(h))
	for k, vv := range h {
		if !exclude[k] {
			kvs = append(kvs, keyValues{k, vv})
		}
	}
	sort.Sort(&headerSorter{kvs})
	return kvs
}

// WriteSubset writes a header in wire format. If exclude is not nil, keys
// where exclude[key] == true are not written.
func (h Header) WriteSubset(w io.Writer, exclude map[string]bool) error {
	ws, ok := w.(writeStringer)
	if !ok {
		ws = stringWriter{w}
	}
	for _, kv := range h.sortedKeyValues(exclude) {
		for _, v := range kv.values {
			v = headerNewlineToSpace.Replace(v)
			v = TrimString(v)
			for _, s := range [...]string{kv.key, ": ", v, "\r\n"} {
				if _, err := ws.WriteString(s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type writeStringer interface {
	WriteString(string) (int, error)
}

type stringWriter struct{ w io.Writer }

func (w stringWriter) WriteString(s string) (int, error) { return w.w.Write([]byte(s)) }
