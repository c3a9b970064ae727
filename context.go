/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"sync/atomic"
	"time"

	"github.com/badu/h1engine/internal/hdr"
)

// dateSource is a coarse-grained cached clock, regenerated at most once per
// second (spec.md §6: "generated from a coarse-grained cached clock
// (update granularity ≤ 1 s)"), grounded on badu-http's types_server.go
// atomicWriterFixBuf-protected date cache.
type dateSource struct {
	current atomic.Value // string, pre-formatted per TimeFormat
	stop    chan struct{}
}

func newDateSource() *dateSource {
	d := &dateSource{stop: make(chan struct{})}
	d.current.Store(time.Now().UTC().Format(TimeFormat))
	go d.run()
	return d
}

func (d *dateSource) run() {
	t := time.NewTicker(1 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			d.current.Store(time.Now().UTC().Format(TimeFormat))
		case <-d.stop:
			return
		}
	}
}

func (d *dateSource) Format() string { return d.current.Load().(string) }

func (d *dateSource) Close() { close(d.stop) }

// connectionContext is the per-connection state of spec.md §3: reused
// header map and extensions bag, close/method flags, and a reference to
// the cached date source. Created at connection accept, destroyed at
// connection close, mutated only on the Dispatcher's own goroutine.
type connectionContext struct {
	remoteAddr string
	header     hdr.Header
	extensions map[interface{}]interface{}

	closeRequested  bool
	isHeadMethod    bool
	isConnectMethod bool
	isExpectContinue bool
	method          string

	date *dateSource
}

func newConnectionContext(remoteAddr string, date *dateSource) *connectionContext {
	return &connectionContext{
		remoteAddr: remoteAddr,
		header:     make(hdr.Header, 16),
		extensions: make(map[interface{}]interface{}),
		date:       date,
	}
}

// reset clears the reused header map and extensions bag between requests,
// per spec.md §9's "expose a clear-and-recycle path" — ported as hdr.Header
// itself (Header.Reset, internal/hdr/header.go) plus clearing the
// extensions map's entries without discarding its backing allocation.
func (c *connectionContext) reset() {
	c.header.Reset()
	for k := range c.extensions {
		delete(c.extensions, k)
	}
	c.isHeadMethod = false
	c.isConnectMethod = false
	c.isExpectContinue = false
	c.method = ""
}
