/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import "time"

// Default bounds, named and sized after spec.md §6 and the source's
// HttpServiceConfig (original_source/http/src/config.rs): H/R/W compile-
// time bounds made runtime-configurable per connection accept.
const (
	DefaultMaxHeaderCount    = 64
	DefaultMaxReadBufferSize = 1 << 20        // 1 MiB (R)
	DefaultMaxWriteBufferSize = 416 << 10      // 416 KiB (W)
	DefaultKeepAliveTimeout  = 75 * time.Second
	DefaultRequestHeadTimeout = 10 * time.Second
)

// TimeFormat is the wire format for the Date header, reused verbatim from
// badu-http's types_server.go (itself RFC 7231 §7.1.1.1's IMF-fixdate).
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Config bounds and times a Dispatcher. The zero value is not meant to be
// used directly; call DefaultConfig and override selectively.
type Config struct {
	// MaxHeaderCount bounds the number of header lines a request head may
	// contain (H).
	MaxHeaderCount int
	// MaxReadBufferSize bounds the ReadBuffer's capacity (R).
	MaxReadBufferSize int
	// MaxWriteBufferSize bounds the WriteBuffer's capacity before a drain
	// is forced (W).
	MaxWriteBufferSize int
	// KeepAliveTimeout is the Timer's active_duration while OnKeepAlive.
	KeepAliveTimeout time.Duration
	// RequestHeadTimeout is the Timer's active_duration while
	// OnRequestHead.
	RequestHeadTimeout time.Duration
}

// DefaultConfig returns the engine's default bounds.
func DefaultConfig() Config {
	return Config{
		MaxHeaderCount:     DefaultMaxHeaderCount,
		MaxReadBufferSize:  DefaultMaxReadBufferSize,
		MaxWriteBufferSize: DefaultMaxWriteBufferSize,
		KeepAliveTimeout:   DefaultKeepAliveTimeout,
		RequestHeadTimeout: DefaultRequestHeadTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxHeaderCount <= 0 {
		c.MaxHeaderCount = d.MaxHeaderCount
	}
	if c.MaxReadBufferSize <= 0 {
		c.MaxReadBufferSize = d.MaxReadBufferSize
	}
	if c.MaxWriteBufferSize <= 0 {
		c.MaxWriteBufferSize = d.MaxWriteBufferSize
	}
	if c.KeepAliveTimeout <= 0 {
		c.KeepAliveTimeout = d.KeepAliveTimeout
	}
	if c.RequestHeadTimeout <= 0 {
		c.RequestHeadTimeout = d.RequestHeadTimeout
	}
	return c
}
