/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import "net"

// Transport is the consumed interface of spec.md §6: a non-blocking byte
// stream with a read side (0 = EOF), a write side, and graceful shutdown.
// Any *net.TCPConn or *tls.Conn already satisfies it; a readiness-based or
// completion-based (io_uring-style) backend is equally usable as long as it
// implements net.Conn, per spec.md §9's "two distinct backends are
// permitted; they differ only in how buffer ownership crosses await
// boundaries. The Dispatcher's externally observable behavior must be
// identical" — this engine only ever requires the readiness-based shape,
// since Go's net.Conn already gives every Dispatcher suspension point
// (Read, Write, SetDeadline) the blocking-goroutine equivalent of an await.
type Transport interface {
	net.Conn
}

// halfCloser is satisfied by *net.TCPConn and *tls.Conn; the Dispatcher
// uses it for a graceful half-close on hand-off to close_requested,
// mirroring badu-http's conn.closeWriteAndWait.
type halfCloser interface {
	CloseWrite() error
}

func closeWrite(t Transport) error {
	if hc, ok := t.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return t.Close()
}
