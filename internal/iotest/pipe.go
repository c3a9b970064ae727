/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package iotest provides a synchronous in-memory Transport pair for
// Dispatcher tests, in the spirit of badu-http's th package (NewTRequest/
// NewRecorder helpers building request/response doubles over real
// net/bufio types) but built on net.Pipe, since this engine's test
// doubles must satisfy the Transport (net.Conn) interface directly rather
// than feed a *bufio.Reader the way th.NewTRequest does.
package iotest

import (
	"net"
	"time"
)

// Conn wraps one side of a net.Pipe. Deadline handling is delegated to the
// embedded conn, since net.Pipe supports real deadlines.
type Conn struct {
	net.Conn
}

// NewPair returns two connected in-memory Transports: the first plays the
// server (Dispatcher) side, the second the test's client side driving it.
func NewPair() (server, client *Conn) {
	a, b := net.Pipe()
	return &Conn{a}, &Conn{b}
}

// SetDeadline/SetReadDeadline/SetWriteDeadline are inherited from the
// embedded net.Conn (net.Pipe's conns support real deadlines since Go
// 1.10); Conn exists only to give call sites a named type to construct
// test fixtures against.
var _ net.Conn = (*Conn)(nil)

// WriteDelayed writes p to w after d, useful for simulating a slow-
// trickling client in chunked-body and read-timeout tests.
func WriteDelayed(w net.Conn, p []byte, d time.Duration) <-chan error {
	done := make(chan error, 1)
	go func() {
		time.Sleep(d)
		_, err := w.Write(p)
		done <- err
	}()
	return done
}
