/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"context"
	"net"
	"time"

	"github.com/badu/h1engine/internal/logx"
	"github.com/badu/h1engine/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// tcpKeepAliveListener wraps a *net.TCPListener to enable TCP keep-alive on
// every accepted connection, ported from badu-http's
// tcp_keep_alive_listener.go.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (l tcpKeepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	conn.SetKeepAlive(true)
	conn.SetKeepAlivePeriod(3 * time.Minute)
	return conn, nil
}

// Listen opens a TCP listener at addr with keep-alive enabled on every
// accepted connection, for callers that don't already have their own
// net.Listener to pass to Serve.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return tcpKeepAliveListener{ln.(*net.TCPListener)}, nil
}

// Server accepts connections on a net.Listener and runs one Dispatcher per
// connection, each on its own goroutine — the "one dispatcher per accepted
// connection, many dispatchers per worker thread" deployment spec.md §5
// describes, mapped onto Go's scheduler instead of pinned worker threads.
// Grounded on badu-http's types_server.go Server.Serve accept loop, trading
// its ConnState/hijack machinery (out of this engine's scope) for a single
// Dispatcher.Run call per connection.
type Server struct {
	Handler Handler
	Config  Config

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	date *dateSource
}

// NewServer constructs a Server. If reg is nil, metrics are not collected.
func NewServer(handler Handler, cfg Config, logger *zap.Logger, reg prometheus.Registerer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}
	return &Server{Handler: handler, Config: cfg, Logger: logger, Metrics: m, date: newDateSource()}
}

// Serve accepts connections from ln until it returns an error (typically
// because ln was closed by the caller cancelling ctx), running each
// connection's Dispatcher to completion on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.date.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	remoteAddr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		remoteAddr = ra.String()
	}
	clog := logx.NewConn(s.Logger, remoteAddr)
	d := New(conn, s.Handler, s.Config, clog, s.Metrics, s.date)
	if err := d.Run(ctx); err != nil {
		clog.Warn("connection closed with error", zap.Error(err))
	}
}
