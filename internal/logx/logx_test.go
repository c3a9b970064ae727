/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package logx

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewConnStampsConnIDAndRemoteAddr(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewConn(zap.New(core), "10.0.0.5:1234")

	c.Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["conn_id"] != c.ID() {
		t.Fatalf("conn_id = %v, want %v", fields["conn_id"], c.ID())
	}
	if fields["remote_addr"] != "10.0.0.5:1234" {
		t.Fatalf("remote_addr = %v", fields["remote_addr"])
	}
}

func TestWithAddsFieldsWithoutLosingConnID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewConn(zap.New(core), "10.0.0.5:1234")
	derived := c.With(zap.String("request_id", "r1"))

	derived.Warn("uh oh")

	fields := logs.All()[0].ContextMap()
	if fields["conn_id"] != c.ID() {
		t.Fatalf("conn_id missing on derived logger: %v", fields)
	}
	if fields["request_id"] != "r1" {
		t.Fatalf("request_id missing: %v", fields)
	}
}

func TestLevelsRouteToUnderlyingCore(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewConn(zap.New(core), "addr")

	c.Debug("d")
	c.Info("i")
	c.Warn("w")
	c.Error("e")

	want := []zapcore.Level{zap.DebugLevel, zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel}
	entries := logs.All()
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, lvl := range want {
		if entries[i].Level != lvl {
			t.Fatalf("entry %d level = %v, want %v", i, entries[i].Level, lvl)
		}
	}
}
