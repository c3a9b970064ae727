/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import "time"

// timerState is the Timer's two-state machine, spec.md §4.5.
type timerState int

const (
	timerOnKeepAlive timerState = iota
	timerOnRequestHead
)

// timer holds the two configured durations and the single active deadline,
// grounded on badu-http's conn.go deadline juggling
// (SetReadDeadline/idleTimeout) but made an explicit state machine instead
// of inline field mutation scattered across readRequest/serve.
type timer struct {
	keepAlive   time.Duration
	requestHead time.Duration
	state       timerState
	deadline    time.Time
}

func newTimer(cfg Config) *timer {
	t := &timer{keepAlive: cfg.KeepAliveTimeout, requestHead: cfg.RequestHeadTimeout}
	t.enterKeepAlive()
	return t
}

// enterKeepAlive is called when entering the outer loop (spec.md §4.5:
// "Entering the outer loop: state = OnKeepAlive").
func (t *timer) enterKeepAlive() {
	t.state = timerOnKeepAlive
	t.deadline = time.Now().Add(t.keepAlive)
}

// enterRequestHead is called upon the first byte read for a new request.
func (t *timer) enterRequestHead() {
	t.state = timerOnRequestHead
	t.deadline = time.Now().Add(t.requestHead)
}

// Deadline returns the current suspension deadline for SetReadDeadline.
func (t *timer) Deadline() time.Time { return t.deadline }

// expiredKind classifies a read timeout against the Timer's current state
// and whether bytes are already buffered, per spec.md §4.5: "if
// OnKeepAlive with zero bytes buffered → KeepAliveExpire; if OnRequestHead
// or with bytes buffered → RequestTimeout."
func (t *timer) expiredKind(bufferedBytes int) Kind {
	if t.state == timerOnKeepAlive && bufferedBytes == 0 {
		return KindKeepAliveExpire
	}
	return KindRequestTimeout
}
