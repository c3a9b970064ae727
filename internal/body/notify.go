/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package body implements BodyStream and the Notify rendezvous of spec.md
// §4.4: the lazy, pull-based request body and the single-slot handoff that
// returns its ReadBuffer to the Dispatcher once the body is spent or
// abandoned. Grounded on the source's Rc<RefCell<Inner<T>>>+Waker rendezvous
// (original_source/http/src/h1/dispatcher_uring.rs's Notify/Notifier/Inner),
// rendered in the idiom spec.md §9 explicitly sanctions ("a one-shot channel
// or a mutex+condvar"): a capacity-1 channel closed by the producer, which
// lets a single receive distinguish "deposited" from "producer gone" without
// any extra synchronization.
package body

import (
	"context"

	"github.com/badu/h1engine/internal/iobuf"
)

// Notify is a single-use, single-slot rendezvous: the BodyStream producer
// either deposits the ReadBuffer it was lent or abandons it, and the
// Dispatcher waits for exactly one of those outcomes. Deposit/Abandon must
// be called exactly once, which the Dispatcher/BodyStream pairing already
// guarantees by construction (one BodyStream per Notify, closed exactly
// once on drain or error).
type Notify struct {
	ch chan *iobuf.ReadBuffer
}

// NewNotify constructs an unresolved rendezvous.
func NewNotify() *Notify {
	return &Notify{ch: make(chan *iobuf.ReadBuffer, 1)}
}

// Deposit hands the buffer back to the waiter and resolves the rendezvous.
// The buffered capacity-1 channel guarantees this never blocks.
func (n *Notify) Deposit(buf *iobuf.ReadBuffer) {
	n.ch <- buf
	close(n.ch)
}

// Abandon resolves the rendezvous with no deposit, signaling the waiter
// that the producer is gone and the connection must close rather than
// reuse a buffer left in an indeterminate state.
func (n *Notify) Abandon() {
	close(n.ch)
}

// Wait blocks until Deposit or Abandon resolves the rendezvous, or ctx is
// done. It returns (buf, true) on deposit, (nil, false) on abandonment or
// context cancellation — the caller cannot distinguish the latter two and
// must treat both as "close the connection", matching spec.md §4.4's
// "the waiter will observe a gone producer and mark the connection for
// close."
func (n *Notify) Wait(ctx context.Context) (*iobuf.ReadBuffer, bool) {
	select {
	case buf, ok := <-n.ch:
		return buf, ok
	case <-ctx.Done():
		return nil, false
	}
}
