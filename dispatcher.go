/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/badu/h1engine/internal/body"
	"github.com/badu/h1engine/internal/iobuf"
	"github.com/badu/h1engine/internal/logx"
	"github.com/badu/h1engine/internal/metrics"
	"github.com/badu/h1engine/internal/transfer"
	"go.uber.org/zap"
)

// Dispatcher is the per-connection driver of spec.md §4.5: one goroutine
// per accepted connection, reading request heads, invoking the Handler,
// and streaming response bodies, until the connection closes cleanly or a
// protocol error forces it shut. Grounded on badu-http's (*conn).serve and
// (*conn).readRequest (conn.go), generalized from its imperative
// ResponseWriter-driven loop to the functional Handler contract this engine
// exposes (handler.go), and from its pooled *bufio.Reader/*bufio.Writer to
// the explicit, bound-enforcing iobuf.ReadBuffer/WriteBuffer pair.
type Dispatcher struct {
	transport Transport
	handler   Handler
	cfg       Config
	logger    *logx.Conn
	metrics   *metrics.Metrics

	ctx      *connectionContext
	readBuf  *iobuf.ReadBuffer
	writeBuf *iobuf.WriteBuffer
	timer    *timer
}

// New constructs a Dispatcher for one accepted connection. date is shared
// across every Dispatcher on a listener, per spec.md §6's single
// coarse-grained clock.
func New(transport Transport, handler Handler, cfg Config, logger *logx.Conn, m *metrics.Metrics, date *dateSource) *Dispatcher {
	cfg = cfg.withDefaults()
	remoteAddr := ""
	if ra := transport.RemoteAddr(); ra != nil {
		remoteAddr = ra.String()
	}
	return &Dispatcher{
		transport: transport,
		handler:   handler,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		ctx:       newConnectionContext(remoteAddr, date),
		readBuf:   iobuf.NewReadBuffer(cfg.MaxReadBufferSize),
		writeBuf:  iobuf.NewWriteBuffer(cfg.MaxWriteBufferSize),
		timer:     newTimer(cfg),
	}
}

// Run drives the connection until it closes or a non-nil error must be
// surfaced to the caller (spec.md §4.5's outer loop). The three Kind values
// that are handled entirely within Run (KeepAliveExpire, RequestTimeout,
// HeaderTooLarge) and KindBadRequest never escape; KindIO, KindService, and
// KindBody do.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.metrics != nil {
		d.metrics.ConnectionsActive.Inc()
		defer d.metrics.ConnectionsActive.Dec()
	}
	defer d.transport.Close()
	if d.logger != nil {
		d.logger.Debug("dispatcher started")
	}

	reason := metrics.ReasonClean
	for {
		err := d.runOnce(ctx)
		if err == nil {
			if derr := d.drainWrite(); derr != nil {
				d.recordClose(metrics.ReasonIO)
				return derr
			}
			if d.ctx.closeRequested {
				closeWrite(d.transport)
				d.recordClose(reason)
				return nil
			}
			continue
		}

		herr, ok := err.(*Error)
		if !ok {
			d.recordClose(metrics.ReasonIO)
			return err
		}

		switch herr.Kind {
		case KindKeepAliveExpire:
			d.recordClose(metrics.ReasonKeepAliveExpire)
			return nil
		case KindRequestTimeout:
			writeStatusOnly(d.writeBuf, 408)
			reason = metrics.ReasonRequestTimeout
		case KindHeaderTooLarge:
			writeStatusOnly(d.writeBuf, 431)
			reason = metrics.ReasonHeaderTooLarge
		case KindBadRequest:
			writeStatusOnly(d.writeBuf, 400)
			reason = metrics.ReasonBadRequest
		default: // KindIO, KindService, KindBody
			if herr.Kind == KindIO {
				d.recordClose(metrics.ReasonIO)
			} else {
				d.recordClose(metrics.ReasonServiceOrBodyErr)
			}
			if d.logger != nil {
				d.logger.Error("dispatcher aborting connection", zap.String("kind", herr.Kind.String()), zap.Error(herr))
			}
			return herr
		}
		// closesConnection is the single source of truth for which Kinds end
		// the connection; the switch above only owns each Kind's status code
		// and metrics label, so the two can't drift against each other.
		if herr.closesConnection() {
			d.ctx.closeRequested = true
		}

		if derr := d.drainWrite(); derr != nil {
			d.recordClose(metrics.ReasonIO)
			return derr
		}
		if d.ctx.closeRequested {
			closeWrite(d.transport)
			d.recordClose(reason)
			return nil
		}
	}
}

func (d *Dispatcher) recordClose(reason string) {
	if d.metrics != nil {
		d.metrics.CloseReasonTotal.WithLabelValues(reason).Inc()
	}
}

// runOnce is the inner `_run` of spec.md §4.5: one transport read followed
// by draining as many pipelined requests as the read buffer now holds.
func (d *Dispatcher) runOnce(ctx context.Context) error {
	d.transport.SetReadDeadline(d.timer.Deadline())

	n, err := d.readBuf.Fill(d.transport)
	if err != nil && !(err == io.EOF && n == 0) {
		if isTimeout(err) {
			return NewError(d.timer.expiredKind(d.readBuf.Len()), err)
		}
		return NewError(KindIO, err)
	}
	if n == 0 {
		d.ctx.closeRequested = true
		return nil
	}
	if d.timer.state == timerOnKeepAlive {
		d.timer.enterRequestHead()
	}

	for {
		req, coding, result, derr := decodeHead(d.readBuf, d.ctx, d.cfg)
		if derr != nil {
			return derr
		}
		if result == decodeNeedMore {
			return nil
		}
		d.timer.enterKeepAlive()
		start := time.Now()
		if d.metrics != nil {
			d.metrics.RequestsTotal.Inc()
		}

		var stream *body.Stream
		var notify *body.Notify
		if coding.IsEOF() {
			req.Body = EmptyBody
		} else {
			notify = body.NewNotify()
			stream = body.New(d.transport, d.readBuf, coding, notify, d.ctx.isExpectContinue)
			req.Body = stream
		}

		resp, herr := d.handler.Serve(ctx, req)

		if stream != nil {
			if derr := stream.Drain(); derr != nil {
				stream.Close()
				return NewError(KindBody, derr)
			}
			stream.Close()
		}

		if herr != nil {
			return NewError(KindService, herr)
		}

		respCoding, eerr := encodeHead(resp, req, d.ctx, d.writeBuf)
		if eerr != nil {
			return NewError(KindService, eerr)
		}
		if d.metrics != nil {
			d.metrics.RequestDurationSeconds.Observe(time.Since(start).Seconds())
		}

		if perr := d.pumpResponseBody(resp, respCoding); perr != nil {
			return perr
		}

		if notify != nil {
			buf, ok := notify.Wait(ctx)
			if !ok {
				d.ctx.closeRequested = true
				return nil
			}
			d.readBuf = buf
		}

		if d.ctx.closeRequested || d.readBuf.Len() == 0 {
			return nil
		}
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func (d *Dispatcher) drainWrite() error {
	if err := d.writeBuf.Drain(d.transport); err != nil {
		return NewError(KindIO, err)
	}
	return nil
}

type chunkMsg struct {
	data []byte
	err  error
}

func produceResponseBody(r io.Reader, out chan<- chunkMsg) {
	defer close(out)
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			out <- chunkMsg{data: cp}
		}
		if err != nil {
			out <- chunkMsg{err: err}
			return
		}
	}
}

// pumpResponseBody implements spec.md §4.5's response-body pump: the
// handler's body is polled via a producer goroutine and a capacity-1
// channel — the Go-idiomatic rendering of the source's single-threaded
// `select!` between "body ready" and "buffer non-empty, A still pending" —
// so that a full WriteBuffer forces a drain before further polling, and a
// pending body with a non-empty buffer triggers a drain rather than
// stalling bytes behind a slow handler.
func (d *Dispatcher) pumpResponseBody(resp *Response, coding *transfer.Coding) error {
	if resp == nil || resp.Kind == BodyNone || resp.Body == nil {
		coding.EncodeEOF(d.writeBuf)
		return d.drainWrite()
	}

	ch := make(chan chunkMsg, 1)
	go produceResponseBody(resp.Body, ch)

	for {
		for d.writeBuf.Len() < d.cfg.MaxWriteBufferSize {
			select {
			case msg, ok := <-ch:
				done, err := d.applyChunk(coding, msg, ok, ch)
				if err != nil {
					return err
				}
				if done {
					return d.drainWrite()
				}
				continue
			default:
			}
			break
		}

		if d.writeBuf.Len() > 0 {
			if err := d.drainWrite(); err != nil {
				drainChunks(ch)
				return err
			}
			continue
		}

		msg, ok := <-ch
		done, err := d.applyChunk(coding, msg, ok, ch)
		if err != nil {
			return err
		}
		if done {
			return d.drainWrite()
		}
	}
}

func (d *Dispatcher) applyChunk(coding *transfer.Coding, msg chunkMsg, ok bool, ch chan chunkMsg) (done bool, err error) {
	if !ok {
		coding.EncodeEOF(d.writeBuf)
		return true, nil
	}
	if msg.err != nil {
		if msg.err == io.EOF {
			coding.EncodeEOF(d.writeBuf)
			return true, nil
		}
		drainChunks(ch)
		return false, NewError(KindBody, msg.err)
	}
	coding.Encode(msg.data, d.writeBuf)
	return false, nil
}

// drainChunks discards a producer goroutine's remaining output after the
// pump has bailed out early on error, so produceResponseBody's blocking
// send on ch (capacity 1) is never stranded without a reader.
func drainChunks(ch <-chan chunkMsg) {
	go func() {
		for range ch {
		}
	}()
}
