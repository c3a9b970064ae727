/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Command h1demo wires h1engine.Server up to a TCP listener, a zap
// production logger, and a Prometheus registry exposed over /metrics — a
// minimal demonstration harness, not a framework; request routing,
// middleware, and configuration surfaces are explicitly out of this
// engine's scope.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"net/http"

	h1engine "github.com/badu/h1engine"
	"github.com/badu/h1engine/internal/hdr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8080", "address to listen on")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("h1demo: building logger: %v", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		logger.Info("metrics listening", zap.String("addr", *metricsAddr))
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()

	handler := h1engine.HandlerFunc(func(ctx context.Context, req *h1engine.Request) (*h1engine.Response, error) {
		resp := h1engine.NewResponse(200)
		resp.Header.Set(hdr.ContentType, "text/plain; charset=utf-8")
		body := []byte("hello from h1engine\n")
		resp.Kind = h1engine.BodySized
		resp.Len = int64(len(body))
		resp.Body = bytes.NewReader(body)
		return resp, nil
	})

	srv := h1engine.NewServer(handler, h1engine.DefaultConfig(), logger, reg)

	ln, err := h1engine.Listen(*addr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("h1demo listening", zap.String("addr", *addr))

	if err := srv.Serve(context.Background(), ln); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
