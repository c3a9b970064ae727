/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package h1engine

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/badu/h1engine/internal/iotest"
	"github.com/stretchr/testify/require"
)

func echoHandler() Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		resp := NewResponse(200)
		resp.Kind = BodySized
		resp.Len = int64(len(body))
		resp.Body = bytes.NewReader(body)
		return resp, nil
	})
}

func runDispatcher(t *testing.T, handler Handler, cfg Config) (server, client *iotest.Conn) {
	t.Helper()
	server, client = iotest.NewPair()
	d := New(server, handler, cfg, nil, nil, newDateSource())
	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()
	t.Cleanup(func() {
		client.Close()
		<-done
	})
	return server, client
}

func TestDispatcherPipelinedGET(t *testing.T) {
	_, client := runDispatcher(t, echoHandler(), DefaultConfig())

	req := "GET / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\n\r\n"
	_, err := client.Write([]byte(req + req))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	for i := 0; i < 2; i++ {
		status, err := r.ReadString('\n')
		require.NoError(t, err)
		require.Truef(t, strings.HasPrefix(status, "HTTP/1.1 200"), "status line %d = %q", i, status)
		_, err = readHeaderMap(r)
		require.NoError(t, err)
	}
}

func TestDispatcherChunkedPOSTEcho(t *testing.T) {
	_, client := runDispatcher(t, echoHandler(), DefaultConfig())

	req := "POST /echo HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\n\r\n"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	status, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(status, "HTTP/1.1 200"))

	headers, err := readHeaderMap(r)
	require.NoError(t, err)
	require.Equal(t, "5", headers["Content-Length"])

	got := make([]byte, 5)
	_, err = io.ReadFull(r, got)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestDispatcherExpectContinue(t *testing.T) {
	_, client := runDispatcher(t, echoHandler(), DefaultConfig())

	req := "POST /echo HTTP/1.1\r\nHost: x\r\nContent-Length: 2\r\nExpect: 100-continue\r\n\r\n"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	continueLine, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(continueLine, "HTTP/1.1 100 Continue"))

	_, err = r.ReadString('\n') // blank line after 100 Continue
	require.NoError(t, err)

	_, err = client.Write([]byte("hi"))
	require.NoError(t, err)

	status, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(status, "HTTP/1.1 200"))
}

func TestDispatcherConnectionCloseAfterRequest(t *testing.T) {
	_, client := runDispatcher(t, echoHandler(), DefaultConfig())

	req := "GET / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	status, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(status, "HTTP/1.1 200"))

	headers, err := readHeaderMap(r)
	require.NoError(t, err)
	require.Equal(t, "close", headers["Connection"])

	_, err = r.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestDispatcherHeaderTooLargeReturns431(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHeaderCount = 1
	_, client := runDispatcher(t, echoHandler(), cfg)

	req := "GET / HTTP/1.1\r\nHost: x\r\nX-A: 1\r\nX-B: 2\r\n\r\n"
	_, err := client.Write([]byte(req))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	status, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(status, "HTTP/1.1 431"))
}

func TestDispatcherPartialHeadTimeoutReturns408(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestHeadTimeout = 50 * time.Millisecond
	_, client := runDispatcher(t, echoHandler(), cfg)

	_, err := client.Write([]byte("GET / HTTP/1.1\r\n"))
	require.NoError(t, err)

	r := bufio.NewReader(client)
	status, err := r.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(status, "HTTP/1.1 408"))
}

func TestDispatcherKeepAliveIdleClose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeepAliveTimeout = 50 * time.Millisecond
	_, client := runDispatcher(t, echoHandler(), cfg)

	buf := make([]byte, 1)
	n, err := client.Read(buf)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func readHeaderMap(r *bufio.Reader) (map[string]string, error) {
	headers := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return headers, nil
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		headers[strings.TrimSpace(line[:i])] = strings.TrimSpace(line[i+1:])
	}
}
