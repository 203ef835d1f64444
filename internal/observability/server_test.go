// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", ready)
	_, err := server.Start()
	require.NoError(t, err, "failed to start server")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func get(t *testing.T, server *Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get("http://" + server.Addr() + path)
	require.NoError(t, err, "failed to GET %s", path)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startServer(t, nil)

	status, body := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "# TYPE")
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "process_")
}

func TestServer_RecorderCounters(t *testing.T) {
	server := startServer(t, nil)

	m := server.Metrics()
	m.AuthAttempt("relational", "success")
	m.AuthAttempt("relational", "success")
	m.AuthAttempt("", "failure")
	m.Lookup("get_user_by_name", "directory", "success")
	m.DirectoryBind("failure")

	_, body := get(t, server, "/metrics")
	assert.Contains(t, body, `hybridid_auth_attempts_total{outcome="success",source="relational"} 2`)
	assert.Contains(t, body, `hybridid_auth_attempts_total{outcome="failure",source="none"} 1`)
	assert.Contains(t, body, `hybridid_lookups_total{operation="get_user_by_name",outcome="success",source="directory"} 1`)
	assert.Contains(t, body, `hybridid_directory_binds_total{outcome="failure"} 1`)
}

func TestServer_LivenessReturns200(t *testing.T) {
	server := startServer(t, func(context.Context) bool { return false })

	status, body := get(t, server, "/healthz/liveness")
	assert.Equal(t, http.StatusOK, status, "liveness ignores readiness")
	assert.Equal(t, "ok", strings.TrimSpace(body))
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		ready  ReadinessChecker
		status int
		body   string
	}{
		{"ready", func(context.Context) bool { return true }, http.StatusOK, "ok"},
		{"not ready", func(context.Context) bool { return false }, http.StatusServiceUnavailable, "not ready"},
		{"nil checker", nil, http.StatusOK, "ok"},
		{
			"checker receives a deadline",
			func(ctx context.Context) bool {
				_, ok := ctx.Deadline()
				return ok
			},
			http.StatusOK, "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, tt.ready)
			status, body := get(t, server, "/healthz/readiness")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, strings.TrimSpace(body))
		})
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)

	_, err := server.Start()
	assert.Error(t, err, "expected error on double start")
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Stop(ctx), "stop without start should not error")
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	// closing the listener makes Serve fail
	_ = server.listener.Close()

	select {
	case serveErr := <-errCh:
		assert.Error(t, serveErr)
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for error on error channel")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Stop(ctx)
}

func TestServer_ErrorChannelClosesOnNormalShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	errCh, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for error channel to close")
	}
}

func TestServer_Registerer(t *testing.T) {
	server := startServer(t, nil)

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "hybridid_test_total", Help: "test"})
	require.NoError(t, server.Registerer().Register(c))
	c.Inc()

	_, body := get(t, server, "/metrics")
	assert.Contains(t, body, "hybridid_test_total 1")
}
