// ABOUTME: Tests for gateway construction, lifecycle and health endpoints
// ABOUTME: Uses a temp-dir SQLite database and the stub backend

package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/rag-gateway/internal/audit"
	"github.com/2389/rag-gateway/internal/backend"
	"github.com/2389/rag-gateway/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Database.Path = filepath.Join(t.TempDir(), "gateway.db")
	cfg.Auth.SecretKey = "gateway-test-secret"
	cfg.Backend.Timeout = time.Second
	cfg.Audit.SinkTimeout = time.Second
	return cfg
}

func newTestGateway(t *testing.T, opts ...Option) *Gateway {
	t.Helper()
	gw, err := New(testConfig(t), testLogger(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.store.Close() })
	return gw
}

// scriptedBackend answers or fails on demand and remembers every request.
type scriptedBackend struct {
	mu    sync.Mutex
	reqs  []backend.Request
	err   error
	delay time.Duration
}

func (b *scriptedBackend) Answer(ctx context.Context, req backend.Request) (backend.Answer, error) {
	b.mu.Lock()
	b.reqs = append(b.reqs, req)
	err, delay := b.err, b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return backend.Answer{}, ctx.Err()
		}
	}
	if err != nil {
		return backend.Answer{}, err
	}
	return backend.Answer{ID: req.ID, Answer: "answer to " + req.Question}, nil
}

func (b *scriptedBackend) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *scriptedBackend) requests() []backend.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.Request(nil), b.reqs...)
}

func TestNew_RejectsBadAlgorithm(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Algorithm = "RS256"

	_, err := New(cfg, testLogger())
	assert.Error(t, err)
}

func TestNew_AuditFileSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.FilePath = filepath.Join(t.TempDir(), "audit.jsonl")

	gw, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer gw.store.Close()

	assert.Len(t, gw.recorder.Sinks(), 2)
}

func TestNew_ExtraAuditSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.jsonl")
	extra, err := audit.NewFileSink(path)
	require.NoError(t, err)

	gw := newTestGateway(t, WithAuditSinks(extra))
	assert.Len(t, gw.recorder.Sinks(), 2)
}

func TestHealth(t *testing.T) {
	gw := newTestGateway(t)

	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReady(t *testing.T) {
	gw := newTestGateway(t)

	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, gw.store.Close())
	rec = httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRun_ServesUntilCanceled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testConfig(t)
	cfg.Server.HTTPAddr = addr
	gw, err := New(cfg, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestResolveTailscaleStateDir(t *testing.T) {
	dir, err := resolveTailscaleStateDir("/var/lib/ts")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ts", dir)

	t.Setenv("HOME", "/home/tester")
	dir, err = resolveTailscaleStateDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".local", "share", "rag-gateway", "tailscale"), dir)
}

func TestAppendCloseError(t *testing.T) {
	var errs []error
	errs = appendCloseError(errs, "a", nil)
	assert.Empty(t, errs)

	errs = appendCloseError(errs, "b", errors.New("boom"))
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "b: boom")
}
