// ABOUTME: Gateway orchestrator that wires the store, resolver, backend and audit recorder
// ABOUTME: Owns the HTTP server lifecycle, optionally listening on a Tailscale node

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/rag-gateway/internal/audit"
	"github.com/2389/rag-gateway/internal/auth"
	"github.com/2389/rag-gateway/internal/backend"
	"github.com/2389/rag-gateway/internal/channel"
	"github.com/2389/rag-gateway/internal/config"
	"github.com/2389/rag-gateway/internal/store"
)

// Gateway serves the chat channels and the account endpoints.
type Gateway struct {
	config      *config.Config
	store       *store.SQLiteStore
	tokens      *auth.JWT
	resolver    *channel.Resolver
	backend     *backend.Adapter
	recorder    *audit.Recorder
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// answerBackend overrides the configured backend when set
	answerBackend backend.Backend

	// extraSinks are appended after the built-in audit sinks
	extraSinks []audit.Sink
}

// Option customises a Gateway at construction.
type Option func(*Gateway)

// WithBackend replaces the backend selected by config.
func WithBackend(b backend.Backend) Option {
	return func(g *Gateway) { g.answerBackend = b }
}

// WithAuditSinks adds audit sinks alongside the SQLite and file sinks.
func WithAuditSinks(sinks ...audit.Sink) Option {
	return func(g *Gateway) { g.extraSinks = append(g.extraSinks, sinks...) }
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		config: cfg,
		logger: logger.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(gw)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	gw.store = s

	if err := gw.init(cfg, logger); err != nil {
		_ = s.Close()
		return nil, err
	}
	return gw, nil
}

func (g *Gateway) init(cfg *config.Config, logger *slog.Logger) error {
	tokens, err := auth.NewJWT([]byte(cfg.Auth.SecretKey), cfg.Auth.Algorithm, cfg.Auth.TokenTTL())
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}
	g.tokens = tokens
	if cfg.UsesDefaultSecret() {
		g.logger.Warn("auth.secret_key is the built-in default; set SECRET_KEY before exposing the gateway")
	}

	if g.answerBackend == nil {
		g.answerBackend, err = backend.FromConfig(cfg.Backend)
		if err != nil {
			return fmt.Errorf("creating backend: %w", err)
		}
	}
	g.backend = backend.NewAdapter(g.answerBackend, cfg.Backend.Timeout, logger)
	g.logger.Info("answer backend ready", "kind", cfg.Backend.Kind, "timeout", cfg.Backend.Timeout)

	sinks := []audit.Sink{audit.NewStoreSink(g.store)}
	if cfg.Audit.FilePath != "" {
		fileSink, err := audit.NewFileSink(cfg.Audit.FilePath)
		if err != nil {
			return fmt.Errorf("creating audit file sink: %w", err)
		}
		sinks = append(sinks, fileSink)
		g.logger.Info("audit file sink enabled", "path", cfg.Audit.FilePath)
	}
	sinks = append(sinks, g.extraSinks...)
	g.recorder = audit.NewRecorder(logger, cfg.Audit.SinkTimeout, sinks...)

	g.resolver = channel.NewResolver(tokens, g.store, logger)

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Store returns the gateway's store.
func (g *Gateway) Store() *store.SQLiteStore {
	return g.store
}

// setupListener creates the HTTP listener based on configuration (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", g.config.Server.HTTPAddr)
		}
		return g.setupTailscaleListener(ctx)
	}

	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// Run starts the gateway and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}

	errCh := g.startServer(ln)

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The Run context is already canceled by the time this is called.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "rag-gateway", "tailscale"), nil
}

// setupTailscaleListener joins the tailnet and listens on :80 of the node.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}
	if tsCfg.AuthKey == "" {
		return nil, errors.New("tailscale auth key required: set tailscale.auth_key or TS_AUTHKEY")
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   tsCfg.AuthKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailscaleStatus(tsCfg.Hostname, status)

	ln, err := g.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", g.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}
