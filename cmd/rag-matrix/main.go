// ABOUTME: Entry point for the rag-matrix bridge
// ABOUTME: Connects Matrix rooms to the rag-gateway bot channel

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/rag-gateway/internal/botclient"
	"github.com/2389/rag-gateway/internal/store"
)

const banner = `
    ╭──────────────────────────────────╮
    │                                  │
    │          rag-matrix bridge       │
    │                                  │
    ╰──────────────────────────────────╯
`

// getConfigPath returns the path to the matrix bridge config file.
// Priority: RAG_MATRIX_CONFIG env var > XDG_CONFIG_HOME/rag-gateway/matrix.toml > ~/.config/rag-gateway/matrix.toml
func getConfigPath() string {
	if envPath := os.Getenv("RAG_MATRIX_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "matrix.toml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "rag-gateway", "matrix.toml")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	configPath := getConfigPath()

	cfg, err := Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	logger := setupLogger(cfg.Logging.Level)

	timeout, err := cfg.Gateway.TimeoutOrDefault()
	if err != nil {
		return err
	}

	threads, err := store.NewSQLiteStore(cfg.State.Path, logger)
	if err != nil {
		return fmt.Errorf("opening thread store: %w", err)
	}
	defer threads.Close()

	gateway := botclient.NewGatewayClient(cfg.Gateway.URL, &http.Client{Timeout: timeout})
	service := botclient.NewService(threads, gateway, logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("User:       %s\n", cfg.Matrix.UserID)
	green.Print("    ▶ ")
	fmt.Printf("Gateway:    %s\n", cfg.Gateway.URL)
	fmt.Println()

	bridge, err := NewBridge(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting bridge")
	return bridge.Run(ctx)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
