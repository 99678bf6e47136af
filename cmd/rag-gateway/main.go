// ABOUTME: Entry point for the rag-gateway server and its operator commands
// ABOUTME: serve runs the HTTP gateway; health, token and audit are maintenance helpers

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/rag-gateway/internal/auth"
	"github.com/2389/rag-gateway/internal/channel"
	"github.com/2389/rag-gateway/internal/config"
	"github.com/2389/rag-gateway/internal/gateway"
	"github.com/2389/rag-gateway/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                    _
 _ __ __ _  __ _        __ _  __ _| |_ _____      ____ _ _   _
| '__/ _' |/ _' |_____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| | | (_| | (_| |_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|_|  \__,_|\__, |      \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
           |___/       |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: RAG_GATEWAY_CONFIG env var > XDG_CONFIG_HOME/rag-gateway/gateway.yaml > ~/.config/rag-gateway/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("RAG_GATEWAY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "rag-gateway", "gateway.yaml")
}

func usage() {
	fmt.Println("Usage: rag-gateway <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                  Start the gateway server")
	fmt.Println("  health                 Check gateway health")
	fmt.Println("  token --email EMAIL    Mint a bearer token for an existing user")
	fmt.Println("  audit [--limit N] [--channel Public|Web|Bot] [--thread KEY]")
	fmt.Println("                         Print recent chat audit records")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "token":
		err = runToken(ctx, os.Args[2:])
	case "audit":
		err = runAudit(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then the YAML config if present, then env overrides.
func loadConfig() (*config.Config, string, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	configPath := getConfigPath()
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Backend:   %s\n", cfg.Backend.Kind)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}
	if cfg.Audit.FilePath != "" {
		green.Print("    ▶ ")
		fmt.Printf("Audit log: %s\n", cfg.Audit.FilePath)
	}
	if cfg.UsesDefaultSecret() {
		yellow.Println("    ! auth.secret_key is the default value")
	}
	fmt.Println()

	logger.Info("starting rag-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"backend", cfg.Backend.Kind,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// parseFlags reads "--name value" and "--name=value" pairs for the allowed
// names. Unknown flags and positional arguments are errors.
func parseFlags(args []string, allowed ...string) (map[string]string, error) {
	values := make(map[string]string)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !slices.Contains(allowed, name) {
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--%s requires a value", name)
			}
			value = args[i+1]
			i++
		}
		values[name] = value
	}
	return values, nil
}

// runToken mints a token for an existing user without a password round trip.
func runToken(ctx context.Context, args []string) error {
	flags, err := parseFlags(args, "email")
	if err != nil {
		return err
	}
	email := strings.TrimSpace(flags["email"])
	if email == "" {
		return errors.New("--email flag is required")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path, commandLogger())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user, err := s.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no user registered as %s", email)
	}
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}

	tokens, err := auth.NewJWT([]byte(cfg.Auth.SecretKey), cfg.Auth.Algorithm, cfg.Auth.TokenTTL())
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}
	token, err := tokens.Issue(user.Email)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	fmt.Println(token)
	return nil
}

// auditFilter builds the audit query from --limit, --channel and --thread.
func auditFilter(args []string) (store.ChatAuditFilter, error) {
	flags, err := parseFlags(args, "limit", "channel", "thread")
	if err != nil {
		return store.ChatAuditFilter{}, err
	}

	f := store.ChatAuditFilter{Limit: 20}
	if raw, ok := flags["limit"]; ok {
		f.Limit, err = strconv.Atoi(raw)
		if err != nil || f.Limit <= 0 {
			return store.ChatAuditFilter{}, fmt.Errorf("--limit must be a positive integer")
		}
	}
	if raw, ok := flags["channel"]; ok {
		tag, err := channel.ParseTag(raw)
		if err != nil {
			return store.ChatAuditFilter{}, fmt.Errorf("--channel: %w", err)
		}
		name := string(tag)
		f.Channel = &name
	}
	if raw, ok := flags["thread"]; ok {
		if raw == "" {
			return store.ChatAuditFilter{}, fmt.Errorf("--thread must not be empty")
		}
		f.ThreadKey = &raw
	}
	return f, nil
}

// runAudit prints the newest audit records.
func runAudit(ctx context.Context, args []string) error {
	filter, err := auditFilter(args)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path, commandLogger())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	records, err := s.ListChatAudit(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing audit records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no audit records")
		return nil
	}

	cyan := color.New(color.FgCyan)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	cyan.Fprintln(w, "TIME\tCHANNEL\tTHREAD\tREQUEST\tQUESTION\tANSWER")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Channel,
			r.ThreadKey,
			r.RequestID,
			truncate(r.Question, 40),
			truncate(r.Answer, 60),
		)
	}
	return w.Flush()
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
