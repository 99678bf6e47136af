// ABOUTME: Tests for rag-telegram config loading and chat filtering
// ABOUTME: Writes TOML files into a temp dir and checks defaults and validation

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telegram.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TEST_TELEGRAM_TOKEN", "123:abc")
	path := writeConfig(t, `
[telegram]
token = "${TEST_TELEGRAM_TOKEN}"

[gateway]
url = "http://localhost:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 60, cfg.Telegram.PollTimeout)
	assert.Equal(t, "rag-telegram.db", cfg.State.Path)
	assert.Empty(t, cfg.Telegram.AllowedChats)
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeConfig(t, `
[gateway]
url = "http://localhost:8080"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "telegram.token is required")
}

func TestLoad_BadGatewayURL(t *testing.T) {
	path := writeConfig(t, `
[telegram]
token = "123:abc"

[gateway]
url = "ftp://localhost"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "http or https")
}

func TestIsChatAllowed(t *testing.T) {
	b := &Bot{config: &Config{}}
	assert.True(t, b.isChatAllowed(42))

	b.config.Telegram.AllowedChats = []int64{7, -100}
	assert.True(t, b.isChatAllowed(-100))
	assert.False(t, b.isChatAllowed(42))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héll...", truncate("héllo world", 4))
}
