// ABOUTME: Tests for rag-gateway command-line helpers
// ABOUTME: Covers flag parsing, audit filters, output truncation and the colour log handler

package main

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	flags, err := parseFlags([]string{"--email", "a@example.com"}, "email")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", flags["email"])

	flags, err = parseFlags([]string{"--limit=5", "--channel", "Bot"}, "limit", "channel")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"limit": "5", "channel": "Bot"}, flags)

	flags, err = parseFlags(nil, "limit")
	require.NoError(t, err)
	assert.Empty(t, flags)

	_, err = parseFlags([]string{"--email"}, "email")
	assert.EqualError(t, err, "--email requires a value")

	_, err = parseFlags([]string{"--name", "x"}, "email")
	assert.EqualError(t, err, "unknown flag: --name")

	_, err = parseFlags([]string{"stray"}, "email")
	assert.EqualError(t, err, "unexpected argument: stray")
}

func TestAuditFilter(t *testing.T) {
	f, err := auditFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, 20, f.Limit)
	assert.Nil(t, f.Channel)
	assert.Nil(t, f.ThreadKey)

	f, err = auditFilter([]string{"--limit", "5", "--channel=bot", "--thread", "Bot/42(t1)"})
	require.NoError(t, err)
	assert.Equal(t, 5, f.Limit)
	require.NotNil(t, f.Channel)
	assert.Equal(t, "Bot", *f.Channel)
	require.NotNil(t, f.ThreadKey)
	assert.Equal(t, "Bot/42(t1)", *f.ThreadKey)

	_, err = auditFilter([]string{"--limit", "0"})
	assert.EqualError(t, err, "--limit must be a positive integer")

	_, err = auditFilter([]string{"--channel", "sms"})
	assert.EqualError(t, err, `--channel: unknown channel "sms"`)

	_, err = auditFilter([]string{"--thread="})
	assert.EqualError(t, err, "--thread must not be empty")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo...", truncate("héllo wörld", 5))
	assert.Equal(t, "a b", truncate("a\nb", 10))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("WARN").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}

func TestColorHandler_GroupsApplyOnlyToLaterAttrs(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevNoColor := color.Output, color.NoColor
	color.Output, color.NoColor = &buf, true
	t.Cleanup(func() { color.Output, color.NoColor = prevOut, prevNoColor })

	logger := slog.New(&colorHandler{mu: &sync.Mutex{}, level: slog.LevelInfo})
	logger.With("a", 1).WithGroup("g").With("b", 2).WithGroup("h").Info("msg", "c", 3)

	out := buf.String()
	assert.Contains(t, out, " a=1")
	assert.Contains(t, out, " g.b=2")
	assert.Contains(t, out, " g.h.c=3")
	assert.NotContains(t, out, "g.a=1")
}
