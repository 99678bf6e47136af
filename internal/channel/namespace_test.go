// ABOUTME: Tests for thread key construction and parsing
// ABOUTME: Covers ordering, determinism, cross-channel collision freedom and escaping

package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadKey_Format(t *testing.T) {
	tests := []struct {
		name     string
		ident    Identity
		fragment string
		want     string
	}{
		{"public", AuthenticatedUser{UserID: 7}, "t1", "Public/7(t1)"},
		{"web", WebSession{SessionID: "abc123"}, "t1", "Web/abc123(t1)"},
		{"bot", BotChat{ChatID: "-10042"}, "main", "Bot/-10042(main)"},
		{"empty fragment", BotChat{ChatID: "42"}, "", "Bot/42()"},
		{"spaces kept", WebSession{SessionID: "s"}, "my thread", "Web/s(my thread)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThreadKey(tt.ident, tt.fragment))
		})
	}
}

func TestThreadKey_Deterministic(t *testing.T) {
	ident := WebSession{SessionID: "session-1"}
	assert.Equal(t, ThreadKey(ident, "x"), ThreadKey(ident, "x"))
}

func TestThreadKey_DistinctChannelsSameScope(t *testing.T) {
	keys := map[string]bool{
		ThreadKey(AuthenticatedUser{UserID: 1}, "x"): true,
		ThreadKey(WebSession{SessionID: "1"}, "x"):   true,
		ThreadKey(BotChat{ChatID: "1"}, "x"):         true,
	}
	assert.Len(t, keys, 3)
}

func TestThreadKey_DistinctScopesSameChannel(t *testing.T) {
	assert.NotEqual(t,
		ThreadKey(BotChat{ChatID: "1"}, "x"),
		ThreadKey(BotChat{ChatID: "2"}, "x"),
	)
}

func TestThreadKey_FragmentCannotForgeNamespace(t *testing.T) {
	// Delimiters inside a scope or fragment must not let two inputs share a key.
	pairs := []struct {
		a, b         Identity
		fragA, fragB string
	}{
		{BotChat{ChatID: "1"}, BotChat{ChatID: "1(a"}, "a)(b", "b"},
		{WebSession{SessionID: "a/b"}, WebSession{SessionID: "a"}, "x", "x"},
		{BotChat{ChatID: "1"}, BotChat{ChatID: "1"}, "x%29", "x)"},
		{BotChat{ChatID: "1(x)"}, BotChat{ChatID: "1"}, "", "x)("},
	}

	for _, p := range pairs {
		ka := ThreadKey(p.a, p.fragA)
		kb := ThreadKey(p.b, p.fragB)
		assert.NotEqual(t, ka, kb, "keys collided: %s", ka)
	}
}

func TestThreadKey_EscapesDelimiters(t *testing.T) {
	key := ThreadKey(WebSession{SessionID: "a/b"}, "(x)%")
	assert.Equal(t, "Web/a%2Fb(%28x%29%25)", key)
}

func TestParseThreadKey_RoundTrip(t *testing.T) {
	inputs := []struct {
		ident    Identity
		fragment string
	}{
		{AuthenticatedUser{UserID: 7}, "t1"},
		{WebSession{SessionID: "a/b(c)%"}, "f/r(a)g%2F"},
		{BotChat{ChatID: "%25"}, ""},
	}

	for _, in := range inputs {
		key := ThreadKey(in.ident, in.fragment)
		tag, scope, fragment, err := ParseThreadKey(key)
		require.NoError(t, err, key)
		assert.Equal(t, in.ident.Tag(), tag)
		assert.Equal(t, in.ident.Scope(), scope)
		assert.Equal(t, in.fragment, fragment)
	}
}

func TestParseThreadKey_Malformed(t *testing.T) {
	for _, key := range []string{
		"",
		"Public",
		"Fax/1(x)",
		"Bot/1(x",
		"Bot/1x)",
		"Bot/1(x)y)",
		"Web/a/b(x)",
	} {
		_, _, _, err := ParseThreadKey(key)
		assert.ErrorIs(t, err, ErrMalformedThreadKey, key)
	}
}
