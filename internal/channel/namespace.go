// ABOUTME: Thread key construction from a channel identity and a client thread fragment
// ABOUTME: Keys have the shape Tag/Scope(Fragment) with delimiters escaped inside values

package channel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedThreadKey is returned by ParseThreadKey for strings ThreadKey cannot produce.
var ErrMalformedThreadKey = errors.New("malformed thread key")

// escaper percent-encodes the key delimiters and the escape character itself.
var escaper = strings.NewReplacer(
	"%", "%25",
	"/", "%2F",
	"(", "%28",
	")", "%29",
)

var unescaper = strings.NewReplacer(
	"%2F", "/",
	"%28", "(",
	"%29", ")",
	"%25", "%",
)

// ThreadKey returns the namespaced conversation key for ident and fragment.
//
// Values free of "%", "/", "(" and ")" appear verbatim, so user 7 with
// fragment "t1" yields "Public/7(t1)". Otherwise those characters are
// percent-encoded, which keeps distinct inputs on distinct keys.
func ThreadKey(ident Identity, fragment string) string {
	var b strings.Builder
	b.WriteString(string(ident.Tag()))
	b.WriteByte('/')
	b.WriteString(escaper.Replace(ident.Scope()))
	b.WriteByte('(')
	b.WriteString(escaper.Replace(fragment))
	b.WriteByte(')')
	return b.String()
}

// ParseThreadKey splits a key produced by ThreadKey back into its parts.
func ParseThreadKey(key string) (Tag, string, string, error) {
	tag, rest, ok := strings.Cut(key, "/")
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedThreadKey, key)
	}
	switch Tag(tag) {
	case TagPublic, TagWeb, TagBot:
	default:
		return "", "", "", fmt.Errorf("%w: unknown tag %q", ErrMalformedThreadKey, tag)
	}

	scope, rest, ok := strings.Cut(rest, "(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedThreadKey, key)
	}
	fragment := strings.TrimSuffix(rest, ")")
	if strings.ContainsAny(scope, "/()") || strings.ContainsAny(fragment, "/()") {
		return "", "", "", fmt.Errorf("%w: unescaped delimiter in %q", ErrMalformedThreadKey, key)
	}

	return Tag(tag), unescaper.Replace(scope), unescaper.Replace(fragment), nil
}
