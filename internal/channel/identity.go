// ABOUTME: Channel identities and the resolver that derives them from transport proofs
// ABOUTME: Bearer tokens, session cookies and bot chat ids each map to one Identity variant

package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/2389/rag-gateway/internal/auth"
	"github.com/2389/rag-gateway/internal/store"
)

// Tag names the channel a request arrived on. It prefixes thread keys and
// labels audit records.
type Tag string

const (
	TagPublic Tag = "Public"
	TagWeb    Tag = "Web"
	TagBot    Tag = "Bot"
)

// ParseTag returns the Tag named by s, ignoring case.
func ParseTag(s string) (Tag, error) {
	for _, t := range []Tag{TagPublic, TagWeb, TagBot} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Identity is the resolved caller of a chat request. The set of
// implementations is closed: AuthenticatedUser, WebSession and BotChat.
type Identity interface {
	// Tag is the channel this identity belongs to.
	Tag() Tag
	// Scope is the channel-specific identity value used to namespace threads.
	Scope() string

	sealed()
}

// AuthenticatedUser is a public API caller holding a valid bearer token.
type AuthenticatedUser struct {
	UserID int64
}

func (AuthenticatedUser) Tag() Tag        { return TagPublic }
func (u AuthenticatedUser) Scope() string { return strconv.FormatInt(u.UserID, 10) }
func (AuthenticatedUser) sealed()         {}

// WebSession is a browser caller identified only by its session cookie.
type WebSession struct {
	SessionID string
}

func (WebSession) Tag() Tag        { return TagWeb }
func (s WebSession) Scope() string { return s.SessionID }
func (WebSession) sealed()         {}

// BotChat is a bot frontend relaying messages from an external chat.
type BotChat struct {
	ChatID string
}

func (BotChat) Tag() Tag        { return TagBot }
func (c BotChat) Scope() string { return c.ChatID }
func (BotChat) sealed()         {}

// Failure classes. Every error returned by Resolve wraps exactly one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
)

// ResolveError carries a short machine-readable reason alongside its failure class.
type ResolveError struct {
	Kind   error
	Reason string
}

func (e *ResolveError) Error() string { return e.Reason }
func (e *ResolveError) Unwrap() error { return e.Kind }

func failure(kind error, reason string) error {
	return &ResolveError{Kind: kind, Reason: reason}
}

// Proof is the raw, channel-specific credential presented with a request.
type Proof struct {
	Channel Tag
	Value   string
}

// BearerProof wraps the raw Authorization header of a public API request.
func BearerProof(authHeader string) Proof { return Proof{Channel: TagPublic, Value: authHeader} }

// CookieProof wraps the value of the session cookie.
func CookieProof(sessionID string) Proof { return Proof{Channel: TagWeb, Value: sessionID} }

// ChatProof wraps an external chat id supplied by a bot frontend.
func ChatProof(chatID string) Proof { return Proof{Channel: TagBot, Value: chatID} }

// UserLookup is the slice of the credential store the resolver needs.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

// Resolver maps proofs to identities. It holds no per-request state.
type Resolver struct {
	tokens auth.TokenVerifier
	users  UserLookup
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given token verifier and user lookup.
func NewResolver(tokens auth.TokenVerifier, users UserLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tokens: tokens,
		users:  users,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve derives the caller's identity from proof. It has no side effects.
func (r *Resolver) Resolve(ctx context.Context, proof Proof) (Identity, error) {
	switch proof.Channel {
	case TagPublic:
		return r.resolveBearer(ctx, proof.Value)
	case TagWeb:
		if proof.Value == "" {
			return nil, failure(ErrBadRequest, "missing session cookie")
		}
		return WebSession{SessionID: proof.Value}, nil
	case TagBot:
		if proof.Value == "" {
			return nil, failure(ErrBadRequest, "missing chat_id")
		}
		return BotChat{ChatID: proof.Value}, nil
	default:
		return nil, failure(ErrBadRequest, "unknown channel")
	}
}

func (r *Resolver) resolveBearer(ctx context.Context, authHeader string) (Identity, error) {
	token, errMsg := auth.ExtractBearerToken(authHeader)
	if errMsg != "" {
		return nil, failure(ErrUnauthorized, errMsg)
	}

	email, err := r.tokens.Verify(token)
	switch {
	case errors.Is(err, auth.ErrMissingClaim):
		return nil, failure(ErrBadRequest, "invalid token payload")
	case errors.Is(err, auth.ErrExpiredToken):
		return nil, failure(ErrUnauthorized, "token expired")
	case err != nil:
		r.logger.Debug("rejected bearer token", "error", err)
		return nil, failure(ErrUnauthorized, "invalid token")
	}

	user, err := r.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, failure(ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up token subject: %w", err)
	}

	return AuthenticatedUser{UserID: user.ID}, nil
}
