// ABOUTME: Store interfaces and data types for rag-gateway persistence
// ABOUTME: Defines users, chat audit records, and bot thread mappings

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when registering an email that already has a user
var ErrEmailTaken = errors.New("email already registered")

// User is a credential-store record. Email is the login identifier; ID is the
// stable internal identifier the rest of the system refers to.
type User struct {
	ID           int64
	Email        string
	PasswordHash string // bcrypt
	CreatedAt    time.Time
}

// ChatAuditRecord is one completed question/answer exchange.
// Exactly one of UserID, ChatID, SessionID is set, matching Channel.
type ChatAuditRecord struct {
	ID        string // UUID v4, generated on append if empty
	RequestID string
	Channel   string // "Public", "Web", "Bot"
	ThreadKey string
	Question  string
	Answer    string
	UserID    *int64
	ChatID    *string
	SessionID *string
	Timestamp time.Time
}

// ChatAuditFilter specifies filtering options for listing chat audit records.
type ChatAuditFilter struct {
	Channel   *string
	ThreadKey *string
	Limit     int // default 100, max 1000
}

// BotThread maps an external bot chat to the thread fragment it currently uses.
type BotThread struct {
	ChatID    string
	ThreadID  string
	UpdatedAt time.Time
}

// UserStore is the credential store used by registration, login and the identity resolver.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// ChatAuditStore is the append side of the chat audit log plus an operator read path.
type ChatAuditStore interface {
	AppendChatAudit(ctx context.Context, rec *ChatAuditRecord) error
	ListChatAudit(ctx context.Context, f ChatAuditFilter) ([]ChatAuditRecord, error)
}

// BotThreadStore persists the chat id to thread id mapping kept by bot frontends.
type BotThreadStore interface {
	GetBotThread(ctx context.Context, chatID string) (*BotThread, error)
	SetBotThread(ctx context.Context, chatID, threadID string) error
	// GetOrCreateBotThread returns the chat's thread, assigning threadID only if
	// the chat has none yet. created reports whether threadID was stored.
	GetOrCreateBotThread(ctx context.Context, chatID, threadID string) (bt *BotThread, created bool, err error)
}

// Store is everything the gateway process needs from persistence.
type Store interface {
	UserStore
	ChatAuditStore
	BotThreadStore

	// Close releases any resources held by the store
	Close() error
}
