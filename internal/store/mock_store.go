// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject write failures

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	users      map[int64]*User     // keyed by user ID
	usersEmail map[string]int64    // keyed by email -> user ID
	audit      []ChatAuditRecord   // insertion order
	botThreads map[string]*BotThread
	nextUserID int64

	// AuditErr, when set, is returned by AppendChatAudit instead of storing.
	AuditErr error
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:      make(map[int64]*User),
		usersEmail: make(map[string]int64),
		botThreads: make(map[string]*BotThread),
		nextUserID: 1,
	}
}

// CreateUser stores a new user, rejecting duplicate emails.
func (m *MockStore) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.usersEmail[email]; ok {
		return nil, ErrEmailTaken
	}

	u := &User{
		ID:           m.nextUserID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.nextUserID++
	m.users[u.ID] = u
	m.usersEmail[email] = u.ID

	result := *u
	return &result, nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *u
	return &result, nil
}

// GetUserByEmail retrieves a user by email.
func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	result := *m.users[id]
	return &result, nil
}

// AppendChatAudit records an audit entry unless AuditErr is set.
func (m *MockStore) AppendChatAudit(ctx context.Context, rec *ChatAuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AuditErr != nil {
		return m.AuditErr
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	m.audit = append(m.audit, *rec)
	return nil
}

// ListChatAudit returns matching records newest first.
func (m *MockStore) ListChatAudit(ctx context.Context, f ChatAuditFilter) ([]ChatAuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := normalizeAuditLimit(f.Limit)
	var out []ChatAuditRecord
	for i := len(m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.audit[i]
		if f.Channel != nil && rec.Channel != *f.Channel {
			continue
		}
		if f.ThreadKey != nil && rec.ThreadKey != *f.ThreadKey {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetBotThread retrieves a bot chat's thread mapping.
func (m *MockStore) GetBotThread(ctx context.Context, chatID string) (*BotThread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bt, ok := m.botThreads[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *bt
	return &result, nil
}

// SetBotThread creates or replaces a bot chat's thread mapping.
func (m *MockStore) SetBotThread(ctx context.Context, chatID, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.botThreads[chatID] = &BotThread{
		ChatID:    chatID,
		ThreadID:  threadID,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// GetOrCreateBotThread stores threadID only if chatID has no mapping yet.
func (m *MockStore) GetOrCreateBotThread(ctx context.Context, chatID, threadID string) (*BotThread, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bt, ok := m.botThreads[chatID]
	if !ok {
		bt = &BotThread{
			ChatID:    chatID,
			ThreadID:  threadID,
			UpdatedAt: time.Now().UTC(),
		}
		m.botThreads[chatID] = bt
	}
	result := *bt
	return &result, !ok, nil
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}
