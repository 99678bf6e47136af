// ABOUTME: Tests for the in-memory MockStore
// ABOUTME: Keeps the mock's behaviour in line with SQLiteStore

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_Users(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	u, err := m.CreateUser(ctx, "a@example.com", "h")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = m.CreateUser(ctx, "a@example.com", "h")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := m.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.GetUser(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_AuditErr(t *testing.T) {
	m := NewMockStore()
	m.AuditErr = errors.New("disk full")

	err := m.AppendChatAudit(context.Background(), &ChatAuditRecord{Channel: "Web"})
	assert.EqualError(t, err, "disk full")

	got, err := m.ListChatAudit(context.Background(), ChatAuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMockStore_AuditNewestFirst(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.AppendChatAudit(ctx, &ChatAuditRecord{RequestID: "1", Channel: "Web"}))
	require.NoError(t, m.AppendChatAudit(ctx, &ChatAuditRecord{RequestID: "2", Channel: "Bot"}))

	got, err := m.ListChatAudit(ctx, ChatAuditFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].RequestID)

	web := "Web"
	got, err = m.ListChatAudit(ctx, ChatAuditFilter{Channel: &web})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
}

func TestMockStore_GetOrCreateBotThread(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	bt, created, err := m.GetOrCreateBotThread(ctx, "7", "thread-a")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "thread-a", bt.ThreadID)

	bt, created, err = m.GetOrCreateBotThread(ctx, "7", "thread-b")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "thread-a", bt.ThreadID)
}
