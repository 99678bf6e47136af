// ABOUTME: Bot thread mapping store methods
// ABOUTME: Remembers which thread fragment a bot chat is currently talking in

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetBotThread returns the current thread for a bot chat. Returns ErrNotFound
// if the chat has never been assigned one.
func (s *SQLiteStore) GetBotThread(ctx context.Context, chatID string) (*BotThread, error) {
	var bt BotThread
	var updatedAtStr string

	err := s.db.QueryRowContext(ctx, `
		SELECT chat_id, thread_id, updated_at
		FROM bot_threads
		WHERE chat_id = ?
	`, chatID).Scan(&bt.ChatID, &bt.ThreadID, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying bot thread: %w", err)
	}

	bt.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &bt, nil
}

// SetBotThread creates or replaces the thread mapping for a bot chat.
func (s *SQLiteStore) SetBotThread(ctx context.Context, chatID, threadID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_threads (chat_id, thread_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			thread_id = excluded.thread_id,
			updated_at = excluded.updated_at
	`, chatID, threadID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting bot thread: %w", err)
	}

	s.logger.Debug("set bot thread", "chat_id", chatID, "thread_id", threadID)
	return nil
}

// GetOrCreateBotThread assigns threadID to a chat that has no thread yet and
// returns whichever mapping is stored afterwards. Concurrent first contacts for
// one chat all see the same thread.
func (s *SQLiteStore) GetOrCreateBotThread(ctx context.Context, chatID, threadID string) (*BotThread, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_threads (chat_id, thread_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO NOTHING
	`, chatID, threadID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, false, fmt.Errorf("inserting bot thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("checking inserted bot thread: %w", err)
	}

	bt, err := s.GetBotThread(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	return bt, n == 1, nil
}
