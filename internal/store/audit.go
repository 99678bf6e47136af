// ABOUTME: Chat audit log store methods, one row per completed exchange
// ABOUTME: Append-only table read back newest first for operators

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppendChatAudit appends a record to the chat audit log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendChatAudit(ctx context.Context, rec *ChatAuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO chat_audit (record_id, request_id, channel, thread_key, question, answer, user_id, chat_id, session_id, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.RequestID,
		rec.Channel,
		rec.ThreadKey,
		rec.Question,
		rec.Answer,
		rec.UserID,
		rec.ChatID,
		rec.SessionID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting chat audit record: %w", err)
	}

	s.logger.Debug("appended chat audit",
		"id", rec.ID,
		"channel", rec.Channel,
		"thread", rec.ThreadKey,
	)
	return nil
}

// normalizeAuditLimit applies default (100) and cap (1000) to audit limit.
func normalizeAuditLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

const chatAuditQuery = `
	SELECT record_id, request_id, channel, thread_key, question, answer, user_id, chat_id, session_id, ts
	FROM chat_audit
	WHERE (? IS NULL OR channel = ?)
	  AND (? IS NULL OR thread_key = ?)
	ORDER BY seq DESC
	LIMIT ?
`

// ListChatAudit returns audit records matching the filter, newest first.
func (s *SQLiteStore) ListChatAudit(ctx context.Context, f ChatAuditFilter) ([]ChatAuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, chatAuditQuery,
		f.Channel, f.Channel,
		f.ThreadKey, f.ThreadKey,
		normalizeAuditLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat audit: %w", err)
	}
	defer rows.Close()

	var records []ChatAuditRecord
	for rows.Next() {
		rec, err := scanChatAudit(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat audit: %w", err)
	}
	return records, nil
}

func scanChatAudit(scanner interface{ Scan(dest ...any) error }) (ChatAuditRecord, error) {
	var rec ChatAuditRecord
	var tsStr string

	if err := scanner.Scan(
		&rec.ID,
		&rec.RequestID,
		&rec.Channel,
		&rec.ThreadKey,
		&rec.Question,
		&rec.Answer,
		&rec.UserID,
		&rec.ChatID,
		&rec.SessionID,
		&tsStr,
	); err != nil {
		return rec, fmt.Errorf("scanning chat audit record: %w", err)
	}

	var err error
	rec.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return rec, fmt.Errorf("parsing timestamp: %w", err)
	}
	return rec, nil
}
