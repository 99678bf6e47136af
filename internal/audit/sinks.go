// ABOUTME: Audit sinks for the gateway's SQLite store and an append-only JSON-lines file
// ABOUTME: The file sink serialises writers with a mutex and reopens in append mode per record

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/2389/rag-gateway/internal/store"
)

// StoreSink appends records to the chat_audit table.
type StoreSink struct {
	store store.ChatAuditStore
}

// NewStoreSink creates a sink writing to s.
func NewStoreSink(s store.ChatAuditStore) *StoreSink {
	return &StoreSink{store: s}
}

// Name implements Sink.
func (s *StoreSink) Name() string { return "sqlite" }

// Write implements Sink.
func (s *StoreSink) Write(ctx context.Context, rec Record) error {
	return s.store.AppendChatAudit(ctx, &store.ChatAuditRecord{
		RequestID: rec.RequestID,
		Channel:   rec.Channel,
		ThreadKey: rec.ThreadKey,
		Question:  rec.Question,
		Answer:    rec.Answer,
		UserID:    rec.UserID,
		ChatID:    rec.ChatID,
		SessionID: rec.SessionID,
		Timestamp: rec.Timestamp,
	})
}

// FileSink appends one JSON object per line to a file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates the file (and its directory) if needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating audit log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing audit log file: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Name implements Sink.
func (s *FileSink) Name() string { return "file" }

// Write implements Sink.
func (s *FileSink) Write(ctx context.Context, rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("appending audit record: %w", err)
	}
	return f.Close()
}
