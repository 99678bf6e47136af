// ABOUTME: Best-effort audit recorder that fans one chat exchange out to every sink
// ABOUTME: Sink failures and timeouts are logged and never reach the caller

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/rag-gateway/internal/backend"
	"github.com/2389/rag-gateway/internal/channel"
)

// Record is one completed question/answer exchange. Exactly one of UserID,
// ChatID and SessionID is set, matching Channel.
type Record struct {
	RequestID string    `json:"request_id"`
	Channel   string    `json:"channel"`
	ThreadKey string    `json:"thread_key"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	UserID    *int64    `json:"user_id"`
	ChatID    *string   `json:"chat_id"`
	SessionID *string   `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink persists audit records.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec Record) error
}

// Recorder writes each exchange to all configured sinks concurrently.
type Recorder struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
}

// NewRecorder creates a Recorder. timeout bounds each sink write independently;
// zero means no per-sink deadline.
func NewRecorder(logger *slog.Logger, timeout time.Duration, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger.With("component", "audit"),
	}
}

// Sinks returns the configured sinks in write order.
func (r *Recorder) Sinks() []Sink {
	return append([]Sink(nil), r.sinks...)
}

// NewRecord builds the audit record for a normalized request and its answer.
func NewRecord(req backend.Request, ans backend.Answer, ident channel.Identity) Record {
	rec := Record{
		RequestID: req.ID,
		Channel:   string(ident.Tag()),
		ThreadKey: req.ThreadKey,
		Question:  req.Question,
		Answer:    ans.Answer,
		Timestamp: time.Now().UTC(),
	}

	switch id := ident.(type) {
	case channel.AuthenticatedUser:
		userID := id.UserID
		rec.UserID = &userID
	case channel.WebSession:
		sessionID := id.SessionID
		rec.SessionID = &sessionID
	case channel.BotChat:
		chatID := id.ChatID
		rec.ChatID = &chatID
	}
	return rec
}

// Record writes the exchange to every sink and returns once all have finished
// or timed out. Cancellation of ctx does not abort the writes.
func (r *Recorder) Record(ctx context.Context, req backend.Request, ans backend.Answer, ident channel.Identity) {
	rec := NewRecord(req, ans, ident)
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, sink := range r.sinks {
		wg.Add(1)
		go func(sink Sink) {
			defer wg.Done()
			r.write(base, sink, rec)
		}(sink)
	}
	wg.Wait()
}

func (r *Recorder) write(ctx context.Context, sink Sink, rec Record) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// A sink that ignores ctx is abandoned at the deadline
	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("panic: %v", p)
			}
		}()
		done <- sink.Write(ctx, rec)
	}()

	if err := awaitWrite(ctx, done); err != nil {
		r.logger.Error("audit write failed",
			"sink", sink.Name(),
			"request_id", rec.RequestID,
			"thread", rec.ThreadKey,
			"error", err,
		)
		return
	}
	r.logger.Debug("audit written", "sink", sink.Name(), "request_id", rec.RequestID)
}

// awaitWrite waits for a sink result or the deadline. A result that is already
// available when the deadline fires wins.
func awaitWrite(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case err := <-done:
			return err
		default:
			return ctx.Err()
		}
	}
}
