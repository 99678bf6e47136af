// ABOUTME: Answer backend contract and the adapter the gateway calls through
// ABOUTME: Applies the call timeout and folds every failure into ErrBackendUnavailable

package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrBackendUnavailable is returned when the answer backend fails, times out or
// returns something unusable.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Request is the normalized chat request. It is the only thing a backend sees.
type Request struct {
	ID        string `json:"id"`
	ThreadKey string `json:"thread_id"`
	Question  string `json:"question"`
}

// Answer is what a backend returns for a Request.
type Answer struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// Backend produces an answer for a normalized request.
type Backend interface {
	Answer(ctx context.Context, req Request) (Answer, error)
}

// Adapter wraps a Backend with a timeout and a stable failure contract.
// It does not retry or cache.
type Adapter struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter creates an Adapter. A zero timeout disables the deadline.
func NewAdapter(b Backend, timeout time.Duration, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		backend: b,
		timeout: timeout,
		logger:  logger.With("component", "backend"),
	}
}

// Answer calls the backend. Any error, including a deadline, wraps ErrBackendUnavailable.
func (a *Adapter) Answer(ctx context.Context, req Request) (Answer, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	ans, err := a.backend.Answer(ctx, req)
	if err != nil {
		a.logger.Warn("backend call failed",
			"request_id", req.ID,
			"thread", req.ThreadKey,
			"elapsed", time.Since(start),
			"error", err,
		)
		return Answer{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	a.logger.Debug("backend answered",
		"request_id", req.ID,
		"thread", req.ThreadKey,
		"elapsed", time.Since(start),
	)
	return ans, nil
}
