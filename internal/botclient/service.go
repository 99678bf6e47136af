// ABOUTME: Chat-frontend logic shared by the Telegram and Matrix bots
// ABOUTME: Tracks one conversation thread per chat and handles /start and /reset

package botclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/rag-gateway/internal/store"
)

// Replies sent for the built-in commands.
const (
	GreetingText = "Hi! I relay your messages to the RAG API.\n" +
		"Just send any message and I will forward it.\n" +
		"The /reset command starts a new conversation."
	ResetText = "Conversation context has been reset."
)

// Asker sends a question to the gateway's bot channel.
type Asker interface {
	Ask(ctx context.Context, chatID, threadID, question string) (string, error)
}

// Service turns inbound chat text into a reply.
type Service struct {
	threads store.BotThreadStore
	gateway Asker
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(threads store.BotThreadStore, gateway Asker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		threads: threads,
		gateway: gateway,
		logger:  logger.With("component", "botclient"),
	}
}

// HandleText returns the reply for text received in chatID. ok is false when
// there is nothing to send back.
func (s *Service) HandleText(ctx context.Context, chatID, text string) (reply string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	switch command(text) {
	case "start":
		return GreetingText, true
	case "reset":
		if err := s.threads.SetBotThread(ctx, chatID, uuid.New().String()); err != nil {
			s.logger.Error("resetting thread", "chat_id", chatID, "error", err)
			return "Could not reset the conversation, please try again.", true
		}
		return ResetText, true
	}

	threadID, err := s.threadFor(ctx, chatID)
	if err != nil {
		s.logger.Error("loading thread", "chat_id", chatID, "error", err)
		return "Could not load the conversation, please try again.", true
	}

	answer, err := s.gateway.Ask(ctx, chatID, threadID, text)
	if err != nil {
		s.logger.Warn("gateway request failed", "chat_id", chatID, "error", err)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return fmt.Sprintf("HTTP error: %d - %s", statusErr.StatusCode, statusErr.Body), true
		}
		return fmt.Sprintf("Error contacting the API: %v", err), true
	}
	if answer == "" {
		return "", false
	}
	return answer, true
}

// threadFor returns the chat's current thread, creating one on first contact.
// Messages racing on first contact all land on the same thread.
func (s *Service) threadFor(ctx context.Context, chatID string) (string, error) {
	t, created, err := s.threads.GetOrCreateBotThread(ctx, chatID, uuid.New().String())
	if err != nil {
		return "", err
	}
	if created {
		s.logger.Info("started thread", "chat_id", chatID, "thread_id", t.ThreadID)
	}
	return t.ThreadID, nil
}

// command returns the bot command name in text, without the leading slash or
// an @botname suffix, or "" if text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}
