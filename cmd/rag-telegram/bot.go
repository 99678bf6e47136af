// ABOUTME: Telegram long-polling loop for rag-telegram
// ABOUTME: Relays text messages through botclient and replies in the same chat

package main

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389/rag-gateway/internal/botclient"
	"github.com/2389/rag-gateway/internal/dedupe"
)

// Bot connects a Telegram bot account to the gateway.
type Bot struct {
	config  *Config
	api     *tgbotapi.BotAPI
	service *botclient.Service
	seen    *dedupe.Window
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewBot logs in with the configured token.
func NewBot(cfg *Config, service *botclient.Service, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		config:  cfg,
		api:     api,
		service: service,
		seen:    dedupe.New(10*time.Minute, 10000),
		logger:  logger.With("component", "telegram"),
	}, nil
}

// Username returns the bot account's username.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run polls for updates until ctx is cancelled, then waits for in-flight replies.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.Telegram.PollTimeout

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram bot running", "username", b.Username())

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("shutting down telegram bot")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if b.seen.Seen(strconv.Itoa(update.UpdateID)) {
		b.logger.Debug("dropping redelivered update", "update_id", update.UpdateID)
		return
	}
	if !b.isChatAllowed(msg.Chat.ID) {
		b.logger.Debug("ignoring message from non-allowed chat", "chat_id", msg.Chat.ID)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handleMessage(ctx, msg)
	}()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.logger.Info("received message", "chat_id", chatID, "content", truncate(msg.Text, 50))

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("failed to send typing action", "chat_id", chatID, "error", err)
	}

	reply, ok := b.service.HandleText(ctx, strconv.FormatInt(chatID, 10), msg.Text)
	if !ok {
		return
	}

	out := tgbotapi.NewMessage(chatID, reply)
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// isChatAllowed checks if the chat is in the allowed list.
func (b *Bot) isChatAllowed(chatID int64) bool {
	if len(b.config.Telegram.AllowedChats) == 0 {
		return true
	}
	for _, allowed := range b.config.Telegram.AllowedChats {
		if allowed == chatID {
			return true
		}
	}
	return false
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
