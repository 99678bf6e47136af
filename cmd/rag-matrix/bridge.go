// ABOUTME: Matrix bridge core for rag-matrix
// ABOUTME: Syncs with the homeserver and relays room messages through botclient

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/rag-gateway/internal/botclient"
	"github.com/2389/rag-gateway/internal/dedupe"
)

// roomSender is the part of the Matrix client used to reply.
type roomSender interface {
	UserTyping(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration) (*mautrix.RespTyping, error)
	SendText(ctx context.Context, roomID id.RoomID, text string) (*mautrix.RespSendEvent, error)
}

// roomQueue holds a room's messages waiting for the gateway, oldest first.
type roomQueue struct {
	pending []string
}

// Bridge connects Matrix rooms to the gateway's bot channel.
type Bridge struct {
	config  *Config
	matrix  *mautrix.Client
	sender  roomSender
	service *botclient.Service
	seen    *dedupe.Window
	logger  *slog.Logger

	// startedAt filters out history replayed by the first sync
	startedAt time.Time

	// One drain goroutine per room keeps replies in message order
	queueMu sync.Mutex
	queues  map[id.RoomID]*roomQueue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBridge creates a new Matrix bridge.
func NewBridge(cfg *Config, service *botclient.Service, logger *slog.Logger) (*Bridge, error) {
	client, err := mautrix.NewClient(cfg.Matrix.Homeserver, id.UserID(cfg.Matrix.UserID), cfg.Matrix.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	return &Bridge{
		config:  cfg,
		matrix:  client,
		sender:  client,
		service: service,
		seen:    dedupe.New(10*time.Minute, 10000),
		logger:  logger.With("component", "matrix"),
		queues:  make(map[id.RoomID]*roomQueue),
	}, nil
}

// Run starts the bridge and blocks until context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting matrix bridge",
		"homeserver", b.config.Matrix.Homeserver,
		"user_id", b.config.Matrix.UserID,
		"gateway", b.config.Gateway.URL,
	)

	b.ctx, b.cancel = context.WithCancel(ctx)
	defer b.cancel()
	b.startedAt = time.Now()

	syncer, ok := b.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", b.matrix.Syncer)
	}
	syncer.OnEventType(event.EventMessage, b.handleMessageEvent)

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- b.matrix.SyncWithContext(b.ctx)
	}()

	b.logger.Info("matrix bridge running")

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down matrix bridge")
		b.cancel()
		b.wg.Wait()
		return nil
	case err := <-syncErr:
		b.wg.Wait()
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMessageEvent filters incoming Matrix messages and hands text to the service.
func (b *Bridge) handleMessageEvent(ctx context.Context, evt *event.Event) {
	if evt.Sender == id.UserID(b.config.Matrix.UserID) {
		return
	}
	if time.UnixMilli(evt.Timestamp).Before(b.startedAt) {
		return
	}
	if b.seen.Seen(evt.ID.String()) {
		b.logger.Debug("dropping redelivered event", "event_id", evt.ID.String())
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText {
		return
	}

	roomID := evt.RoomID.String()
	body := content.Body

	if !b.isRoomAllowed(roomID) {
		b.logger.Debug("ignoring message from non-allowed room", "room", roomID)
		return
	}

	if prefix := b.config.Bridge.CommandPrefix; prefix != "" {
		if !strings.HasPrefix(body, prefix) {
			return
		}
		body = strings.TrimSpace(strings.TrimPrefix(body, prefix))
	}
	if body == "" {
		return
	}

	b.logger.Info("received message",
		"room", roomID,
		"sender", evt.Sender.String(),
		"content", truncate(body, 50),
	)

	b.enqueue(evt.RoomID, body)
}

// enqueue adds body to the room's queue, starting a drain goroutine if the
// room has none. Messages in one room are answered one at a time, in order.
func (b *Bridge) enqueue(roomID id.RoomID, body string) {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()

	if q, ok := b.queues[roomID]; ok {
		q.pending = append(q.pending, body)
		b.logger.Debug("queued message behind in-flight request", "room", roomID.String(), "queued", len(q.pending))
		return
	}

	q := &roomQueue{pending: []string{body}}
	b.queues[roomID] = q
	b.wg.Add(1)
	go b.drain(roomID, q)
}

// drain processes the room's queue until it is empty, then retires it.
func (b *Bridge) drain(roomID id.RoomID, q *roomQueue) {
	defer b.wg.Done()
	for {
		b.queueMu.Lock()
		if len(q.pending) == 0 {
			delete(b.queues, roomID)
			b.queueMu.Unlock()
			return
		}
		body := q.pending[0]
		q.pending = q.pending[1:]
		b.queueMu.Unlock()

		b.processMessage(b.ctx, roomID, body)
	}
}

// processMessage asks the gateway and posts the reply to the room.
func (b *Bridge) processMessage(ctx context.Context, roomID id.RoomID, body string) {
	roomStr := roomID.String()

	if b.config.Bridge.TypingIndicator {
		b.setTyping(roomID, true)
		defer b.setTyping(roomID, false)
	}

	reply, ok := b.service.HandleText(ctx, roomStr, body)
	if !ok {
		b.logger.Warn("empty reply", "room", roomStr)
		return
	}

	b.logger.Info("sending response", "room", roomStr, "length", len(reply))
	b.sendMessage(roomID, reply)
}

// isRoomAllowed checks if the room is in the allowed list.
func (b *Bridge) isRoomAllowed(roomID string) bool {
	if len(b.config.Bridge.AllowedRooms) == 0 {
		return true
	}
	for _, allowed := range b.config.Bridge.AllowedRooms {
		if allowed == roomID {
			return true
		}
	}
	return false
}

// typingTimeout is the duration the typing indicator shows.
const typingTimeout = 30 * time.Second

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

// setTyping sends typing indicator to room.
func (b *Bridge) setTyping(roomID id.RoomID, typing bool) {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if _, err := b.sender.UserTyping(ctx, roomID, typing, timeout); err != nil {
		b.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

// sendMessage sends a text message to a room.
func (b *Bridge) sendMessage(roomID id.RoomID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := b.sender.SendText(ctx, roomID, text); err != nil {
		b.logger.Error("failed to send message", "room", roomID.String(), "error", err)
	}
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
