// ABOUTME: Tests for rag-matrix message queueing
// ABOUTME: Uses a blocking gateway and a recording sender in place of Matrix

package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"

	"github.com/2389/rag-gateway/internal/botclient"
	"github.com/2389/rag-gateway/internal/store"
)

// gatedAsker holds every question until release is closed.
type gatedAsker struct {
	release chan struct{}

	mu        sync.Mutex
	questions []string
}

func (a *gatedAsker) Ask(ctx context.Context, chatID, threadID, question string) (string, error) {
	a.mu.Lock()
	a.questions = append(a.questions, question)
	a.mu.Unlock()

	<-a.release
	return "re: " + question, nil
}

func (a *gatedAsker) asked() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.questions...)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) UserTyping(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration) (*mautrix.RespTyping, error) {
	return &mautrix.RespTyping{}, nil
}

func (s *recordingSender) SendText(ctx context.Context, roomID id.RoomID, text string) (*mautrix.RespSendEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, roomID.String()+": "+text)
	return &mautrix.RespSendEvent{}, nil
}

func (s *recordingSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func newTestBridge(asker botclient.Asker, sender roomSender) *Bridge {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{}
	cfg.Bridge.TypingIndicator = true
	return &Bridge{
		config:  cfg,
		sender:  sender,
		service: botclient.NewService(store.NewMockStore(), asker, logger),
		logger:  logger,
		queues:  make(map[id.RoomID]*roomQueue),
		ctx:     context.Background(),
	}
}

func TestBridge_QueuesMessagesWhileRoomIsBusy(t *testing.T) {
	asker := &gatedAsker{release: make(chan struct{})}
	sender := &recordingSender{}
	b := newTestBridge(asker, sender)
	room := id.RoomID("!room:example.org")

	b.enqueue(room, "one")
	require.Eventually(t, func() bool { return len(asker.asked()) == 1 }, time.Second, 5*time.Millisecond)

	b.enqueue(room, "two")
	b.enqueue(room, "three")
	assert.Equal(t, []string{"one"}, asker.asked())

	close(asker.release)
	b.wg.Wait()

	assert.Equal(t, []string{"one", "two", "three"}, asker.asked())
	assert.Equal(t, []string{
		"!room:example.org: re: one",
		"!room:example.org: re: two",
		"!room:example.org: re: three",
	}, sender.texts())
	assert.Empty(t, b.queues)
}

func TestBridge_RoomsDoNotBlockEachOther(t *testing.T) {
	asker := &gatedAsker{release: make(chan struct{})}
	b := newTestBridge(asker, &recordingSender{})

	b.enqueue("!a:example.org", "from a")
	b.enqueue("!b:example.org", "from b")

	require.Eventually(t, func() bool { return len(asker.asked()) == 2 }, time.Second, 5*time.Millisecond)
	close(asker.release)
	b.wg.Wait()
}
