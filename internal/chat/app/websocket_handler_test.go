package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/internal/chat/repository"
	"estate_chat_service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type wsFixture struct {
	*connFixture
	notifier *MockOfflineNotifier
	handler  *ChatWebsocketHandler
}

func newWSFixture(t *testing.T) *wsFixture {
	cf := newConnFixture(t)
	notifier := new(MockOfflineNotifier)
	return &wsFixture{
		connFixture: cf,
		notifier:    notifier,
		handler:     NewChatWebsocketHandler(cf.chatFixture.uc, cf.uc, cf.registry, cf.hub, notifier, config.WebSocketConfig{}),
	}
}

func (f *wsFixture) do(h Handle, req domain.WSRequest) {
	raw, _ := json.Marshal(req)
	f.handler.dispatch(context.Background(), h, raw)
}

// ack last frame answering requestID
func ack(h *fakeHandle, requestID string) (domain.WSResponse, bool) {
	frames := h.received()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].RequestID == requestID {
			return frames[i], true
		}
	}
	return domain.WSResponse{}, false
}

func TestDispatchMalformed(t *testing.T) {
	f := newWSFixture(t)
	h := newFakeHandle("c1", buyer)

	f.handler.dispatch(context.Background(), h, []byte("{not json"))
	got := h.received()
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0].Action)
	assert.False(t, got[0].Success)
	assert.Equal(t, "malformed request", got[0].Error)

	f.do(h, domain.WSRequest{Action: "fly", RequestID: "r1"})
	resp, ok := ack(h, "r1")
	require.True(t, ok)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown action")
}

func TestDispatchConversation(t *testing.T) {
	ctx := context.Background()
	f := newWSFixture(t)
	room := f.room(t, "prop-1", buyer, seller)

	b := newFakeHandle("b", buyer)
	require.NoError(t, f.connFixture.uc.Connect(ctx, b, domain.ConnectionMeta{}))

	f.do(b, domain.WSRequest{Action: string(domain.JoinRoom), RequestID: "join", RoomID: room.ID})
	resp, ok := ack(b, "join")
	require.True(t, ok)
	assert.True(t, resp.Success)
	assert.Equal(t, string(domain.JoinRoom), resp.Action)

	// seller offline, the message goes out as a notification too
	f.notifier.On("NotifyOffline", mock.Anything, seller, mock.AnythingOfType("*domain.ChatMessage")).Return(nil).Once()
	f.do(b, domain.WSRequest{Action: string(domain.SendMessage), RequestID: "send", RoomID: room.ID, Body: "can I visit on Sunday?"})
	resp, ok = ack(b, "send")
	require.True(t, ok)
	require.True(t, resp.Success, resp.Error)
	require.Equal(t, 1, b.count("new-message"))
	var created domain.NewMessageEvent
	require.True(t, b.payloadOf("new-message", 0, &created))
	assert.Equal(t, "can I visit on Sunday?", created.Body)
	f.notifier.AssertExpectations(t)

	s := newFakeHandle("s", seller)
	require.NoError(t, f.connFixture.uc.Connect(ctx, s, domain.ConnectionMeta{}))
	assert.Equal(t, 1, b.count("message-delivered"), "pending message delivered on connect")

	f.do(s, domain.WSRequest{Action: string(domain.JoinRoom), RequestID: "join-s", RoomID: room.ID})
	f.do(s, domain.WSRequest{Action: string(domain.MarkDelivered), RequestID: "d", MessageID: created.MessageID})
	resp, _ = ack(s, "d")
	assert.True(t, resp.Success)
	assert.Equal(t, 1, b.count("message-delivered"), "no event when already delivered")

	f.do(s, domain.WSRequest{Action: string(domain.MarkRead), RequestID: "r", MessageID: created.MessageID})
	assert.Equal(t, 1, b.count("message-read"))
	f.do(s, domain.WSRequest{Action: string(domain.MarkRead), RequestID: "r2", MessageID: created.MessageID})
	assert.Equal(t, 1, b.count("message-read"))

	f.do(s, domain.WSRequest{Action: string(domain.AddReaction), RequestID: "re", MessageID: created.MessageID, Type: "like"})
	assert.Equal(t, 1, b.count("reaction-added"))
	f.do(s, domain.WSRequest{Action: string(domain.RemoveReaction), RequestID: "rm", MessageID: created.MessageID})
	assert.Equal(t, 1, b.count("reaction-removed"))
	f.do(s, domain.WSRequest{Action: string(domain.RemoveReaction), RequestID: "rm2", MessageID: created.MessageID})
	assert.Equal(t, 1, b.count("reaction-removed"))

	f.do(s, domain.WSRequest{Action: string(domain.Typing), RequestID: "t", RoomID: room.ID, IsTyping: true})
	assert.Equal(t, 1, b.count("user-typing"))

	f.do(b, domain.WSRequest{Action: string(domain.GetOnlineUsers), RequestID: "o", RoomID: room.ID})
	resp, ok = ack(b, "o")
	require.True(t, ok)
	payload, _ := json.Marshal(resp.Payload)
	var online struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(payload, &online))
	assert.ElementsMatch(t, []string{buyer, seller}, online.Users)

	f.do(b, domain.WSRequest{Action: string(domain.UpdateLastSeen), RequestID: "ls"})
	resp, _ = ack(b, "ls")
	assert.True(t, resp.Success)

	// recipient online, no notification
	f.do(s, domain.WSRequest{Action: string(domain.SendMessage), RequestID: "send-s", RoomID: room.ID, Body: "sure"})
	f.notifier.AssertNumberOfCalls(t, "NotifyOffline", 1)

	f.do(b, domain.WSRequest{Action: string(domain.LeaveRoom), RequestID: "leave", RoomID: room.ID})
	assert.Equal(t, 1, s.count("user-left"))
}

func TestDispatchRejectsOutsider(t *testing.T) {
	f := newWSFixture(t)
	room := f.room(t, "prop-1", buyer, seller)
	x := newFakeHandle("x", other)

	f.do(x, domain.WSRequest{Action: string(domain.SendMessage), RequestID: "s", RoomID: room.ID, Body: "spam"})
	resp, ok := ack(x, "s")
	require.True(t, ok)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, domain.ErrUnauthorized.Error())

	history, err := f.chatFixture.uc.GetHistory(context.Background(), room.ID, buyer)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNotifyFailureDoesNotFailSend(t *testing.T) {
	f := newWSFixture(t)
	room := f.room(t, "prop-1", buyer, seller)
	b := newFakeHandle("b", buyer)

	f.notifier.On("NotifyOffline", mock.Anything, seller, mock.Anything).Return(errors.New("redis down"))
	f.do(b, domain.WSRequest{Action: string(domain.SendMessage), RequestID: "s", RoomID: room.ID, Body: "hello"})

	resp, ok := ack(b, "s")
	require.True(t, ok)
	assert.True(t, resp.Success)
}

func TestClientMessage(t *testing.T) {
	assert.Equal(t, "internal error", clientMessage(errors.New("pq: relation missing")))

	err := fmt.Errorf("%w: room x", domain.ErrNotFound)
	assert.Equal(t, err.Error(), clientMessage(err))
}

// slowInsert holds the insert of the message with body hold until release is closed
type slowInsert struct {
	repository.MessageRepository
	hold    string
	entered chan struct{}
	release chan struct{}
}

func (s *slowInsert) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.Body == s.hold {
		close(s.entered)
		<-s.release
	}
	return s.MessageRepository.CreateMessage(ctx, msg)
}

func TestDispatchSendOrderMatchesHistory(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	chat := newChatFixture(t, WithClock(clock.Now))
	room := chat.room(t, "prop-1", buyer, seller)

	msgs := &slowInsert{
		MessageRepository: repository.NewMessageRepository(chat.db, testPolicy),
		hold:              "first",
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	uc := NewChatUseCase(
		repository.NewRoomRepository(chat.db, testPolicy),
		msgs,
		repository.NewReactionRepository(chat.db, testPolicy),
		repository.NewSnapshotter(chat.db, testPolicy),
		repository.NewListingDirectory(chat.db, testPolicy),
		WithClock(clock.Now),
	)
	registry := NewPresenceRegistry(0)
	hub := NewHub()
	conns := NewConnectionUseCase(uc, registry, hub, new(MockConnectionRepository))
	handler := NewChatWebsocketHandler(uc, conns, registry, hub, nil, config.WebSocketConfig{})

	watcher := newFakeHandle("watcher", buyer)
	hub.Join(room.ID, watcher)

	b := newFakeHandle("b", buyer)
	s := newFakeHandle("s", seller)
	send := func(h *fakeHandle, body string) {
		raw, _ := json.Marshal(domain.WSRequest{
			Action:    string(domain.SendMessage),
			RequestID: body,
			RoomID:    room.ID,
			Body:      body,
		})
		handler.dispatch(ctx, h, raw)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		send(b, "first")
	}()
	<-msgs.entered
	go func() {
		defer wg.Done()
		send(s, "second")
	}()
	// give the second sender time to overtake an unordered insert
	time.Sleep(20 * time.Millisecond)
	close(msgs.release)
	wg.Wait()

	for _, c := range []struct {
		h    *fakeHandle
		body string
	}{{b, "first"}, {s, "second"}} {
		resp, ok := ack(c.h, c.body)
		require.True(t, ok)
		assert.True(t, resp.Success, resp.Error)
	}

	history, err := uc.GetHistory(ctx, room.ID, buyer)
	require.NoError(t, err)
	var stored []string
	for _, m := range history {
		stored = append(stored, m.Body)
	}

	var broadcast []string
	for i := 0; i < watcher.count("new-message"); i++ {
		var ev domain.NewMessageEvent
		require.True(t, watcher.payloadOf("new-message", i, &ev))
		broadcast = append(broadcast, ev.Body)
	}

	assert.Equal(t, []string{"first", "second"}, stored)
	assert.Equal(t, stored, broadcast)
}
