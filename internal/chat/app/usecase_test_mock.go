package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/internal/chat/repository"

	"github.com/stretchr/testify/mock"
)

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// CreateRoom moke create room
func (m *MockRoomRepository) CreateRoom(ctx context.Context, room *domain.ChatRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

// FindByID moke find room by room id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByPair moke find room by property + participants
func (m *MockRoomRepository) FindByPair(ctx context.Context, propertyID, userA, userB string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, propertyID, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByParticipant moke list rooms of a user
func (m *MockRoomRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// CreateMessage moke insert message
func (m *MockMessageRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID moke find message
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByRoom moke room history
func (m *MockMessageRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkDelivered moke conditional delivered update
func (m *MockMessageRepository) MarkDelivered(ctx context.Context, messageID string, at time.Time) (bool, error) {
	args := m.Called(ctx, messageID, at)
	return args.Bool(0), args.Error(1)
}

// MarkRead moke conditional read update
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID string, at time.Time) (bool, error) {
	args := m.Called(ctx, messageID, at)
	return args.Bool(0), args.Error(1)
}

// ListUndelivered moke pending messages of a recipient
func (m *MockMessageRepository) ListUndelivered(ctx context.Context, recipientID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// UnreadByRoom moke unread aggregate
func (m *MockMessageRepository) UnreadByRoom(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]int), args.Error(1)
	}
	return nil, args.Error(1)
}

// LastByRooms moke last message per room
func (m *MockMessageRepository) LastByRooms(ctx context.Context, roomIDs []string) (map[string]domain.ChatMessage, error) {
	args := m.Called(ctx, roomIDs)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockReactionRepository Mock ReactionRepository
type MockReactionRepository struct {
	mock.Mock
}

// UpsertReaction moke upsert
func (m *MockReactionRepository) UpsertReaction(ctx context.Context, reaction *domain.ChatMessageReaction) (*domain.ChatMessageReaction, error) {
	args := m.Called(ctx, reaction)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessageReaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// RemoveReaction moke delete
func (m *MockReactionRepository) RemoveReaction(ctx context.Context, messageID, userID string) (bool, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

// ListByMessage moke list
func (m *MockReactionRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.ChatMessageReaction, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessageReaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSnapshotter run fn against the given mocks
type MockSnapshotter struct {
	Rooms    repository.RoomRepository
	Messages repository.MessageRepository
}

// ReadSnapshot moke snapshot
func (m *MockSnapshotter) ReadSnapshot(_ context.Context, fn func(rooms repository.RoomRepository, messages repository.MessageRepository) error) error {
	return fn(m.Rooms, m.Messages)
}

// MockListingDirectory Mock ListingDirectory
type MockListingDirectory struct {
	mock.Mock
}

// OwnerOf moke owner lookup
func (m *MockListingDirectory) OwnerOf(ctx context.Context, propertyID string) (string, error) {
	args := m.Called(ctx, propertyID)
	return args.String(0), args.Error(1)
}

// MockConnectionRepository Mock ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

// InsertConnection moke insert audit row
func (m *MockConnectionRepository) InsertConnection(ctx context.Context, conn *domain.UserConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

// MarkDisconnected moke close audit row
func (m *MockConnectionRepository) MarkDisconnected(ctx context.Context, connectionID string, at time.Time) error {
	args := m.Called(ctx, connectionID, at)
	return args.Error(0)
}

// TouchLastSeen moke last seen update
func (m *MockConnectionRepository) TouchLastSeen(ctx context.Context, connectionID string, at time.Time) error {
	args := m.Called(ctx, connectionID, at)
	return args.Error(0)
}

// LastSeen moke last seen lookup
func (m *MockConnectionRepository) LastSeen(ctx context.Context, userID string) (*time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOfflineNotifier Mock OfflineNotifier
type MockOfflineNotifier struct {
	mock.Mock
}

// NotifyOffline moke redis publish
func (m *MockOfflineNotifier) NotifyOffline(ctx context.Context, recipientID string, msg *domain.ChatMessage) error {
	args := m.Called(ctx, recipientID, msg)
	return args.Error(0)
}

// fakeHandle in-memory Handle recording what it received
type fakeHandle struct {
	id     string
	userID string

	mu       sync.Mutex
	frames   []domain.WSResponse
	capacity int
	closed   bool
}

func newFakeHandle(id, userID string) *fakeHandle {
	return &fakeHandle{id: id, userID: userID, capacity: -1}
}

func (f *fakeHandle) ID() string     { return f.id }
func (f *fakeHandle) UserID() string { return f.userID }

func (f *fakeHandle) Enqueue(msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || (f.capacity >= 0 && len(f.frames) >= f.capacity) {
		return false
	}
	var resp domain.WSResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		return false
	}
	f.frames = append(f.frames, resp)
	return true
}

func (f *fakeHandle) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeHandle) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// received copy of every frame so far
func (f *fakeHandle) received() []domain.WSResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.WSResponse, len(f.frames))
	copy(out, f.frames)
	return out
}

// actions action names received, in order
func (f *fakeHandle) actions() []string {
	var out []string
	for _, r := range f.received() {
		out = append(out, r.Action)
	}
	return out
}

// count frames with the given action
func (f *fakeHandle) count(action string) int {
	n := 0
	for _, r := range f.received() {
		if r.Action == action {
			n++
		}
	}
	return n
}

// payloadOf decode the payload of the i-th frame with action into v
func (f *fakeHandle) payloadOf(action string, i int, v interface{}) bool {
	for _, r := range f.received() {
		if r.Action != action {
			continue
		}
		if i > 0 {
			i--
			continue
		}
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return false
		}
		return json.Unmarshal(raw, v) == nil
	}
	return false
}

func (f *fakeHandle) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}
