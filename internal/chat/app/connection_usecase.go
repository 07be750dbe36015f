package app

import (
	"context"
	"fmt"
	"time"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/internal/chat/repository"
	"estate_chat_service/pkg"
	"estate_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// ConnectionUseCase binds live connections to users, presence and room groups
type ConnectionUseCase interface {
	Connect(ctx context.Context, h Handle, meta domain.ConnectionMeta) error
	Disconnect(ctx context.Context, h Handle)
	JoinRoom(ctx context.Context, h Handle, roomID string) error
	LeaveRoom(ctx context.Context, h Handle, roomID string) error
	Typing(ctx context.Context, h Handle, roomID string, isTyping bool) error
	OnlineUsers(ctx context.Context, h Handle, roomID string) (*domain.RoomPresence, error)
	UpdateLastSeen(ctx context.Context, h Handle) (time.Time, error)
	Heartbeat(h Handle)
}

type connectionUseCase struct {
	chat     ChatUseCase
	registry *PresenceRegistry
	hub      *Hub
	connRepo repository.ConnectionRepository
	now      func() time.Time
}

// NewConnectionUseCase create connection lifecycle use case
func NewConnectionUseCase(
	chat ChatUseCase,
	registry *PresenceRegistry,
	hub *Hub,
	connRepo repository.ConnectionRepository,
) ConnectionUseCase {
	return &connectionUseCase{
		chat:     chat,
		registry: registry,
		hub:      hub,
		connRepo: connRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Connect register h as the live connection of its user
func (uc *connectionUseCase) Connect(ctx context.Context, h Handle, meta domain.ConnectionMeta) error {
	userID := h.UserID()
	if userID == "" {
		return fmt.Errorf("%w: connection without identity", domain.ErrUnauthorized)
	}

	_, wasOnline := uc.registry.Set(userID, h)
	uc.hub.AddGlobal(h)

	now := uc.now()
	if err := uc.connRepo.InsertConnection(ctx, &domain.UserConnection{
		ID:          h.ID(),
		UserID:      userID,
		ConnectedAt: now,
		LastSeenAt:  now,
		Online:      true,
		Device:      meta.Device,
		RemoteAddr:  meta.RemoteAddr,
	}); err != nil {
		logger.Log.Error("insert user connection", zap.String("userID", userID), zap.Error(err))
	}

	if !wasOnline {
		uc.hub.Publish(domain.GlobalAudience(), domain.UserOnlineStatusEvent{UserID: userID, IsOnline: true})
	}

	receipts, err := uc.chat.DeliverPending(ctx, userID)
	if err != nil {
		logger.Log.Warn("deliver pending on connect", zap.String("userID", userID), zap.Error(err))
	}
	for _, r := range receipts {
		uc.hub.Publish(domain.RoomAudience(r.RoomID), domain.MessageDeliveredEvent{
			MessageID:   r.MessageID,
			RoomID:      r.RoomID,
			UserID:      r.UserID,
			DeliveredAt: r.DeliveredAt,
		})
	}

	logger.Log.Info("user connected",
		zap.String("userID", userID),
		zap.String("connID", h.ID()),
		zap.Int("delivered", len(receipts)),
	)
	return nil
}

// Disconnect leave every group, clear presence, persist last seen
func (uc *connectionUseCase) Disconnect(ctx context.Context, h Handle) {
	userID := h.UserID()

	for _, roomID := range uc.hub.Remove(h) {
		uc.hub.Publish(domain.RoomAudience(roomID), domain.UserLeftEvent{RoomID: roomID, UserID: userID})
	}

	_, existed := uc.registry.Remove(userID)

	now := uc.now()
	if err := uc.connRepo.MarkDisconnected(ctx, h.ID(), now); err != nil {
		logger.Log.Error("mark user connection closed", zap.String("userID", userID), zap.Error(err))
	}

	if existed {
		uc.hub.Publish(domain.GlobalAudience(), domain.UserOnlineStatusEvent{UserID: userID, IsOnline: false})
		uc.hub.Publish(domain.GlobalAudience(), domain.UserLastSeenEvent{UserID: userID, At: now})
	}

	logger.Log.Info("user disconnected", zap.String("userID", userID), zap.String("connID", h.ID()))
}

// JoinRoom add h to the room group, participants only
func (uc *connectionUseCase) JoinRoom(ctx context.Context, h Handle, roomID string) error {
	if _, err := uc.chat.AuthorizeRoom(ctx, roomID, h.UserID()); err != nil {
		return err
	}
	if uc.hub.Join(roomID, h) {
		uc.hub.Publish(domain.RoomAudience(roomID), domain.UserJoinedEvent{RoomID: roomID, UserID: h.UserID()})
	}
	return nil
}

// LeaveRoom remove h from the room group
func (uc *connectionUseCase) LeaveRoom(_ context.Context, h Handle, roomID string) error {
	if uc.hub.Leave(roomID, h) {
		uc.hub.Publish(domain.RoomAudience(roomID), domain.UserLeftEvent{RoomID: roomID, UserID: h.UserID()})
	}
	return nil
}

// Typing relay the typing state to the room
func (uc *connectionUseCase) Typing(ctx context.Context, h Handle, roomID string, isTyping bool) error {
	if _, err := uc.chat.AuthorizeRoom(ctx, roomID, h.UserID()); err != nil {
		return err
	}
	uc.hub.Publish(domain.RoomAudience(roomID), domain.UserTypingEvent{
		RoomID:   roomID,
		UserID:   h.UserID(),
		IsTyping: isTyping,
	})
	return nil
}

// OnlineUsers participants of the room with a live connection, plus the
// stored last seen of the ones without
func (uc *connectionUseCase) OnlineUsers(ctx context.Context, h Handle, roomID string) (*domain.RoomPresence, error) {
	room, err := uc.chat.AuthorizeRoom(ctx, roomID, h.UserID())
	if err != nil {
		return nil, err
	}

	presence := &domain.RoomPresence{
		RoomID:   room.ID,
		Users:    uc.registry.Online(room.Participants()),
		LastSeen: make(map[string]time.Time),
	}
	for _, userID := range room.Participants() {
		if pkg.Contains(presence.Users, userID) {
			continue
		}
		at, err := uc.connRepo.LastSeen(ctx, userID)
		if err != nil {
			logger.Log.Warn("load last seen", zap.String("userID", userID), zap.Error(err))
			continue
		}
		if at != nil {
			presence.LastSeen[userID] = *at
		}
	}
	return presence, nil
}

// UpdateLastSeen touch presence, persist and broadcast the new last seen
func (uc *connectionUseCase) UpdateLastSeen(ctx context.Context, h Handle) (time.Time, error) {
	userID := h.UserID()
	at, ok := uc.registry.Touch(userID)
	if !ok {
		return at, fmt.Errorf("%w: %s has no live connection", domain.ErrNotFound, userID)
	}

	if err := uc.connRepo.TouchLastSeen(ctx, h.ID(), at); err != nil {
		logger.Log.Error("touch user connection", zap.String("userID", userID), zap.Error(err))
	}
	uc.hub.Publish(domain.GlobalAudience(), domain.UserLastSeenEvent{UserID: userID, At: at})
	return at, nil
}

// Heartbeat refresh presence without any broadcast
func (uc *connectionUseCase) Heartbeat(h Handle) {
	uc.registry.Touch(h.UserID())
}
