package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/internal/chat/repository"
	"estate_chat_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxBodyLength = 4000

// ChatUseCase 聊天室 / 訊息 / 表情 / 未讀
type ChatUseCase interface {
	StartOrGetRoom(ctx context.Context, propertyID, userID, otherUserID string) (*domain.ChatRoom, error)
	AuthorizeRoom(ctx context.Context, roomID, userID string) (*domain.ChatRoom, error)
	SendMessage(ctx context.Context, roomID, senderID, body string, repliedToID *string) (*domain.ChatMessage, error)
	MarkDelivered(ctx context.Context, messageID, userID string) (*domain.DeliveryReceipt, error)
	MarkRead(ctx context.Context, messageID, userID string) (*domain.ReadReceipt, error)
	AddReaction(ctx context.Context, messageID, userID, reactionType string) (*domain.ChatMessageReaction, error)
	RemoveReaction(ctx context.Context, messageID, userID string) (*domain.ReactionRemoval, error)
	GetHistory(ctx context.Context, roomID, userID string) ([]domain.ChatMessage, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	UnreadCountPerRoom(ctx context.Context, userID string) (map[string]int, error)
	RoomSummaries(ctx context.Context, userID string) ([]domain.RoomSummary, error)
	DeliverPending(ctx context.Context, userID string) ([]domain.DeliveryReceipt, error)
}

type chatUseCase struct {
	roomRepo     repository.RoomRepository
	msgRepo      repository.MessageRepository
	reactionRepo repository.ReactionRepository
	snapshot     repository.Snapshotter
	listings     repository.ListingDirectory

	rooms singleflight.Group
	now   func() time.Time
}

// ChatOption optional dependency of the chat use case
type ChatOption func(*chatUseCase)

// WithClock override the clock
func WithClock(now func() time.Time) ChatOption {
	return func(uc *chatUseCase) { uc.now = now }
}

// NewChatUseCase create chat use case
func NewChatUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	reactionRepo repository.ReactionRepository,
	snapshot repository.Snapshotter,
	listings repository.ListingDirectory,
	opts ...ChatOption,
) ChatUseCase {
	uc := &chatUseCase{
		roomRepo:     roomRepo,
		msgRepo:      msgRepo,
		reactionRepo: reactionRepo,
		snapshot:     snapshot,
		listings:     listings,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *chatUseCase) clock() time.Time {
	return uc.now().UTC().Truncate(time.Microsecond)
}

// StartOrGetRoom room of propertyID between userID and otherUserID,
// otherUserID empty means the listing owner
func (uc *chatUseCase) StartOrGetRoom(ctx context.Context, propertyID, userID, otherUserID string) (*domain.ChatRoom, error) {
	if propertyID == "" || userID == "" {
		return nil, fmt.Errorf("%w: property and user are required", domain.ErrInvalidArgument)
	}
	for _, id := range []string{propertyID, userID, otherUserID} {
		if utf8.RuneCountInString(id) > domain.MaxIDLength {
			return nil, fmt.Errorf("%w: id longer than %d characters", domain.ErrInvalidArgument, domain.MaxIDLength)
		}
	}
	if otherUserID == "" {
		owner, err := uc.listings.OwnerOf(ctx, propertyID)
		if err != nil {
			return nil, err
		}
		otherUserID = owner
	}
	if otherUserID == userID {
		return nil, fmt.Errorf("%w: cannot start a chat with yourself", domain.ErrInvalidArgument)
	}

	lo, hi := domain.OrderedPair(userID, otherUserID)
	key := propertyID + ":" + lo + ":" + hi
	// the shared call outlives any single caller, each caller waits on its own ctx
	ch := uc.rooms.DoChan(key, func() (interface{}, error) {
		return uc.findOrCreateRoom(context.WithoutCancel(ctx), propertyID, lo, hi)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		room := *res.Val.(*domain.ChatRoom)
		return &room, nil
	}
}

func (uc *chatUseCase) findOrCreateRoom(ctx context.Context, propertyID, lo, hi string) (*domain.ChatRoom, error) {
	room, err := uc.roomRepo.FindByPair(ctx, propertyID, lo, hi)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	room = domain.NewChatRoom(propertyID, lo, hi, uc.clock())
	createErr := uc.roomRepo.CreateRoom(ctx, room)
	if createErr == nil {
		logger.Log.Info("chat room created",
			zap.String("roomID", room.ID),
			zap.String("propertyID", propertyID),
		)
		return room, nil
	}

	// another writer won the unique index
	existing, err := uc.roomRepo.FindByPair(ctx, propertyID, lo, hi)
	if err == nil {
		return existing, nil
	}
	return nil, createErr
}

// AuthorizeRoom room of roomID when userID participates in it
func (uc *chatUseCase) AuthorizeRoom(ctx context.Context, roomID, userID string) (*domain.ChatRoom, error) {
	if err := validateUUID(roomID, "room id"); err != nil {
		return nil, err
	}
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: %s is not a participant of room %s", domain.ErrUnauthorized, userID, roomID)
	}
	return room, nil
}

// SendMessage persist a message from senderID
func (uc *chatUseCase) SendMessage(ctx context.Context, roomID, senderID, body string, repliedToID *string) (*domain.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidArgument)
	}
	if len([]rune(body)) > maxBodyLength {
		return nil, fmt.Errorf("%w: body longer than %d characters", domain.ErrInvalidArgument, maxBodyLength)
	}

	room, err := uc.AuthorizeRoom(ctx, roomID, senderID)
	if err != nil {
		return nil, err
	}

	if repliedToID != nil && *repliedToID == "" {
		repliedToID = nil
	}
	if repliedToID != nil {
		if err := validateULID(*repliedToID, "replied to id"); err != nil {
			return nil, err
		}
		parent, err := uc.msgRepo.FindByID(ctx, *repliedToID)
		if err != nil {
			return nil, err
		}
		if parent.RoomID != room.ID {
			return nil, fmt.Errorf("%w: replied message %s is not in room %s", domain.ErrNotFound, *repliedToID, room.ID)
		}
	}

	msg := domain.NewChatMessage(room.ID, senderID, body, repliedToID, uc.clock())
	if err := uc.msgRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// loadForParticipant message + its room, userID must participate
func (uc *chatUseCase) loadForParticipant(ctx context.Context, messageID, userID string) (*domain.ChatMessage, error) {
	if err := validateULID(messageID, "message id"); err != nil {
		return nil, err
	}
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	room, err := uc.roomRepo.FindByID(ctx, msg.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: %s is not a participant of room %s", domain.ErrUnauthorized, userID, room.ID)
	}
	return msg, nil
}

// MarkDelivered advance Sent -> Delivered, nil when nothing changed
func (uc *chatUseCase) MarkDelivered(ctx context.Context, messageID, userID string) (*domain.DeliveryReceipt, error) {
	msg, err := uc.loadForParticipant(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID == userID || msg.DeliveredAt != nil {
		return nil, nil
	}
	return uc.advanceDelivered(ctx, msg, userID)
}

func (uc *chatUseCase) advanceDelivered(ctx context.Context, msg *domain.ChatMessage, userID string) (*domain.DeliveryReceipt, error) {
	at := uc.clock()
	advanced, err := uc.msgRepo.MarkDelivered(ctx, msg.ID, at)
	if err != nil || !advanced {
		return nil, err
	}
	return &domain.DeliveryReceipt{
		MessageID:   msg.ID,
		RoomID:      msg.RoomID,
		UserID:      userID,
		DeliveredAt: at,
	}, nil
}

// MarkRead advance to Read, nil for the sender or when already read
func (uc *chatUseCase) MarkRead(ctx context.Context, messageID, userID string) (*domain.ReadReceipt, error) {
	msg, err := uc.loadForParticipant(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID == userID || msg.ReadAt != nil {
		return nil, nil
	}

	at := uc.clock()
	advanced, err := uc.msgRepo.MarkRead(ctx, msg.ID, at)
	if err != nil || !advanced {
		return nil, err
	}
	return &domain.ReadReceipt{
		MessageID: msg.ID,
		RoomID:    msg.RoomID,
		ReaderID:  userID,
		ReadAt:    at,
	}, nil
}

// AddReaction upsert the reaction of userID on messageID
func (uc *chatUseCase) AddReaction(ctx context.Context, messageID, userID, reactionType string) (*domain.ChatMessageReaction, error) {
	reactionType = strings.TrimSpace(reactionType)
	if reactionType == "" {
		return nil, fmt.Errorf("%w: empty reaction type", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(reactionType) > domain.MaxReactionTypeLength {
		return nil, fmt.Errorf("%w: reaction type longer than %d characters", domain.ErrInvalidArgument, domain.MaxReactionTypeLength)
	}
	msg, err := uc.loadForParticipant(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	stored, err := uc.reactionRepo.UpsertReaction(ctx, domain.NewChatMessageReaction(msg.ID, userID, reactionType, uc.clock()))
	if err != nil {
		return nil, err
	}
	stored.RoomID = msg.RoomID
	return stored, nil
}

// RemoveReaction delete the reaction of userID, nil when there was none
func (uc *chatUseCase) RemoveReaction(ctx context.Context, messageID, userID string) (*domain.ReactionRemoval, error) {
	msg, err := uc.loadForParticipant(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	removed, err := uc.reactionRepo.RemoveReaction(ctx, msg.ID, userID)
	if err != nil || !removed {
		return nil, err
	}
	return &domain.ReactionRemoval{MessageID: msg.ID, RoomID: msg.RoomID, UserID: userID}, nil
}

// GetHistory every message of the room, oldest first
func (uc *chatUseCase) GetHistory(ctx context.Context, roomID, userID string) ([]domain.ChatMessage, error) {
	if _, err := uc.AuthorizeRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return uc.msgRepo.ListByRoom(ctx, roomID)
}

// UnreadCount total unread messages addressed to userID
func (uc *chatUseCase) UnreadCount(ctx context.Context, userID string) (int, error) {
	perRoom, err := uc.UnreadCountPerRoom(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range perRoom {
		total += n
	}
	return total, nil
}

// UnreadCountPerRoom room id -> unread, rooms without unread are omitted
func (uc *chatUseCase) UnreadCountPerRoom(ctx context.Context, userID string) (map[string]int, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user", domain.ErrInvalidArgument)
	}
	return uc.msgRepo.UnreadByRoom(ctx, userID)
}

// RoomSummaries rooms of userID, latest activity first, rooms without
// messages last (newest room first, then id)
func (uc *chatUseCase) RoomSummaries(ctx context.Context, userID string) ([]domain.RoomSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user", domain.ErrInvalidArgument)
	}

	var summaries []domain.RoomSummary
	err := uc.snapshot.ReadSnapshot(ctx, func(rooms repository.RoomRepository, messages repository.MessageRepository) error {
		list, err := rooms.ListByParticipant(ctx, userID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(list))
		for _, r := range list {
			ids = append(ids, r.ID)
		}
		last, err := messages.LastByRooms(ctx, ids)
		if err != nil {
			return err
		}
		unread, err := messages.UnreadByRoom(ctx, userID)
		if err != nil {
			return err
		}

		summaries = make([]domain.RoomSummary, 0, len(list))
		for _, r := range list {
			s := domain.RoomSummary{
				Room:             r,
				OtherParticipant: r.OtherParticipant(userID),
				UnreadCount:      unread[r.ID],
			}
			if m, ok := last[r.ID]; ok {
				m := m
				s.LastMessage = &m
			}
			summaries = append(summaries, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortSummaries(summaries)
	return summaries, nil
}

func sortSummaries(s []domain.RoomSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		switch {
		case a.LastMessage != nil && b.LastMessage != nil:
			if !a.LastMessage.SentAt.Equal(b.LastMessage.SentAt) {
				return a.LastMessage.SentAt.After(b.LastMessage.SentAt)
			}
			return a.LastMessage.ID > b.LastMessage.ID
		case a.LastMessage != nil:
			return true
		case b.LastMessage != nil:
			return false
		}
		if !a.Room.CreatedAt.Equal(b.Room.CreatedAt) {
			return a.Room.CreatedAt.After(b.Room.CreatedAt)
		}
		return a.Room.ID < b.Room.ID
	})
}

// DeliverPending mark every undelivered message addressed to userID
func (uc *chatUseCase) DeliverPending(ctx context.Context, userID string) ([]domain.DeliveryReceipt, error) {
	pending, err := uc.msgRepo.ListUndelivered(ctx, userID)
	if err != nil {
		return nil, err
	}

	receipts := make([]domain.DeliveryReceipt, 0, len(pending))
	for i := range pending {
		r, err := uc.advanceDelivered(ctx, &pending[i], userID)
		if err != nil {
			return receipts, err
		}
		if r != nil {
			receipts = append(receipts, *r)
		}
	}
	return receipts, nil
}

func validateUUID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed %s %q", domain.ErrInvalidArgument, what, id)
	}
	return nil
}

func validateULID(id, what string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: malformed %s %q", domain.ErrInvalidArgument, what, id)
	}
	return nil
}
