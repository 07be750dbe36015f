package repository

import (
	"context"
	"time"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/config"

	"gorm.io/gorm"
)

// MessageRepository definition chat message
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error)
	// MarkDelivered set delivered_at only when still null, reports whether it advanced
	MarkDelivered(ctx context.Context, messageID string, at time.Time) (bool, error)
	// MarkRead set read_at only when still null, delivered_at is filled if skipped
	MarkRead(ctx context.Context, messageID string, at time.Time) (bool, error)
	ListUndelivered(ctx context.Context, recipientID string) ([]domain.ChatMessage, error)
	UnreadByRoom(ctx context.Context, userID string) (map[string]int, error)
	LastByRooms(ctx context.Context, roomIDs []string) (map[string]domain.ChatMessage, error)
}

type messageRepository struct {
	db     *gorm.DB
	policy config.StoreConfig
	store  Store[domain.ChatMessage]
}

// NewMessageRepository create gorm message repository
func NewMessageRepository(db *gorm.DB, policy config.StoreConfig) MessageRepository {
	policy = policy.WithDefaults()
	return &messageRepository{
		db:     db,
		policy: policy,
		store:  NewGormStore[domain.ChatMessage](db, policy),
	}
}

// CreateMessage insert message without its reactions
func (r *messageRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	return withRetry(ctx, r.policy, false, func() error {
		return r.db.WithContext(context.WithoutCancel(ctx)).Omit("Reactions").Create(msg).Error
	})
}

// FindByID find message by id
func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	return r.store.GetByID(ctx, messageID)
}

// ListByRoom full history ascending by sent_at, ties by id, reactions embedded
func (r *messageRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	msgs, err := r.store.Query(ctx, Query{
		Where:   "room_id = ?",
		Args:    []interface{}{roomID},
		Preload: []string{"Reactions"},
		Order:   "sent_at ASC, id ASC",
	})
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].Reactions == nil {
			msgs[i].Reactions = []domain.ChatMessageReaction{}
		}
	}
	return msgs, nil
}

// MarkDelivered set delivered_at when null
func (r *messageRepository) MarkDelivered(ctx context.Context, messageID string, at time.Time) (bool, error) {
	n, err := r.store.UpdateWhere(ctx, Query{
		Where: "id = ? AND delivered_at IS NULL",
		Args:  []interface{}{messageID},
	}, map[string]interface{}{"delivered_at": at})
	return n > 0, err
}

// MarkRead set read_at when null
func (r *messageRepository) MarkRead(ctx context.Context, messageID string, at time.Time) (bool, error) {
	n, err := r.store.UpdateWhere(ctx, Query{
		Where: "id = ? AND read_at IS NULL",
		Args:  []interface{}{messageID},
	}, map[string]interface{}{
		"read_at":      at,
		"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
	})
	return n > 0, err
}

// ListUndelivered messages addressed to recipientID not yet delivered
func (r *messageRepository) ListUndelivered(ctx context.Context, recipientID string) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	err := withRetry(ctx, r.policy, true, func() error {
		msgs = msgs[:0]
		return r.db.WithContext(ctx).
			Table("chat_messages AS m").
			Select("m.*").
			Joins("JOIN chat_rooms AS r ON r.id = m.room_id").
			Where("(r.participant_a = ? OR r.participant_b = ?) AND m.sender_id <> ? AND m.delivered_at IS NULL",
				recipientID, recipientID, recipientID).
			Order("m.sent_at ASC, m.id ASC").
			Find(&msgs).Error
	})
	return msgs, err
}

type roomCount struct {
	RoomID string
	Unread int
}

// UnreadByRoom room_id -> messages from the other side with read_at null
func (r *messageRepository) UnreadByRoom(ctx context.Context, userID string) (map[string]int, error) {
	var rows []roomCount
	err := withRetry(ctx, r.policy, true, func() error {
		rows = rows[:0]
		return r.db.WithContext(ctx).
			Table("chat_messages AS m").
			Select("m.room_id AS room_id, COUNT(*) AS unread").
			Joins("JOIN chat_rooms AS r ON r.id = m.room_id").
			Where("(r.participant_a = ? OR r.participant_b = ?) AND m.sender_id <> ? AND m.read_at IS NULL",
				userID, userID, userID).
			Group("m.room_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.RoomID] = row.Unread
	}
	return out, nil
}

// LastByRooms latest message (sent_at, id) per room
func (r *messageRepository) LastByRooms(ctx context.Context, roomIDs []string) (map[string]domain.ChatMessage, error) {
	out := make(map[string]domain.ChatMessage, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}

	var msgs []domain.ChatMessage
	err := withRetry(ctx, r.policy, true, func() error {
		msgs = msgs[:0]
		return r.db.WithContext(ctx).
			Table("chat_messages AS m").
			Select("m.*").
			Where("m.room_id IN ?", roomIDs).
			Where(`NOT EXISTS (SELECT 1 FROM chat_messages AS n WHERE n.room_id = m.room_id
				AND (n.sent_at > m.sent_at OR (n.sent_at = m.sent_at AND n.id > m.id)))`).
			Find(&msgs).Error
	})
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.RoomID] = m
	}
	return out, nil
}
