package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ChatMessage 聊天訊息
// DeliveredAt / ReadAt 只會由 nil 變成有值，不會被清除
type ChatMessage struct {
	ID          string                `gorm:"primaryKey;type:varchar(26)" json:"id"`
	RoomID      string                `gorm:"type:varchar(36);not null;index:idx_chat_messages_room_sent,priority:1" json:"room_id"`
	SenderID    string                `gorm:"type:varchar(64);not null;index" json:"sender_id"`
	Body        string                `gorm:"type:text;not null" json:"body"`
	SentAt      time.Time             `gorm:"not null;index:idx_chat_messages_room_sent,priority:2" json:"sent_at"`
	DeliveredAt *time.Time            `json:"delivered_at,omitempty"`
	ReadAt      *time.Time            `gorm:"index" json:"read_at,omitempty"`
	RepliedToID *string               `gorm:"type:varchar(26)" json:"replied_to_id,omitempty"`
	Reactions   []ChatMessageReaction `gorm:"foreignKey:MessageID" json:"reactions"`
}

// TableName gorm table
func (ChatMessage) TableName() string { return "chat_messages" }

// NewChatMessage build an unsent message with a time sortable id
func NewChatMessage(roomID, senderID, body string, repliedToID *string, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:          ulid.Make().String(),
		RoomID:      roomID,
		SenderID:    senderID,
		Body:        body,
		SentAt:      now,
		RepliedToID: repliedToID,
		Reactions:   []ChatMessageReaction{},
	}
}

// MessageState Sent -> Delivered -> Read
type MessageState string

const (
	// StateSent persisted, not yet seen by the recipient's client
	StateSent MessageState = "sent"
	// StateDelivered reached the recipient's client
	StateDelivered MessageState = "delivered"
	// StateRead read by the recipient
	StateRead MessageState = "read"
)

// State current delivery state
func (m *ChatMessage) State() MessageState {
	switch {
	case m.ReadAt != nil:
		return StateRead
	case m.DeliveredAt != nil:
		return StateDelivered
	default:
		return StateSent
	}
}

// DeliveryReceipt returned when delivered_at advanced
type DeliveryReceipt struct {
	MessageID   string    `json:"message_id"`
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// ReadReceipt returned when read_at advanced
type ReadReceipt struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	ReaderID  string    `json:"reader_id"`
	ReadAt    time.Time `json:"read_at"`
}

// RoomSummary 聊天室列表項目
type RoomSummary struct {
	Room             ChatRoom     `json:"room"`
	OtherParticipant string       `json:"other_participant"`
	LastMessage      *ChatMessage `json:"last_message,omitempty"`
	UnreadCount      int          `json:"unread_count"`
}
