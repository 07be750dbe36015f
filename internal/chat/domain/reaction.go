package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxReactionTypeLength column size of a reaction type (characters)
const MaxReactionTypeLength = 32

// ChatMessageReaction 每位使用者對同一則訊息最多一筆
type ChatMessageReaction struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	MessageID string    `gorm:"type:varchar(26);not null;uniqueIndex:uq_chat_reactions_message_user,priority:1" json:"message_id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_chat_reactions_message_user,priority:2" json:"user_id"`
	Type      string    `gorm:"type:varchar(32);not null" json:"type"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// RoomID filled by the service for fan-out, not stored
	RoomID string `gorm:"-" json:"room_id,omitempty"`
}

// TableName gorm table
func (ChatMessageReaction) TableName() string { return "chat_message_reactions" }

// NewChatMessageReaction build a reaction row
func NewChatMessageReaction(messageID, userID, reactionType string, now time.Time) *ChatMessageReaction {
	return &ChatMessageReaction{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Type:      reactionType,
		CreatedAt: now,
	}
}

// ReactionRemoval returned when a reaction row was deleted
type ReactionRemoval struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
}
