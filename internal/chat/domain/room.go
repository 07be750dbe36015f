package domain

import (
	"time"

	"estate_chat_service/pkg"

	"github.com/google/uuid"
)

// MaxIDLength column size of user and property ids (characters)
const MaxIDLength = 64

// ChatRoom 一個物件 (property) 下兩位使用者的聊天室
// participants 以字典序存放 (A < B)，讓 (property, {A,B}) 只對應一列
type ChatRoom struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PropertyID   string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_chat_rooms_pair,priority:1" json:"property_id"`
	ParticipantA string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_chat_rooms_pair,priority:2;index" json:"participant_a"`
	ParticipantB string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_chat_rooms_pair,priority:3;index" json:"participant_b"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// TableName gorm table
func (ChatRoom) TableName() string { return "chat_rooms" }

// OrderedPair return the participants in storage order
func OrderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// NewChatRoom build a room for propertyID between userA and userB
func NewChatRoom(propertyID, userA, userB string, now time.Time) *ChatRoom {
	lo, hi := OrderedPair(userA, userB)
	return &ChatRoom{
		ID:           uuid.NewString(),
		PropertyID:   propertyID,
		ParticipantA: lo,
		ParticipantB: hi,
		CreatedAt:    now,
	}
}

// Participants both user ids
func (r *ChatRoom) Participants() []string {
	return []string{r.ParticipantA, r.ParticipantB}
}

// HasParticipant check userID is one of the two participants
func (r *ChatRoom) HasParticipant(userID string) bool {
	return userID != "" && pkg.Contains(r.Participants(), userID)
}

// OtherParticipant the counterpart of userID
func (r *ChatRoom) OtherParticipant(userID string) string {
	if r.ParticipantA == userID {
		return r.ParticipantB
	}
	return r.ParticipantA
}

// Property listing row, only the owner is read by chat
type Property struct {
	ID      string `gorm:"primaryKey;type:varchar(64)"`
	OwnerID string `gorm:"type:varchar(64);not null"`
}

// TableName gorm table
func (Property) TableName() string { return "properties" }
