package domain

import "time"

// Event server -> client event, implemented only in this package
type Event interface {
	EventName() string
	isEvent()
}

// Audience 推播對象: 單一聊天室群組或全部連線
type Audience struct {
	RoomID string
	Global bool
}

// RoomAudience members joined to roomID
func RoomAudience(roomID string) Audience { return Audience{RoomID: roomID} }

// GlobalAudience every live connection
func GlobalAudience() Audience { return Audience{Global: true} }

// NewMessageEvent new-message
type NewMessageEvent struct {
	MessageID   string    `json:"message_id"`
	RoomID      string    `json:"room_id"`
	SenderID    string    `json:"sender_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
	RepliedToID *string   `json:"replied_to_id,omitempty"`
}

// MessageDeliveredEvent message-delivered
type MessageDeliveredEvent struct {
	MessageID   string    `json:"message_id"`
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// MessageReadEvent message-read
type MessageReadEvent struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

// ReactionAddedEvent reaction-added
type ReactionAddedEvent struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
}

// ReactionRemovedEvent reaction-removed
type ReactionRemovedEvent struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
}

// UserTypingEvent user-typing
type UserTypingEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// UserJoinedEvent user-joined
type UserJoinedEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// UserLeftEvent user-left
type UserLeftEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// UserOnlineStatusEvent user-online-status (global)
type UserOnlineStatusEvent struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

// UserLastSeenEvent user-last-seen (global)
type UserLastSeenEvent struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// ErrorEvent error, sent only to the connection that issued the command
type ErrorEvent struct {
	Message string `json:"message"`
}

// EventName wire name
func (NewMessageEvent) EventName() string { return "new-message" }

// EventName wire name
func (MessageDeliveredEvent) EventName() string { return "message-delivered" }

// EventName wire name
func (MessageReadEvent) EventName() string { return "message-read" }

// EventName wire name
func (ReactionAddedEvent) EventName() string { return "reaction-added" }

// EventName wire name
func (ReactionRemovedEvent) EventName() string { return "reaction-removed" }

// EventName wire name
func (UserTypingEvent) EventName() string { return "user-typing" }

// EventName wire name
func (UserJoinedEvent) EventName() string { return "user-joined" }

// EventName wire name
func (UserLeftEvent) EventName() string { return "user-left" }

// EventName wire name
func (UserOnlineStatusEvent) EventName() string { return "user-online-status" }

// EventName wire name
func (UserLastSeenEvent) EventName() string { return "user-last-seen" }

// EventName wire name
func (ErrorEvent) EventName() string { return "error" }

func (NewMessageEvent) isEvent()       {}
func (MessageDeliveredEvent) isEvent() {}
func (MessageReadEvent) isEvent()      {}
func (ReactionAddedEvent) isEvent()    {}
func (ReactionRemovedEvent) isEvent()  {}
func (UserTypingEvent) isEvent()       {}
func (UserJoinedEvent) isEvent()       {}
func (UserLeftEvent) isEvent()         {}
func (UserOnlineStatusEvent) isEvent() {}
func (UserLastSeenEvent) isEvent()     {}
func (ErrorEvent) isEvent()            {}

// NewMessageEventFrom build new-message from a persisted message
func NewMessageEventFrom(m *ChatMessage) NewMessageEvent {
	return NewMessageEvent{
		MessageID:   m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		Body:        m.Body,
		SentAt:      m.SentAt,
		RepliedToID: m.RepliedToID,
	}
}

// Envelope wrap an event for the wire
func Envelope(ev Event) WSResponse {
	if e, ok := ev.(ErrorEvent); ok {
		return WSResponse{Action: e.EventName(), Success: false, Error: e.Message}
	}
	return WSResponse{Action: ev.EventName(), Success: true, Payload: ev}
}
