package domain

// Action websocket request action
type Action string

const (
	// JoinRoom websocket action join-room
	JoinRoom Action = "join-room"
	// LeaveRoom websocket action leave-room
	LeaveRoom Action = "leave-room"

	// SendMessage websocket action send-message
	SendMessage Action = "send-message"
	// MarkDelivered websocket action mark-delivered
	MarkDelivered Action = "mark-delivered"
	// MarkRead websocket action mark-read
	MarkRead Action = "mark-read"

	// AddReaction websocket action add-reaction
	AddReaction Action = "add-reaction"
	// RemoveReaction websocket action remove-reaction
	RemoveReaction Action = "remove-reaction"

	// Typing websocket action typing
	Typing Action = "typing"
	// GetOnlineUsers websocket action get-online-users
	GetOnlineUsers Action = "get-online-users"
	// UpdateLastSeen websocket action update-last-seen
	UpdateLastSeen Action = "update-last-seen"
)

// WSRequest websocket Request
type WSRequest struct {
	Action      string  `json:"action"`
	RequestID   string  `json:"request_id,omitempty"`
	RoomID      string  `json:"room_id,omitempty"`
	MessageID   string  `json:"message_id,omitempty"`
	Body        string  `json:"body,omitempty"`
	RepliedToID *string `json:"replied_to_id,omitempty"`
	Type        string  `json:"type,omitempty"`
	IsTyping    bool    `json:"is_typing,omitempty"`
}

// WSResponse websocket Response, command acks and server events share it
type WSResponse struct {
	Action    string      `json:"action"`
	RequestID string      `json:"request_id,omitempty"`
	Success   bool        `json:"success"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
}
