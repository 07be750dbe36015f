package domain

import "time"

// UserConnection connect / disconnect audit row (mongo)
type UserConnection struct {
	ID             string     `bson:"_id" json:"id"`
	UserID         string     `bson:"user_id" json:"user_id"`
	ConnectedAt    time.Time  `bson:"connected_at" json:"connected_at"`
	LastSeenAt     time.Time  `bson:"last_seen_at" json:"last_seen_at"`
	DisconnectedAt *time.Time `bson:"disconnected_at,omitempty" json:"disconnected_at,omitempty"`
	Online         bool       `bson:"online" json:"online"`
	Device         string     `bson:"device,omitempty" json:"device,omitempty"`
	RemoteAddr     string     `bson:"remote_addr,omitempty" json:"remote_addr,omitempty"`
}

// ConnectionMeta optional device metadata of a live connection
type ConnectionMeta struct {
	Device     string
	RemoteAddr string
}

// RoomPresence get-online-users answer: online participants, and the stored
// last seen of the offline ones that ever connected
type RoomPresence struct {
	RoomID   string               `json:"room_id"`
	Users    []string             `json:"users"`
	LastSeen map[string]time.Time `json:"last_seen,omitempty"`
}
