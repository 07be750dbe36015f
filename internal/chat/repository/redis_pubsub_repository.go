package repository

import (
	"context"
	"encoding/json"
	"time"

	"estate_chat_service/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

// DefaultNotifyChannel prefix of the per user channel
const DefaultNotifyChannel = "chat:user:"

// OfflineNotifier hand off a message for a recipient without a live connection
type OfflineNotifier interface {
	NotifyOffline(ctx context.Context, recipientID string, msg *domain.ChatMessage) error
}

// OfflineNotification payload on chat:user:<id>
type OfflineNotification struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Preview   string    `json:"preview"`
	SentAt    time.Time `json:"sent_at"`
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	prefix string
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client, prefix string) *RedisPubSub {
	if prefix == "" {
		prefix = DefaultNotifyChannel
	}
	return &RedisPubSub{
		client: client,
		prefix: prefix,
	}
}

// Publish 將 message 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// NotifyOffline publish an OfflineNotification for recipientID
func (r *RedisPubSub) NotifyOffline(ctx context.Context, recipientID string, msg *domain.ChatMessage) error {
	return r.Publish(ctx, r.prefix+recipientID, NewOfflineNotification(msg))
}

// NewOfflineNotification build the payload, body trimmed to 120 runes
func NewOfflineNotification(msg *domain.ChatMessage) OfflineNotification {
	preview := []rune(msg.Body)
	if len(preview) > 120 {
		preview = preview[:120]
	}
	return OfflineNotification{
		MessageID: msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Preview:   string(preview),
		SentAt:    msg.SentAt,
	}
}
