package repository

import (
	"context"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/config"

	"gorm.io/gorm"
)

// ReactionRepository definition chat message reaction
type ReactionRepository interface {
	// UpsertReaction insert, or overwrite type + created_at of the (message, user) row
	UpsertReaction(ctx context.Context, reaction *domain.ChatMessageReaction) (*domain.ChatMessageReaction, error)
	RemoveReaction(ctx context.Context, messageID, userID string) (bool, error)
	ListByMessage(ctx context.Context, messageID string) ([]domain.ChatMessageReaction, error)
}

type reactionRepository struct {
	store Store[domain.ChatMessageReaction]
}

// NewReactionRepository create gorm reaction repository
func NewReactionRepository(db *gorm.DB, policy config.StoreConfig) ReactionRepository {
	return &reactionRepository{store: NewGormStore[domain.ChatMessageReaction](db, policy)}
}

// UpsertReaction returns the stored row, whose id is the original one on overwrite
func (r *reactionRepository) UpsertReaction(ctx context.Context, reaction *domain.ChatMessageReaction) (*domain.ChatMessageReaction, error) {
	err := r.store.Upsert(ctx, reaction,
		[]string{"message_id", "user_id"},
		[]string{"type", "created_at"},
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.store.Query(ctx, Query{
		Where: "message_id = ? AND user_id = ?",
		Args:  []interface{}{reaction.MessageID, reaction.UserID},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

// RemoveReaction delete the (message, user) row, false when none existed
func (r *reactionRepository) RemoveReaction(ctx context.Context, messageID, userID string) (bool, error) {
	n, err := r.store.Delete(ctx, Query{
		Where: "message_id = ? AND user_id = ?",
		Args:  []interface{}{messageID, userID},
	})
	return n > 0, err
}

// ListByMessage reactions of a message, oldest first
func (r *reactionRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.ChatMessageReaction, error) {
	return r.store.Query(ctx, Query{
		Where: "message_id = ?",
		Args:  []interface{}{messageID},
		Order: "created_at ASC, id ASC",
	})
}
