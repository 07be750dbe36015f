package repository

import (
	"context"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/config"

	"gorm.io/gorm"
)

// RoomRepository definition chat room
type RoomRepository interface {
	CreateRoom(ctx context.Context, room *domain.ChatRoom) error
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	FindByPair(ctx context.Context, propertyID, userA, userB string) (*domain.ChatRoom, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.ChatRoom, error)
}

type roomRepository struct {
	store Store[domain.ChatRoom]
}

// NewRoomRepository create gorm room repository
func NewRoomRepository(db *gorm.DB, policy config.StoreConfig) RoomRepository {
	return &roomRepository{store: NewGormStore[domain.ChatRoom](db, policy)}
}

// CreateRoom insert room, a duplicate pair fails on uq_chat_rooms_pair
func (r *roomRepository) CreateRoom(ctx context.Context, room *domain.ChatRoom) error {
	return r.store.Create(ctx, room)
}

// FindByID find room by id
func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	return r.store.GetByID(ctx, roomID)
}

// FindByPair find the room of property between the unordered pair
func (r *roomRepository) FindByPair(ctx context.Context, propertyID, userA, userB string) (*domain.ChatRoom, error) {
	lo, hi := domain.OrderedPair(userA, userB)
	rooms, err := r.store.Query(ctx, Query{
		Where: "property_id = ? AND participant_a = ? AND participant_b = ?",
		Args:  []interface{}{propertyID, lo, hi},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rooms[0], nil
}

// ListByParticipant rooms where userID is A or B
func (r *roomRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	return r.store.Query(ctx, Query{
		Where: "participant_a = ? OR participant_b = ?",
		Args:  []interface{}{userID, userID},
		Order: "created_at DESC, id ASC",
	})
}
