package repository

import (
	"context"
	"database/sql"

	"estate_chat_service/pkg/config"

	"gorm.io/gorm"
)

// Snapshotter run reads against one consistent view of the store
type Snapshotter interface {
	ReadSnapshot(ctx context.Context, fn func(rooms RoomRepository, messages MessageRepository) error) error
}

type gormSnapshotter struct {
	db     *gorm.DB
	policy config.StoreConfig
}

// NewSnapshotter create gorm snapshotter
func NewSnapshotter(db *gorm.DB, policy config.StoreConfig) Snapshotter {
	return &gormSnapshotter{db: db, policy: policy.WithDefaults()}
}

// ReadSnapshot run fn inside a read only transaction; on postgres the
// transaction is REPEATABLE READ so every query sees the same snapshot
func (s *gormSnapshotter) ReadSnapshot(ctx context.Context, fn func(rooms RoomRepository, messages MessageRepository) error) error {
	var opts []*sql.TxOptions
	if s.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRoomRepository(tx, s.policy), NewMessageRepository(tx, s.policy))
	}, opts...)
}
