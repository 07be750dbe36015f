package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/config"
	"estate_chat_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query predicate query against one table
type Query struct {
	Where   string
	Args    []interface{}
	Preload []string
	Order   string
	Limit   int
	Offset  int
}

// Store generic record store: create / getById / update / delete / query
type Store[T any] interface {
	Create(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, record *T) error
	UpdateWhere(ctx context.Context, q Query, values map[string]interface{}) (int64, error)
	Upsert(ctx context.Context, record *T, conflict []string, update []string) error
	Delete(ctx context.Context, q Query) (int64, error)
	Query(ctx context.Context, q Query) ([]T, error)
}

// GormStore Store backed by gorm
type GormStore[T any] struct {
	db     *gorm.DB
	policy config.StoreConfig
}

// NewGormStore create GormStore
func NewGormStore[T any](db *gorm.DB, policy config.StoreConfig) *GormStore[T] {
	return &GormStore[T]{db: db, policy: policy.WithDefaults()}
}

// Create insert record
func (s *GormStore[T]) Create(ctx context.Context, record *T) error {
	return withRetry(ctx, s.policy, false, func() error {
		return s.db.WithContext(context.WithoutCancel(ctx)).Create(record).Error
	})
}

// GetByID find by primary key, domain.ErrNotFound when absent
func (s *GormStore[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var record T
	err := withRetry(ctx, s.policy, true, func() error {
		return s.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update save every column of record
func (s *GormStore[T]) Update(ctx context.Context, record *T) error {
	return withRetry(ctx, s.policy, false, func() error {
		return s.db.WithContext(context.WithoutCancel(ctx)).Save(record).Error
	})
}

// UpdateWhere conditional update, returns affected rows
func (s *GormStore[T]) UpdateWhere(ctx context.Context, q Query, values map[string]interface{}) (int64, error) {
	var affected int64
	err := withRetry(ctx, s.policy, false, func() error {
		res := s.db.WithContext(context.WithoutCancel(ctx)).Model(new(T)).Where(q.Where, q.Args...).Updates(values)
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// Upsert insert or overwrite update columns on a unique conflict
func (s *GormStore[T]) Upsert(ctx context.Context, record *T, conflict []string, update []string) error {
	cols := make([]clause.Column, 0, len(conflict))
	for _, c := range conflict {
		cols = append(cols, clause.Column{Name: c})
	}
	return withRetry(ctx, s.policy, false, func() error {
		return s.db.WithContext(context.WithoutCancel(ctx)).Clauses(clause.OnConflict{
			Columns:   cols,
			DoUpdates: clause.AssignmentColumns(update),
		}).Create(record).Error
	})
}

// Delete delete by predicate, returns affected rows
func (s *GormStore[T]) Delete(ctx context.Context, q Query) (int64, error) {
	if q.Where == "" {
		return 0, fmt.Errorf("%w: delete without predicate", domain.ErrInvalidArgument)
	}
	var affected int64
	err := withRetry(ctx, s.policy, false, func() error {
		res := s.db.WithContext(context.WithoutCancel(ctx)).Where(q.Where, q.Args...).Delete(new(T))
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// Query run predicate query with preload / order / pagination
func (s *GormStore[T]) Query(ctx context.Context, q Query) ([]T, error) {
	var records []T
	err := withRetry(ctx, s.policy, true, func() error {
		records = records[:0]
		tx := s.db.WithContext(ctx).Model(new(T))
		if q.Where != "" {
			tx = tx.Where(q.Where, q.Args...)
		}
		for _, p := range q.Preload {
			tx = tx.Preload(p, func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at ASC, id ASC")
			})
		}
		if q.Order != "" {
			tx = tx.Order(q.Order)
		}
		if q.Limit > 0 {
			tx = tx.Limit(q.Limit)
		}
		if q.Offset > 0 {
			tx = tx.Offset(q.Offset)
		}
		return tx.Find(&records).Error
	})
	return records, err
}

// withRetry run op, retrying transient failures up to policy.RetryCount
// times. Writes are retried only when the driver reports the statement was
// never sent (driver.ErrBadConn).
func withRetry(ctx context.Context, policy config.StoreConfig, idempotent bool, op func() error) error {
	var err error
	for attempt := 1; attempt <= policy.RetryCount; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		if !isTransient(err, idempotent) {
			return err
		}

		logger.Log.Warn("store transient failure, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == policy.RetryCount {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, ctx.Err())
		case <-time.After(policy.RetryInterval * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

func isTransient(err error, idempotent bool) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if !idempotent {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
