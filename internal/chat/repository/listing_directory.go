package repository

import (
	"context"

	"estate_chat_service/internal/chat/domain"
	"estate_chat_service/pkg/config"

	"gorm.io/gorm"
)

// ListingDirectory read only view on the listing catalogue
type ListingDirectory interface {
	OwnerOf(ctx context.Context, propertyID string) (string, error)
}

type listingDirectory struct {
	store Store[domain.Property]
}

// NewListingDirectory create gorm listing directory over the properties table
func NewListingDirectory(db *gorm.DB, policy config.StoreConfig) ListingDirectory {
	return &listingDirectory{store: NewGormStore[domain.Property](db, policy)}
}

// OwnerOf owner id of propertyID, domain.ErrNotFound when unknown
func (l *listingDirectory) OwnerOf(ctx context.Context, propertyID string) (string, error) {
	p, err := l.store.GetByID(ctx, propertyID)
	if err != nil {
		return "", err
	}
	return p.OwnerID, nil
}
