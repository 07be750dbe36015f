package repository

import (
	"estate_chat_service/internal/chat/domain"
	errprocess "estate_chat_service/pkg/err"

	"gorm.io/gorm"
)

// AutoMigrate create / update chat tables
func AutoMigrate(db *gorm.DB) error {
	return errprocess.Wrap("auto migrate chat tables", db.AutoMigrate(
		&domain.ChatRoom{},
		&domain.ChatMessage{},
		&domain.ChatMessageReaction{},
	))
}
