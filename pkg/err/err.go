package errprocess

import (
	"estate_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Wrap log err with msg and return it, nil stays nil
func Wrap(msg string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	logger.Log.Error(msg, append(fields, zap.Error(err))...)
	return err
}
