package database

import (
	"fmt"
	"time"

	"estate_chat_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresDSN build gorm postgres dsn
func PostgresDSN(host string, port int, user, password, dbName string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbName)
}

// NewGormPostgres create a new postgreSQL connection through gorm, retry until RetryCount
func NewGormPostgres(d Connection) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	attempts := d.RetryCount
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(postgres.Open(d.ConnectStr), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			if err = ping(db); err == nil {
				return db, nil
			}
		}
		logger.Log.Warn(
			"Failed to connect to postgreSQL database, retrying...",
			zap.Int("attempt", i+1),
			zap.String("host", hostOf(d.ConnectStr)),
			zap.Error(err),
		)
		time.Sleep(d.RetryInterval)
	}

	return nil, fmt.Errorf("failed to connect to postgreSQL after retries: %w", err)
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// hostOf keep the password out of logs
func hostOf(dsn string) string {
	var host string
	fmt.Sscanf(dsn, "host=%s", &host)
	return host
}
