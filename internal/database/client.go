// Package database holds the GORM connection and models for the PostgreSQL session store.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/rehabtrack/internal/log"
	"go.uber.org/zap"
)

// NewGormLogger routes GORM's SQL log through the zap base logger
func NewGormLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true, // not-found is an expected lookup result
			Colorful:                  false,
		},
	)
}

// CreateConnection opens a PostgreSQL connection with the standard GORM configuration
// and migrates the session schema
func CreateConnection(connectionString string) (*gorm.DB, error) {
	log.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger:         NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create a PostgreSQL connection: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connection successful")

	return db, nil
}

// Migrate creates or updates the tables for every model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserRecord{}, &SessionRecord{}); err != nil {
		return fmt.Errorf("error migrating session schema: %w", err)
	}
	return nil
}
