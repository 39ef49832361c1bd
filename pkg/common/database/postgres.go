package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/synaptica-ai/cardiorisk/pkg/common/config"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	db     *gorm.DB
	dbOnce sync.Once
	dbErr  error
)

// PostgresDSN renders the libpq connection string for cfg.
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.PostgresHost,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDB,
		cfg.PostgresPort,
		cfg.PostgresSSLMode,
	)
}

func GetPostgres(cfg *config.Config) (*gorm.DB, error) {
	dbOnce.Do(func() {
		db, dbErr = gorm.Open(postgres.Open(PostgresDSN(cfg)), &gorm.Config{})
		if dbErr != nil {
			logger.Log.WithError(dbErr).Error("Failed to connect to PostgreSQL")
			return
		}

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetMaxIdleConns(5)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}

		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.PostgresHost,
			"db":   cfg.PostgresDB,
		}).Info("Connected to PostgreSQL")
	})

	return db, dbErr
}

func ClosePostgres() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
