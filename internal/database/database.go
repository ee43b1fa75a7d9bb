package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chantierdirect/backend/internal/config"
	"github.com/chantierdirect/backend/internal/database/migrations"
)

// NewGormLogger sends gorm's query log through zap. SQL traces are only
// written in debug mode; slow queries and errors always are.
func NewGormLogger(zl *zap.Logger, debug bool) logger.Interface {
	if zl == nil {
		zl = zap.NewNop()
	}
	level, at := logger.Warn, zapcore.WarnLevel
	if debug {
		level, at = logger.Info, zapcore.InfoLevel
	}
	std, err := zap.NewStdLogAt(zl.Named("gorm"), at)
	if err != nil {
		std = zap.NewStdLog(zl.Named("gorm"))
	}
	return logger.New(std, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig, debug bool, zl *zap.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         NewGormLogger(zl, debug),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate runs all schema migrations
func Migrate(db *gorm.DB) error {
	return migrations.RunMigrations(db)
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
