package db

import (
	"fmt"

	"github.com/fsdevblog/shortlinks/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewSQLite(dbPath string) (*gorm.DB, error) {
	conn, connErr := connectSQLite(dbPath)
	if connErr != nil {
		return nil, fmt.Errorf("init database error: %w", connErr)
	}
	if migrateErr := migrateSQLite(conn); migrateErr != nil {
		return nil, fmt.Errorf("migrate database error: %w", migrateErr)
	}
	return conn, nil
}

func connectSQLite(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database with path %s error: %w", dbPath, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB for path %s: %w", dbPath, err)
	}
	// sqlite допускает одного писателя, поэтому держим одно соединение и не ловим SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func migrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Link{}); err != nil {
		return fmt.Errorf("migrating sql: %w", err)
	}
	return nil
}
