package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/shortlinks/internal/config"
)

type FactoryConfig struct {
	StorageType  config.StorageType
	PostgresDSN  *string
	SqliteDBPath *string
}

// NewConnectionFactory открывает хранилище нужного типа и накатывает на него схему.
//
// Возвращает:
//   - *pgxpool.Pool для config.StorageTypePostgres
//   - *gorm.DB для config.StorageTypeSQLite
//   - *MemoryStorage для config.StorageTypeInMemory
func NewConnectionFactory(ctx context.Context, fc FactoryConfig) (any, error) {
	switch fc.StorageType {
	case config.StorageTypePostgres:
		if fc.PostgresDSN == nil || *fc.PostgresDSN == "" {
			return nil, errors.New("postgres dsn is empty")
		}
		if err := MigrateUp(*fc.PostgresDSN); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		pool, err := NewPostgresConnection(ctx, *fc.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres connection: %w", err)
		}
		return pool, nil
	case config.StorageTypeSQLite:
		if fc.SqliteDBPath == nil || *fc.SqliteDBPath == "" {
			return nil, errors.New("sqlite path is empty")
		}
		conn, err := NewSQLite(*fc.SqliteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite connection: %w", err)
		}
		return conn, nil
	case config.StorageTypeInMemory:
		return NewMemStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", fc.StorageType)
	}
}
