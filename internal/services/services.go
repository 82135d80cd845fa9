package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/repositories/memstore"
	"github.com/fsdevblog/shortlinks/internal/repositories/postgres"
	"github.com/fsdevblog/shortlinks/internal/repositories/sql"
)

// Backuper сохраняет и восстанавливает содержимое хранилища в памяти.
type Backuper interface {
	Backup(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}

type Services struct {
	LinkService *LinkService
	PingService *PingService
	// Backuper заполнен только для хранилища в памяти.
	Backuper Backuper
}

// Factory собирает сервисы поверх соединения, созданного db.NewConnectionFactory.
// Хранилище выбирается по типу соединения.
//
// Параметры:
//   - conn: *pgxpool.Pool, *gorm.DB или *db.MemoryStorage
//   - opts: опции сервиса ссылок
//
// Возвращает:
//   - *Services: набор сервисов
//   - error: ошибка неизвестного типа соединения
func Factory(conn any, opts ...func(*LinkServiceOptions)) (*Services, error) {
	switch c := conn.(type) {
	case *pgxpool.Pool:
		return newServices(postgres.NewLinkRepo(c), nil, opts...), nil
	case *gorm.DB:
		return newServices(sql.NewLinkRepo(c), nil, opts...), nil
	case *db.MemoryStorage:
		repo := memstore.NewLinkRepo(c)
		return newServices(repo, repo, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported connection type %T", conn)
	}
}

func newServices(repo LinkRepository, backuper Backuper, opts ...func(*LinkServiceOptions)) *Services {
	return &Services{
		LinkService: NewLinkService(repo, opts...),
		PingService: NewPingService(repo),
		Backuper:    backuper,
	}
}
