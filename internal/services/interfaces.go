package services

import (
	"context"
	"time"

	"github.com/fsdevblog/shortlinks/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock.go -package=mocks

// LinkRepository описывает хранилище ссылок.
type LinkRepository interface {
	// Create сохраняет ссылку. Занятый код дает repositories.ErrDuplicateKey.
	Create(ctx context.Context, link *models.Link) error
	// ExistsByCode проверяет, занят ли код.
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// GetByCode находит ссылку по коду, repositories.ErrNotFound если ее нет.
	GetByCode(ctx context.Context, code string) (*models.Link, error)
	// List возвращает ссылки, подходящие под search, новые первыми.
	List(ctx context.Context, search string) ([]models.Link, error)
	// DeleteByCode безвозвратно удаляет ссылку.
	DeleteByCode(ctx context.Context, code string) error
	// IncrementClicks атомарно увеличивает счетчик и обновляет время последнего перехода.
	IncrementClicks(ctx context.Context, code string, at time.Time) (*models.Link, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// MetricsRecorder принимает доменные события сервиса ссылок.
type MetricsRecorder interface {
	LinkCreated(custom bool)
	CodeCollision()
	Redirect()
}
