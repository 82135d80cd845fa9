package controllers

import (
	"context"

	"github.com/fsdevblog/shortlinks/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocksctrl/store.go -package=mocksctrl

// ConnectionChecker проверяет доступность хранилища.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) error
}

// LinkRegistry реестр коротких ссылок, с которым работают контроллеры.
type LinkRegistry interface {
	// Create создает ссылку; пустой customCode означает генерацию кода.
	Create(ctx context.Context, targetURL, customCode string) (*models.Link, error)
	List(ctx context.Context, search string) ([]models.Link, error)
	GetByCode(ctx context.Context, code string) (*models.Link, error)
	Delete(ctx context.Context, code string) error
	// ResolveAndRecordClick возвращает целевой URL и засчитывает переход.
	ResolveAndRecordClick(ctx context.Context, code string) (string, error)
}
