package memstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/db/memory"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// LinkRepo представляет собой репозиторий для работы со ссылками в памяти.
type LinkRepo struct {
	s *db.MemoryStorage
}

// NewLinkRepo создает новый экземпляр репозитория ссылок.
//
// Параметры:
//   - store: экземпляр хранилища в памяти
//
// Возвращает:
//   - *LinkRepo: инициализированный репозиторий
func NewLinkRepo(store *db.MemoryStorage) *LinkRepo {
	return &LinkRepo{
		s: store,
	}
}

// Create сохраняет новую ссылку. Если код уже занят, возвращает repositories.ErrDuplicateKey.
//
// Параметры:
//   - ctx: контекст выполнения
//   - link: ссылка для сохранения
//
// Возвращает:
//   - error: ошибка создания (преобразованная через convertErrorType)
func (l *LinkRepo) Create(ctx context.Context, link *models.Link) error {
	if err := memory.Set[models.Link](ctx, link.Code, link, l.s.MStorage); err != nil {
		return fmt.Errorf("failed to create link `%s`: %w", link.Code, convertErrorType(err))
	}
	return nil
}

// ExistsByCode проверяет, занят ли код.
func (l *LinkRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, convertErrorType(err)
	}
	return l.s.IsExist(code), nil
}

// GetByCode получает ссылку по короткому коду.
//
// Параметры:
//   - ctx: контекст выполнения
//   - code: короткий код
//
// Возвращает:
//   - *models.Link: найденная запись
//   - error: ошибка поиска (преобразованная через convertErrorType)
func (l *LinkRepo) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	link, err := memory.Get[models.Link](ctx, code, l.s.MStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to get link by code %s: %w", code, convertErrorType(err))
	}
	return link, nil
}

// List возвращает ссылки, подходящие под search, новые первыми.
//
// Параметры:
//   - ctx: контекст выполнения
//   - search: подстрока для поиска по коду и URL; пустая строка означает все записи
//
// Возвращает:
//   - []models.Link: найденные записи (пустой слайс, если ничего не найдено)
//   - error: ошибка получения (преобразованная через convertErrorType)
func (l *LinkRepo) List(ctx context.Context, search string) ([]models.Link, error) {
	links, err := memory.FilterAll[models.Link](ctx, l.s.MStorage, func(link models.Link) bool {
		return repositories.MatchesSearch(link, search)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", convertErrorType(err))
	}
	repositories.SortNewestFirst(links)
	return links, nil
}

// DeleteByCode безвозвратно удаляет ссылку, после чего код снова свободен.
//
// Параметры:
//   - ctx: контекст выполнения
//   - code: короткий код
//
// Возвращает:
//   - error: repositories.ErrNotFound если ссылки нет
func (l *LinkRepo) DeleteByCode(ctx context.Context, code string) error {
	if err := memory.Delete(ctx, code, l.s.MStorage); err != nil {
		return fmt.Errorf("failed to delete link %s: %w", code, convertErrorType(err))
	}
	return nil
}

// IncrementClicks атомарно увеличивает счетчик переходов на 1 и обновляет время последнего перехода.
// Время последнего перехода никогда не уменьшается.
//
// Параметры:
//   - ctx: контекст выполнения
//   - code: короткий код
//   - at: время перехода
//
// Возвращает:
//   - *models.Link: ссылка после обновления
//   - error: repositories.ErrNotFound если ссылки нет
func (l *LinkRepo) IncrementClicks(ctx context.Context, code string, at time.Time) (*models.Link, error) {
	link, err := memory.Update[models.Link](ctx, code, l.s.MStorage, func(link *models.Link) error {
		link.ClickCount++
		if link.LastClickedAt == nil || at.After(*link.LastClickedAt) {
			clickedAt := at
			link.LastClickedAt = &clickedAt
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to increment clicks for %s: %w", code, convertErrorType(err))
	}
	return link, nil
}

// Ping проверяет доступность хранилища.
func (l *LinkRepo) Ping(ctx context.Context) error {
	return l.s.Ping(ctx) //nolint:wrapcheck
}

// Backup сохраняет содержимое хранилища в файл. Запись идет во временный файл,
// который затем переименовывается, чтобы не оставить обрезанный бекап.
//
// Параметры:
//   - ctx: контекст выполнения
//   - path: путь к файлу бекапа
//
// Возвращает:
//   - error: ошибка записи
func (l *LinkRepo) Backup(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".links-backup-*")
	if err != nil {
		return fmt.Errorf("create temp backup file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if snapErr := l.s.Snapshot(tmp); snapErr != nil {
		_ = tmp.Close()
		return fmt.Errorf("write backup: %w", snapErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		return fmt.Errorf("close backup file: %w", closeErr)
	}
	if renameErr := os.Rename(tmp.Name(), path); renameErr != nil {
		return fmt.Errorf("move backup to `%s`: %w", path, renameErr)
	}
	return nil
}

// Restore загружает содержимое хранилища из файла бекапа. Отсутствующий файл ошибкой не считается.
//
// Параметры:
//   - ctx: контекст выполнения
//   - path: путь к файлу бекапа
//
// Возвращает:
//   - error: ошибка чтения или разбора файла
func (l *LinkRepo) Restore(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	if restoreErr := l.s.Restore(f); restoreErr != nil {
		return fmt.Errorf("restore backup from `%s`: %w", path, restoreErr)
	}
	return nil
}
