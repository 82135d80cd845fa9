package sql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fsdevblog/shortlinks/internal/models"
)

// LinkRepo репозиторий ссылок поверх gorm.
type LinkRepo struct {
	db *gorm.DB
}

// NewLinkRepo создает новый экземпляр репозитория ссылок.
//
// Параметры:
//   - db: соединение gorm, открытое с TranslateError
//
// Возвращает:
//   - *LinkRepo: инициализированный репозиторий
func NewLinkRepo(db *gorm.DB) *LinkRepo {
	return &LinkRepo{db: db}
}

// Create сохраняет новую ссылку. Уникальность кода гарантирует индекс idx_links_code.
func (l *LinkRepo) Create(ctx context.Context, link *models.Link) error {
	row := *link
	// время храним в UTC, иначе строковое сравнение в sqlite ломает сортировку
	row.CreatedAt = row.CreatedAt.UTC()
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create link `%s`: %w", link.Code, convertErrorType(err))
	}
	return nil
}

// ExistsByCode проверяет, занят ли код.
func (l *LinkRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.Link{}).
		Where("code = ?", code).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check code %s: %w", code, convertErrorType(err))
	}
	return count > 0, nil
}

// GetByCode получает ссылку по короткому коду. Сравнение кода регистрозависимое.
func (l *LinkRepo) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	if err := l.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		return nil, fmt.Errorf("failed to get link by code %s: %w", code, convertErrorType(err))
	}
	return &link, nil
}

// List возвращает ссылки, у которых код или URL содержит search без учета регистра.
// Порядок: created_at по убыванию, затем code по возрастанию.
//
// Параметры:
//   - ctx: контекст выполнения
//   - search: подстрока поиска; пустая строка означает все записи
//
// Возвращает:
//   - []models.Link: найденные записи (пустой слайс, если ничего не найдено)
//   - error: ошибка получения
func (l *LinkRepo) List(ctx context.Context, search string) ([]models.Link, error) {
	links := make([]models.Link, 0)
	query := l.db.WithContext(ctx).Order("created_at DESC").Order("code ASC")
	if search != "" {
		// instr вместо LIKE: символы % и _ в поиске остаются обычными символами
		query = query.Where(
			"instr(lower(code), lower(?)) > 0 OR instr(lower(target_url), lower(?)) > 0",
			search, search,
		)
	}
	if err := query.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list links: %w", convertErrorType(err))
	}
	return links, nil
}

// DeleteByCode безвозвратно удаляет ссылку.
func (l *LinkRepo) DeleteByCode(ctx context.Context, code string) error {
	res := l.db.WithContext(ctx).Where("code = ?", code).Delete(&models.Link{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete link %s: %w", code, convertErrorType(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete link %s: %w", code, convertErrorType(gorm.ErrRecordNotFound))
	}
	return nil
}

// IncrementClicks увеличивает счетчик одним UPDATE и возвращает обновленную запись.
// last_clicked_at не уменьшается при переходах, пришедших не по порядку.
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
	at = at.UTC()
	var link models.Link
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).
			Where("code = ?", code).
			UpdateColumns(map[string]any{
				"click_count": gorm.Expr("click_count + 1"),
				"last_clicked_at": gorm.Expr(
					"CASE WHEN last_clicked_at IS NULL OR last_clicked_at < ? THEN ? ELSE last_clicked_at END",
					at, at,
				),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("code = ?", code).First(&link).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to increment clicks for %s: %w", code, convertErrorType(err))
	}
	return &link, nil
}

// Ping проверяет доступность базы.
func (l *LinkRepo) Ping(ctx context.Context) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		return fmt.Errorf("ping sqlite: %w", convertErrorType(pingErr))
	}
	return nil
}
