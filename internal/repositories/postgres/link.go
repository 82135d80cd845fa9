package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fsdevblog/shortlinks/internal/models"
)

const linkColumns = `id, code, target_url, click_count, last_clicked_at, created_at`

// LinkRepo репозиторий ссылок поверх пула pgx.
type LinkRepo struct {
	pool *pgxpool.Pool
}

// NewLinkRepo создает новый экземпляр репозитория ссылок.
//
// Параметры:
//   - pool: пул подключений, схема которого уже накачена миграциями
//
// Возвращает:
//   - *LinkRepo: инициализированный репозиторий
func NewLinkRepo(pool *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

// Create сохраняет новую ссылку. Занятый код дает repositories.ErrDuplicateKey
// за счет уникального индекса idx_links_code.
func (l *LinkRepo) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := l.pool.Exec(ctx, query,
		link.ID,
		link.Code,
		link.TargetURL,
		link.ClickCount,
		link.LastClickedAt,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create link `%s`: %w", link.Code, convertErrorType(err))
	}
	return nil
}

// ExistsByCode проверяет, занят ли код.
func (l *LinkRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code %s: %w", code, convertErrorType(err))
	}
	return exists, nil
}

// GetByCode получает ссылку по короткому коду.
func (l *LinkRepo) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1 LIMIT 1`
	link, err := scanLink(l.pool.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get link by code %s: %w", code, convertErrorType(err))
	}
	return link, nil
}

// List возвращает ссылки, у которых код или URL содержит search без учета регистра.
// strpos не интерпретирует % и _, поэтому поиск идет по буквальной подстроке.
//
// Параметры:
//   - ctx: контекст выполнения
//   - search: подстрока поиска; пустая строка означает все записи
//
// Возвращает:
//   - []models.Link: найденные записи, новые первыми
//   - error: ошибка получения
func (l *LinkRepo) List(ctx context.Context, search string) ([]models.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE $1 = ''
		   OR strpos(lower(code), lower($1)) > 0
		   OR strpos(lower(target_url), lower($1)) > 0
		ORDER BY created_at DESC, code ASC
	`
	rows, err := l.pool.Query(ctx, query, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", convertErrorType(err))
	}
	defer rows.Close()

	links := make([]models.Link, 0)
	for rows.Next() {
		link, scanErr := scanLink(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", convertErrorType(scanErr))
		}
		links = append(links, *link)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate link rows: %w", convertErrorType(rowsErr))
	}
	return links, nil
}

// DeleteByCode безвозвратно удаляет ссылку.
func (l *LinkRepo) DeleteByCode(ctx context.Context, code string) error {
	tag, err := l.pool.Exec(ctx, `DELETE FROM links WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete link %s: %w", code, convertErrorType(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete link %s: %w", code, convertErrorType(pgx.ErrNoRows))
	}
	return nil
}

// IncrementClicks атомарно увеличивает счетчик одним UPDATE ... RETURNING.
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
	query := `
		UPDATE links
		SET click_count = click_count + 1,
		    last_clicked_at = GREATEST(COALESCE(last_clicked_at, $2), $2)
		WHERE code = $1
		RETURNING ` + linkColumns
	link, err := scanLink(l.pool.QueryRow(ctx, query, code, at))
	if err != nil {
		return nil, fmt.Errorf("failed to increment clicks for %s: %w", code, convertErrorType(err))
	}
	return link, nil
}

// Ping проверяет доступность базы.
func (l *LinkRepo) Ping(ctx context.Context) error {
	if err := l.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", convertErrorType(err))
	}
	return nil
}

func scanLink(row pgx.Row) (*models.Link, error) {
	var link models.Link
	err := row.Scan(
		&link.ID,
		&link.Code,
		&link.TargetURL,
		&link.ClickCount,
		&link.LastClickedAt,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &link, nil
}
