package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fsdevblog/shortlinks/internal/repositories"
)

const uniqueViolationCode = "23505"

func convertErrorType(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode:
		return fmt.Errorf("%w: %w", repositories.ErrDuplicateKey, err)
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %w", repositories.ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", repositories.ErrUnknown, err)
	}
}
