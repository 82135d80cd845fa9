// Package postgres предоставляет реализацию репозитория ссылок для PostgreSQL поверх pgx.
//
// Ошибки драйвера преобразуются в ошибки уровня репозитория функцией convertErrorType:
//   - uniqueViolationCode (23505) -> repositories.ErrDuplicateKey
//   - pgx.ErrNoRows -> repositories.ErrNotFound
//   - другие ошибки -> repositories.ErrUnknown
package postgres
