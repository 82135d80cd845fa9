// Package memstore предоставляет реализацию репозитория ссылок для in-memory хранилища.
//
// Все методы репозитория преобразуют внутренние ошибки хранилища в общие ошибки уровня репозитория
// с помощью convertErrorType:
//   - memory.ErrDuplicateKey -> repositories.ErrDuplicateKey
//   - memory.ErrNotFound -> repositories.ErrNotFound
//   - другие ошибки -> repositories.ErrUnknown
//
// Ключом записи служит короткий код, поэтому уникальность кода обеспечивает само хранилище.
package memstore
