// Package sql предоставляет реализацию репозитория ссылок поверх gorm (SQLite).
//
// Все методы репозитория преобразуют ошибки gorm в общие ошибки уровня репозитория
// с помощью convertErrorType:
//   - gorm.ErrDuplicatedKey -> repositories.ErrDuplicateKey
//   - gorm.ErrRecordNotFound -> repositories.ErrNotFound
//   - другие ошибки -> repositories.ErrUnknown
//
// Соединение должно быть открыто с gorm.Config{TranslateError: true}, иначе нарушение
// уникального индекса не распознается.
package sql
