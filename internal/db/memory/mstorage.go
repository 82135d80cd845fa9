package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
)

// MStorage потокобезопасное key/value хранилище. Значения хранятся в виде JSON, чтобы наружу
// никогда не уходили ссылки на внутренние данные.
type MStorage struct {
	data map[string][]byte
	m    sync.RWMutex
}

func NewMemStorage() *MStorage {
	return &MStorage{
		data: make(map[string][]byte),
	}
}

func (m *MStorage) IsExist(key string) bool {
	m.m.RLock()
	defer m.m.RUnlock()

	_, ok := m.data[key]
	return ok
}

// Ping всегда успешен, нужен для единообразия с sql хранилищами.
func (m *MStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func Get[T any](ctx context.Context, key string, m *MStorage) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.RLock()
	defer m.m.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	var result T
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("unmarshal value by key `%s`: %w", key, err)
	}
	return &result, nil
}

// Set Сохраняет новую пару ключ/значение. Проверка уникальности и запись выполняются под одной
// блокировкой, поэтому из двух конкурентных вставок одного ключа успешна ровно одна.
// Существующий ключ не перезаписывается, вернется ErrDuplicateKey.
func Set[T any](ctx context.Context, key string, val *T, m *MStorage) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	bytes, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal value for key `%s`: %w", key, err)
	}

	m.m.Lock()
	defer m.m.Unlock()

	if _, ok := m.data[key]; ok {
		return ErrDuplicateKey
	}
	m.data[key] = bytes
	return nil
}

// Update атомарно изменяет значение по ключу: чтение, fn и запись выполняются под блокировкой
// на запись. Возвращает новое значение. Если fn вернула ошибку, значение не меняется.
func Update[T any](ctx context.Context, key string, m *MStorage, fn func(*T) error) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.Lock()
	defer m.m.Unlock()

	raw, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	var val T
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("unmarshal value by key `%s`: %w", key, err)
	}
	if err := fn(&val); err != nil {
		return nil, err
	}
	bytes, err := json.Marshal(&val)
	if err != nil {
		return nil, fmt.Errorf("marshal value for key `%s`: %w", key, err)
	}
	m.data[key] = bytes
	return &val, nil
}

// Delete удаляет ключ. Если ключа нет, вернется ErrNotFound.
func Delete(ctx context.Context, key string, m *MStorage) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}
	m.m.Lock()
	defer m.m.Unlock()

	if _, ok := m.data[key]; !ok {
		return ErrNotFound
	}
	delete(m.data, key)
	return nil
}

// FilterAll возвращает все значения, для которых fn вернула true. Порядок не гарантируется.
func FilterAll[T any](ctx context.Context, m *MStorage, fn func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	m.m.RLock()
	defer m.m.RUnlock()

	var result = make([]T, 0, len(m.data))
	for key, bytes := range m.data {
		var val T
		if err := json.Unmarshal(bytes, &val); err != nil {
			return nil, fmt.Errorf("unmarshal value by key `%s`: %w", key, err)
		}
		if fn(val) {
			result = append(result, val)
		}
	}
	return result, nil
}

// Snapshot записывает всё содержимое хранилища в w одним JSON объектом.
func (m *MStorage) Snapshot(w io.Writer) error {
	m.m.RLock()
	defer m.m.RUnlock()

	dump := make(map[string]json.RawMessage, len(m.data))
	for k, v := range m.data {
		dump[k] = v
	}
	if err := json.NewEncoder(w).Encode(dump); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Restore заменяет содержимое хранилища данными, ранее записанными Snapshot.
func (m *MStorage) Restore(r io.Reader) error {
	var dump map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	data := make(map[string][]byte, len(dump))
	for k, v := range dump {
		data[k] = v
	}

	m.m.Lock()
	defer m.m.Unlock()
	m.data = data
	return nil
}
