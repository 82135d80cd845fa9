package tlscert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store хранит пару сертификат/ключ в файлах.
type Store struct {
	gen      *Generator
	certPath string
	keyPath  string
}

// NewStore создает хранилище сертификата.
//
// Параметры:
//   - certPath: путь к файлу сертификата
//   - keyPath: путь к файлу приватного ключа
//
// Возвращает:
//   - *Store: новый экземпляр
func NewStore(certPath, keyPath string) *Store {
	return &Store{gen: New(), certPath: certPath, keyPath: keyPath}
}

// CertPath путь к файлу сертификата.
func (s *Store) CertPath() string { return s.certPath }

// KeyPath путь к файлу приватного ключа.
func (s *Store) KeyPath() string { return s.keyPath }

// EnsureCert проверяет существующие файлы сертификата и ключа. Если файлов нет или
// пара непригодна (пустая, просроченная, ключ не подходит) - выпускает новую.
//
// Параметры:
//   - modifiers: модификаторы для генерации сертификата
//
// Возвращает:
//   - bool: был ли выпущен новый сертификат
//   - error: ошибка проверки или записи
func (s *Store) EnsureCert(modifiers ...Modifier) (bool, error) {
	certPEM, errCert := readIfExists(s.certPath)
	if errCert != nil {
		return false, errCert
	}
	keyPEM, errKey := readIfExists(s.keyPath)
	if errKey != nil {
		return false, errKey
	}

	if s.gen.CheckPemFiles(bytes.NewReader(certPEM), bytes.NewReader(keyPEM)) == nil {
		return false, nil
	}

	newCert, newKey, errGen := s.gen.Generate(modifiers...)
	if errGen != nil {
		return false, fmt.Errorf("generate certificate and private key: %w", errGen)
	}
	if err := writeFile(s.certPath, newCert); err != nil {
		return false, fmt.Errorf("save certificate: %w", err)
	}
	if err := writeFile(s.keyPath, newKey); err != nil {
		return false, fmt.Errorf("save private key: %w", err)
	}
	return true, nil
}

func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read `%s`: %w", path, err)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("create directory for `%s`: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("write `%s`: %w", path, err)
	}
	return nil
}
