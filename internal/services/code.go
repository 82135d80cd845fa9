package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeGenerator возвращает случайный код заданной длины.
type CodeGenerator func(length int) (string, error)

// RandomCode генерирует код из алфавита [A-Za-z0-9] с равномерным распределением символов.
//
// Параметры:
//   - length: длина кода
//
// Возвращает:
//   - string: сгенерированный код
//   - error: ошибка источника случайных чисел
func RandomCode(length int) (string, error) {
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
