package services

import (
	"errors"
	"strings"
)

var (
	ErrUnknown        = errors.New("[service]: unknown error")
	ErrRecordNotFound = errors.New("[service]: record not found")
	ErrInvalidInput   = errors.New("[service]: invalid input")
	ErrCodeConflict   = errors.New("[service]: code already in use")
	ErrCodeExhausted  = errors.New("[service]: unable to allocate unique code")
)

// FieldViolation нарушение правила для одного поля входных данных.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError перечисляет все поля, не прошедшие проверку, в порядке полей запроса.
// errors.Is(err, ErrInvalidInput) для нее возвращает true.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
