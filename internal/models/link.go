package models

import "time"

// Ограничения на длину короткого кода.
const (
	GeneratedCodeLength = 6 // Длина кода, который генерирует сервис
	MinCodeLength       = 6 // Минимальная длина пользовательского кода
	MaxCodeLength       = 8 // Максимальная длина пользовательского кода
)

// Link структура модели хранения короткой ссылки.
type Link struct {
	ID            string     `json:"id"            gorm:"primaryKey;type:varchar(36)"`
	Code          string     `json:"code"          gorm:"type:varchar(8);uniqueIndex;not null"`
	TargetURL     string     `json:"targetUrl"     gorm:"not null"`
	ClickCount    int64      `json:"clickCount"    gorm:"not null;default:0"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	CreatedAt     time.Time  `json:"createdAt"     gorm:"index"`
}
