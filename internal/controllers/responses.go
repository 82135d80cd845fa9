package controllers

import (
	"time"

	"github.com/fsdevblog/shortlinks/internal/models"
)

// LinkResponse представление ссылки в ответах API.
type LinkResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	TargetURL     string     `json:"targetUrl"`
	ShortURL      string     `json:"shortUrl"`
	ClickCount    int64      `json:"clickCount"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FieldError ошибка валидации отдельного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse тело ответа с ошибками валидации.
type ValidationErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details"`
}

// DeleteResponse тело ответа на удаление ссылки.
type DeleteResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HealthResponse тело ответа /healthz.
type HealthResponse struct {
	OK        bool    `json:"ok"`
	Version   string  `json:"version"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

func newLinkResponse(link *models.Link, shortURL string) LinkResponse {
	return LinkResponse{
		ID:            link.ID,
		Code:          link.Code,
		TargetURL:     link.TargetURL,
		ShortURL:      shortURL,
		ClickCount:    link.ClickCount,
		LastClickedAt: link.LastClickedAt,
		CreatedAt:     link.CreatedAt,
	}
}
