package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController отвечает на /healthz и /ping.
type HealthController struct {
	version   string
	startedAt time.Time
	storage   ConnectionChecker
	now       func() time.Time
}

// NewHealthController создает контроллер проверки здоровья.
//
// Параметры:
//   - version: версия сборки
//   - startedAt: время запуска приложения
//   - storage: проверка соединения с хранилищем для /ping, может быть nil
//   - now: источник текущего времени, nil означает time.Now
//
// Возвращает:
//   - *HealthController: новый экземпляр контроллера
func NewHealthController(
	version string,
	startedAt time.Time,
	storage ConnectionChecker,
	now func() time.Time,
) *HealthController {
	if now == nil {
		now = time.Now
	}
	return &HealthController{version: version, startedAt: startedAt, storage: storage, now: now}
}

// Healthz всегда отвечает 200, пока процесс обслуживает запросы. Хранилище не проверяет, для этого есть /ping.
func (c *HealthController) Healthz(ctx *gin.Context) {
	now := c.now()
	ctx.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Version:   c.version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(c.startedAt).Seconds(),
	})
}

// Ping отвечает "pong", если хранилище доступно, иначе 500 без тела.
func (c *HealthController) Ping(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	if err := c.storage.CheckConnection(pingCtx); err != nil {
		_ = ctx.Error(fmt.Errorf("storage ping: %w", err))
		ctx.Status(http.StatusInternalServerError)
		return
	}
	ctx.String(http.StatusOK, "pong")
}
