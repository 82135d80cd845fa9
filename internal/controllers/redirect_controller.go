package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RedirectController перенаправляет по коротким ссылкам.
type RedirectController struct {
	links LinkRegistry
}

func NewRedirectController(links LinkRegistry) *RedirectController {
	return &RedirectController{links: links}
}

// Redirect обрабатывает GET /:code: засчитывает переход и отвечает 302 на целевой URL.
func (c *RedirectController) Redirect(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	target, err := c.links.ResolveAndRecordClick(reqCtx, ctx.Param("code"))
	if err != nil {
		respondError(ctx, err, "Short link not found")
		return
	}
	ctx.Redirect(http.StatusFound, target)
}
