package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Обязательность и формат полей проверяет сервис, он возвращает все нарушения разом.
type createLinkRequest struct {
	TargetURL  string `json:"targetUrl"  binding:"max=2048"`
	CustomCode string `json:"customCode" binding:"max=64"`
}

// LinksController контроллер API управления ссылками.
type LinksController struct {
	links   LinkRegistry
	baseURL string
}

// NewLinksController создает контроллер ссылок.
//
// Параметры:
//   - links: реестр ссылок
//   - baseURL: базовый адрес коротких ссылок; пустая строка означает адрес запроса
//
// Возвращает:
//   - *LinksController: новый экземпляр контроллера
func NewLinksController(links LinkRegistry, baseURL string) *LinksController {
	return &LinksController{links: links, baseURL: baseURL}
}

// Create обрабатывает POST /api/links.
//
// Тело запроса: {"targetUrl": "...", "customCode": "..."}, customCode необязателен.
//
// Возвращает:
//   - HTTP 201 с LinkResponse
//   - HTTP 400 при невалидном теле
//   - HTTP 409 если код уже занят
//   - HTTP 500 при прочих ошибках
func (c *LinksController) Create(ctx *gin.Context) {
	if !isJSONRequest(ctx) {
		respondBindError(ctx, ErrBadRequest)
		return
	}

	var req createLinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	link, err := c.links.Create(reqCtx, req.TargetURL, req.CustomCode)
	if err != nil {
		respondError(ctx, err, "Link not found")
		return
	}
	ctx.JSON(http.StatusCreated, newLinkResponse(link, shortURL(c.baseURL, ctx.Request, link.Code)))
}

// List обрабатывает GET /api/links?search=.
func (c *LinksController) List(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	links, err := c.links.List(reqCtx, ctx.Query("search"))
	if err != nil {
		respondError(ctx, err, "Link not found")
		return
	}

	result := make([]LinkResponse, 0, len(links))
	for i := range links {
		result = append(result, newLinkResponse(&links[i], shortURL(c.baseURL, ctx.Request, links[i].Code)))
	}
	ctx.JSON(http.StatusOK, result)
}

// Get обрабатывает GET /api/links/:code.
func (c *LinksController) Get(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	link, err := c.links.GetByCode(reqCtx, ctx.Param("code"))
	if err != nil {
		respondError(ctx, err, "Link not found")
		return
	}
	ctx.JSON(http.StatusOK, newLinkResponse(link, shortURL(c.baseURL, ctx.Request, link.Code)))
}

// Delete обрабатывает DELETE /api/links/:code.
func (c *LinksController) Delete(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	code := ctx.Param("code")
	if err := c.links.Delete(reqCtx, code); err != nil {
		respondError(ctx, err, "Link not found")
		return
	}
	ctx.JSON(http.StatusOK, DeleteResponse{Message: "Link deleted successfully", Code: code})
}
