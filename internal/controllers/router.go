package controllers

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/config"
	"github.com/fsdevblog/shortlinks/internal/controllers/middlewares"
	"github.com/fsdevblog/shortlinks/internal/metrics"
)

// RouterParams зависимости роутера.
type RouterParams struct {
	LinkService LinkRegistry
	PingService ConnectionChecker
	Metrics     *metrics.Metrics
	AppConf     config.Config
	Logger      *zap.Logger
	Version     string
	StartedAt   time.Time
}

// SetupRouter собирает gin.Engine со всеми маршрутами приложения.
//
// Параметры:
//   - params: зависимости роутера
//
// Возвращает:
//   - *gin.Engine: готовый роутер
func SetupRouter(params RouterParams) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware(params.Logger))
	r.Use(middlewares.MetricsMiddleware(params.Metrics))
	r.Use(cors.New(corsConfig(params.AppConf.CORSAllowedOrigins)))
	r.Use(middlewares.GzipMiddleware())

	linksController := NewLinksController(params.LinkService, params.AppConf.BaseURL)
	redirectController := NewRedirectController(params.LinkService)
	healthController := NewHealthController(params.Version, params.StartedAt, params.PingService, nil)

	r.GET("/healthz", healthController.Healthz)
	if params.PingService != nil {
		r.GET("/ping", healthController.Ping)
	}
	if params.Metrics != nil {
		r.GET("/metrics", gin.WrapH(params.Metrics.Handler()))
	}

	api := r.Group("/api/links")
	api.POST("", linksController.Create)
	api.GET("", linksController.List)
	api.GET("/:code", linksController.Get)
	api.DELETE("/:code", linksController.Delete)

	r.GET("/:code", redirectController.Redirect)

	r.NoRoute(notFound)
	return r
}

func notFound(ctx *gin.Context) {
	ctx.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "Not found",
		Message: fmt.Sprintf("Route %s %s not found", ctx.Request.Method, ctx.Request.URL.RequestURI()),
	})
}

func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Encoding", "Content-Encoding"},
		ExposeHeaders: []string{"Content-Length", "Location"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		conf.AllowAllOrigins = true
		return conf
	}
	conf.AllowOrigins = origins
	return conf
}
