package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/shortlinks/internal/metrics"
)

const unmatchedRoute = "unmatched"

// MetricsMiddleware учитывает каждый запрос в prometheus-метриках.
// В метку route попадает шаблон маршрута, поэтому число рядов не растет от кодов ссылок.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
