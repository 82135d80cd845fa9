// Package metrics содержит prometheus-метрики сервиса. Все метрики регистрируются
// в переданном prometheus.Registry, глобальный регистр не используется.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortlinks"

// Metrics набор метрик сервиса. Методы безопасно вызывать на nil.
type Metrics struct {
	registry *prometheus.Registry

	linksCreated    *prometheus.CounterVec
	codeCollisions  prometheus.Counter
	redirects       prometheus.Counter
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New создает метрики и регистрирует их вместе со стандартными go/process коллекторами.
//
// Параметры:
//   - registry: регистр, в который попадут метрики; nil означает новый регистр
//
// Возвращает:
//   - *Metrics: набор метрик
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		linksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Number of created short links by code origin.",
		}, []string{"kind"}),
		codeCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Number of generated codes that were already taken.",
		}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Number of successful redirects.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.linksCreated,
		m.codeCollisions,
		m.redirects,
		m.httpRequests,
		m.requestDuration,
	)
	return m
}

// LinkCreated учитывает созданную ссылку.
func (m *Metrics) LinkCreated(custom bool) {
	if m == nil {
		return
	}
	kind := "generated"
	if custom {
		kind = "custom"
	}
	m.linksCreated.WithLabelValues(kind).Inc()
}

// CodeCollision учитывает занятый сгенерированный код.
func (m *Metrics) CodeCollision() {
	if m == nil {
		return
	}
	m.codeCollisions.Inc()
}

// Redirect учитывает успешный переход по короткой ссылке.
func (m *Metrics) Redirect() {
	if m == nil {
		return
	}
	m.redirects.Inc()
}

// ObserveRequest учитывает обработанный HTTP-запрос.
// route это шаблон маршрута (например /api/links/:code), а не фактический путь.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler возвращает http.Handler, отдающий метрики в формате prometheus.
// Сжатие отключено: ответы сжимает GzipMiddleware.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry, DisableCompression: true})
}
