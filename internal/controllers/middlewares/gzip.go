package middlewares

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultMaxRequestBytes int64 = 1 << 20

// GzipOptions настройки GzipMiddleware.
type GzipOptions struct {
	Level           int   // Уровень сжатия ответа, по умолчанию gzip.DefaultCompression
	MaxRequestBytes int64 // Предел распакованного тела запроса
}

// gzipWriter сжимает тело ответа. Решение о сжатии принимается при первом
// WriteHeader или Write, когда уже известен статус ответа.
type gzipWriter struct {
	gin.ResponseWriter
	level   int
	gz      *gzip.Writer
	decided bool
}

func (g *gzipWriter) WriteHeader(code int) {
	g.decide(code)
	g.ResponseWriter.WriteHeader(code)
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.decide(g.ResponseWriter.Status())
	if g.gz == nil {
		return g.ResponseWriter.Write(data) //nolint:wrapcheck
	}
	return g.gz.Write(data) //nolint:wrapcheck
}

// WriteString перекрывает метод встроенного gin.ResponseWriter, иначе строка уйдет несжатой.
func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *gzipWriter) decide(code int) {
	if g.decided {
		return
	}
	g.decided = true
	if !hasCompressibleBody(code) || g.Header().Get("Content-Encoding") != "" {
		return
	}

	gz, err := gzip.NewWriterLevel(g.ResponseWriter, g.level)
	if err != nil {
		return
	}
	g.Header().Set("Content-Encoding", "gzip")
	g.Header().Add("Vary", "Accept-Encoding")
	g.Header().Del("Content-Length")
	g.gz = gz
}

func (g *gzipWriter) close() error {
	if g.gz == nil {
		return nil
	}
	return g.gz.Close() //nolint:wrapcheck
}

// Редиректы и ответы без тела не сжимаются.
func hasCompressibleBody(code int) bool {
	switch {
	case code < http.StatusOK, code == http.StatusNoContent, code == http.StatusNotModified:
		return false
	case code >= http.StatusMultipleChoices && code < http.StatusBadRequest:
		return false
	default:
		return true
	}
}

// GzipMiddleware создает middleware для сжатия ответов и распаковки запросов в формате gzip.
//
// Для ответов:
//   - Сжимает, если клиент прислал Accept-Encoding: gzip и запрос не HEAD
//   - Не трогает редиректы и ответы без тела
//
// Для запросов:
//   - Распаковывает тело с Content-Encoding: gzip
//   - Ограничивает размер распакованного тела MaxRequestBytes
//
// Параметры:
//   - opts: функции настройки GzipOptions
//
// Возвращает:
//   - gin.HandlerFunc: middleware функция
func GzipMiddleware(opts ...func(*GzipOptions)) gin.HandlerFunc {
	options := GzipOptions{
		Level:           gzip.DefaultCompression,
		MaxRequestBytes: defaultMaxRequestBytes,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return func(ctx *gin.Context) {
		if !readGzip(ctx, options.MaxRequestBytes) {
			return
		}
		if ctx.Request.Method == http.MethodHead ||
			!strings.Contains(ctx.Request.Header.Get("Accept-Encoding"), "gzip") {
			ctx.Next()
			return
		}

		gzw := &gzipWriter{ResponseWriter: ctx.Writer, level: options.Level}
		ctx.Writer = gzw
		defer func() {
			if closeErr := gzw.close(); closeErr != nil {
				_ = ctx.Error(fmt.Errorf("close gzip writer: %w", closeErr))
			}
		}()
		ctx.Next()
	}
}

// gzipBody закрывает и распаковщик, и исходное тело запроса.
type gzipBody struct {
	io.Reader
	gz   *gzip.Reader
	orig io.Closer
}

func (b *gzipBody) Close() error {
	gzErr := b.gz.Close()
	if err := b.orig.Close(); err != nil {
		return err //nolint:wrapcheck
	}
	return gzErr //nolint:wrapcheck
}

// readGzip подменяет тело сжатого запроса потоковым распаковщиком.
// Возвращает false, если запрос прерван с 400.
func readGzip(ctx *gin.Context, maxBytes int64) bool {
	if !strings.Contains(ctx.Request.Header.Get("Content-Encoding"), "gzip") || ctx.Request.Body == nil {
		return true
	}

	gzReader, err := gzip.NewReader(ctx.Request.Body)
	if err != nil {
		_ = ctx.Error(fmt.Errorf("read gzip: %w", err))
		ctx.AbortWithStatus(http.StatusBadRequest)
		return false
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, &gzipBody{
		Reader: gzReader,
		gz:     gzReader,
		orig:   ctx.Request.Body,
	}, maxBytes)
	ctx.Request.ContentLength = -1
	return true
}
