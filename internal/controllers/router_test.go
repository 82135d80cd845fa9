package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/config"
	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/metrics"
	"github.com/fsdevblog/shortlinks/internal/services"
)

// TestRouter_EndToEnd прогоняет сценарий создание -> переход -> просмотр поверх настоящего сервиса.
func TestRouter_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := metrics.New(nil)
	svcs, err := services.Factory(db.NewMemStorage(),
		func(o *services.LinkServiceOptions) { o.Metrics = m },
	)
	require.NoError(t, err)

	router := SetupRouter(RouterParams{
		LinkService: svcs.LinkService,
		PingService: svcs.PingService,
		Metrics:     m,
		AppConf:     config.Config{CORSAllowedOrigins: []string{"*"}},
		Logger:      zap.NewNop(),
	})

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Host = "localhost:8080"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodPost, "/api/links", `{"targetUrl":"https://example.com/landing"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Regexp(t, `^[A-Za-z0-9]{6}$`, created.Code)
	assert.Equal(t, "http://localhost:8080/"+created.Code, created.ShortURL)

	const clicks = 25
	var wg sync.WaitGroup
	for range clicks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := serve(http.MethodGet, "/"+created.Code, "")
			assert.Equal(t, http.StatusFound, r.Code)
			assert.Equal(t, "https://example.com/landing", r.Header().Get("Location"))
		}()
	}
	wg.Wait()

	rec = serve(http.MethodGet, "/api/links/"+created.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(clicks), got.ClickCount)
	assert.NotNil(t, got.LastClickedAt)

	rec = serve(http.MethodPost, "/api/links", `{"targetUrl":"https://other.com","customCode":"`+created.Code+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(http.MethodPost, "/api/links", `{"targetUrl":"https://other.com","customCode":"ab"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"customCode"`)

	rec = serve(http.MethodPost, "/api/links", `{"targetUrl":"ftp://other.com","customCode":"ab"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var invalid ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalid))
	assert.Equal(t, []FieldError{
		{Field: "targetUrl", Message: "URL must have http or https scheme"},
		{Field: "customCode", Message: "Code must be 6-8 alphanumeric characters"},
	}, invalid.Details)

	rec = serve(http.MethodPost, "/api/links", `{"targetUrl":"https://münchen.de/"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shortlinks_redirects_total 25")
	assert.Contains(t, rec.Body.String(), `route="/:code"`)

	rec = serve(http.MethodDelete, "/api/links/"+created.Code, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(http.MethodGet, "/"+created.Code, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
