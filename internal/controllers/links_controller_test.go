package controllers

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/config"
	"github.com/fsdevblog/shortlinks/internal/controllers/mocksctrl"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/services"
)

const testBaseURL = "http://sho.rt"

type LinksControllerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	links    *mocksctrl.MockLinkRegistry
	pinger   *mocksctrl.MockConnectionChecker
	router   *gin.Engine
	fixedNow time.Time
}

func TestLinksControllerSuite(t *testing.T) {
	suite.Run(t, new(LinksControllerSuite))
}

func (s *LinksControllerSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func (s *LinksControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.links = mocksctrl.NewMockLinkRegistry(s.ctrl)
	s.pinger = mocksctrl.NewMockConnectionChecker(s.ctrl)
	s.router = SetupRouter(RouterParams{
		LinkService: s.links,
		PingService: s.pinger,
		AppConf: config.Config{
			BaseURL:            testBaseURL,
			CORSAllowedOrigins: []string{"https://dashboard.example.com"},
		},
		Logger:  zap.NewNop(),
		Version: "v1.2.3",
	})
}

func (s *LinksControllerSuite) link(code, target string) *models.Link {
	return &models.Link{
		ID:        gofakeit.UUID(),
		Code:      code,
		TargetURL: target,
		CreatedAt: s.fixedNow,
	}
}

func (s *LinksControllerSuite) TestCreate() {
	target := gofakeit.URL()
	s.links.EXPECT().
		Create(gomock.Any(), target, "promo1").
		Return(s.link("promo1", target), nil)

	res := s.makeRequest(requestFields{
		Method:      http.MethodPost,
		URL:         "/api/links",
		Body:        strings.NewReader(`{"targetUrl":"` + target + `","customCode":"promo1"}`),
		ContentType: "application/json",
	})
	defer res.Body.Close()

	s.Require().Equal(http.StatusCreated, res.StatusCode)

	var got LinkResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal("promo1", got.Code)
	s.Equal(target, got.TargetURL)
	s.Equal(testBaseURL+"/promo1", got.ShortURL)
	s.Equal(int64(0), got.ClickCount)
	s.Nil(got.LastClickedAt)
	s.True(s.fixedNow.Equal(got.CreatedAt))
}

func (s *LinksControllerSuite) TestCreate_Gzipped() {
	target := gofakeit.URL()
	s.links.EXPECT().
		Create(gomock.Any(), target, "").
		Return(s.link("abcXYZ", target), nil)

	res := s.makeRequest(requestFields{
		Method:      http.MethodPost,
		URL:         "/api/links",
		Body:        strings.NewReader(`{"targetUrl":"` + target + `"}`),
		ContentType: "application/json",
		Gzipped:     true,
	})
	defer res.Body.Close()

	s.Require().Equal(http.StatusCreated, res.StatusCode)
	s.Equal("gzip", res.Header.Get("Content-Encoding"))

	body, err := readBody(res.Body, true)
	s.Require().NoError(err)
	s.Contains(string(body), `"shortUrl":"`+testBaseURL+`/abcXYZ"`)
}

func (s *LinksControllerSuite) TestCreate_Errors() {
	tests := []struct {
		name        string
		body        string
		contentType string
		serviceErr  error
		wantStatus  int
		wantError   string
	}{
		{
			name:       "service validation",
			body:       `{"targetUrl":"not-a-url"}`,
			serviceErr: &services.ValidationError{Violations: []services.FieldViolation{
				{Field: "targetUrl", Message: "Invalid URL format"},
			}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation error",
		},
		{
			name:       "conflict",
			body:       `{"targetUrl":"https://a.com","customCode":"taken1"}`,
			serviceErr: services.ErrCodeConflict,
			wantStatus: http.StatusConflict,
			wantError:  "Code already exists",
		},
		{
			name:       "exhausted",
			body:       `{"targetUrl":"https://a.com"}`,
			serviceErr: services.ErrCodeExhausted,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to generate unique code",
		},
		{
			name:       "unknown",
			body:       `{"targetUrl":"https://a.com"}`,
			serviceErr: errors.Join(services.ErrUnknown, errors.New("db down")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
		{
			name:       "target too long",
			body:       `{"targetUrl":"https://a.com/` + strings.Repeat("a", 2048) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation error",
		},
		{
			name:       "malformed json",
			body:       `{"targetUrl":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad request",
		},
		{
			name:       "wrong type",
			body:       `{"targetUrl":42}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad request",
		},
		{
			name:        "not json",
			body:        "https://a.com",
			contentType: "text/plain",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Bad request",
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			if tt.serviceErr != nil {
				s.links.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.serviceErr)
			}
			contentType := tt.contentType
			if contentType == "" {
				contentType = "application/json"
			}

			res := s.makeRequest(requestFields{
				Method:      http.MethodPost,
				URL:         "/api/links",
				Body:        strings.NewReader(tt.body),
				ContentType: contentType,
			})
			defer res.Body.Close()

			s.Equal(tt.wantStatus, res.StatusCode)

			var got map[string]any
			s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
			s.Equal(tt.wantError, got["error"])
		})
	}
}

func (s *LinksControllerSuite) TestCreate_ValidationDetails() {
	s.links.EXPECT().Create(gomock.Any(), "", "ab").Return(nil, &services.ValidationError{
		Violations: []services.FieldViolation{
			{Field: "targetUrl", Message: "targetUrl is required"},
			{Field: "customCode", Message: "Code must be 6-8 alphanumeric characters"},
		},
	})

	res := s.makeRequest(requestFields{
		Method:      http.MethodPost,
		URL:         "/api/links",
		Body:        strings.NewReader(`{"customCode":"ab"}`),
		ContentType: "application/json",
	})
	defer res.Body.Close()

	s.Require().Equal(http.StatusBadRequest, res.StatusCode)

	var got ValidationErrorResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal("Validation error", got.Error)
	s.Equal([]FieldError{
		{Field: "targetUrl", Message: "targetUrl is required"},
		{Field: "customCode", Message: "Code must be 6-8 alphanumeric characters"},
	}, got.Details)
}

func (s *LinksControllerSuite) TestCreate_BindDetails() {
	res := s.makeRequest(requestFields{
		Method:      http.MethodPost,
		URL:         "/api/links",
		Body:        strings.NewReader(`{"targetUrl":"https://a.com","customCode":"` + strings.Repeat("a", 65) + `"}`),
		ContentType: "application/json",
	})
	defer res.Body.Close()

	s.Require().Equal(http.StatusBadRequest, res.StatusCode)

	var got ValidationErrorResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Require().Len(got.Details, 1)
	s.Equal("customCode", got.Details[0].Field)
	s.Equal("customCode is too long", got.Details[0].Message)
}

func (s *LinksControllerSuite) TestList() {
	clicked := s.fixedNow.Add(time.Minute)
	first := s.link("newer1", "https://foo.com/1")
	first.ClickCount = 3
	first.LastClickedAt = &clicked
	second := s.link("older1", "https://foo.com/2")

	s.links.EXPECT().List(gomock.Any(), "foo").Return([]models.Link{*first, *second}, nil)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/links?search=foo"})
	defer res.Body.Close()

	s.Require().Equal(http.StatusOK, res.StatusCode)

	var got []LinkResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Require().Len(got, 2)
	s.Equal("newer1", got[0].Code)
	s.Equal(int64(3), got[0].ClickCount)
	s.Require().NotNil(got[0].LastClickedAt)
	s.True(clicked.Equal(*got[0].LastClickedAt))
	s.Equal("older1", got[1].Code)
}

func (s *LinksControllerSuite) TestList_Empty() {
	s.links.EXPECT().List(gomock.Any(), "").Return([]models.Link{}, nil)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/links"})
	defer res.Body.Close()

	s.Require().Equal(http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	s.JSONEq(`[]`, string(body))
}

func (s *LinksControllerSuite) TestGet() {
	s.links.EXPECT().GetByCode(gomock.Any(), "abc123").Return(s.link("abc123", "https://a.com"), nil)
	s.links.EXPECT().GetByCode(gomock.Any(), "none00").Return(nil, services.ErrRecordNotFound)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/links/abc123"})
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)

	res = s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/links/none00"})
	defer res.Body.Close()
	s.Equal(http.StatusNotFound, res.StatusCode)

	var got ErrorResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal(ErrorResponse{Error: "Not found", Message: "Link not found"}, got)
}

func (s *LinksControllerSuite) TestDelete() {
	gomock.InOrder(
		s.links.EXPECT().Delete(gomock.Any(), "abc123").Return(nil),
		s.links.EXPECT().Delete(gomock.Any(), "abc123").Return(services.ErrRecordNotFound),
	)

	res := s.makeRequest(requestFields{Method: http.MethodDelete, URL: "/api/links/abc123"})
	defer res.Body.Close()
	s.Require().Equal(http.StatusOK, res.StatusCode)

	var got DeleteResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal(DeleteResponse{Message: "Link deleted successfully", Code: "abc123"}, got)

	res = s.makeRequest(requestFields{Method: http.MethodDelete, URL: "/api/links/abc123"})
	defer res.Body.Close()
	s.Equal(http.StatusNotFound, res.StatusCode)
}

func (s *LinksControllerSuite) TestRedirect() {
	redirectTo := "https://test.com/test/123"
	s.links.EXPECT().ResolveAndRecordClick(gomock.Any(), "abc123").Return(redirectTo, nil)
	s.links.EXPECT().ResolveAndRecordClick(gomock.Any(), "none00").Return("", services.ErrRecordNotFound)
	s.links.EXPECT().ResolveAndRecordClick(gomock.Any(), "broken").Return("", services.ErrUnknown)

	tests := []struct {
		name       string
		code       string
		wantStatus int
	}{
		{name: "valid", code: "abc123", wantStatus: http.StatusFound},
		{name: "not exist", code: "none00", wantStatus: http.StatusNotFound},
		{name: "storage failure", code: "broken", wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/" + tt.code})
			defer res.Body.Close()

			body, _ := io.ReadAll(res.Body)
			s.Equal(tt.wantStatus, res.StatusCode, "Answer:", string(body))
			if tt.wantStatus == http.StatusFound {
				s.Equal(redirectTo, res.Header.Get("Location"))
			} else {
				s.Empty(res.Header.Get("Location"))
			}
		})
	}
}

func (s *LinksControllerSuite) TestNoRoute() {
	res := s.makeRequest(requestFields{Method: http.MethodPut, URL: "/api/links/abc123?x=1"})
	defer res.Body.Close()

	s.Require().Equal(http.StatusNotFound, res.StatusCode)
	var got ErrorResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal("Not found", got.Error)
	s.Equal("Route PUT /api/links/abc123?x=1 not found", got.Message)
}

func (s *LinksControllerSuite) TestHealthz() {
	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/healthz"})
	defer res.Body.Close()

	s.Require().Equal(http.StatusOK, res.StatusCode)
	var got HealthResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.True(got.OK)
	s.Equal("v1.2.3", got.Version)
	_, err := time.Parse(time.RFC3339, got.Timestamp)
	s.NoError(err)
}

func (s *LinksControllerSuite) TestPing() {
	s.pinger.EXPECT().CheckConnection(gomock.Any()).Return(nil)
	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/ping"})
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)

	s.pinger.EXPECT().CheckConnection(gomock.Any()).Return(errors.New("connection refused"))
	res = s.makeRequest(requestFields{Method: http.MethodGet, URL: "/ping"})
	defer res.Body.Close()
	s.Equal(http.StatusInternalServerError, res.StatusCode)
}

func (s *LinksControllerSuite) TestCORS() {
	request := httptest.NewRequest(http.MethodOptions, "/api/links", nil)
	request.Header.Set("Origin", "https://dashboard.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()

	s.router.ServeHTTP(recorder, request)

	s.Equal(http.StatusNoContent, recorder.Code)
	s.Equal("https://dashboard.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestShortURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	r.Host = "localhost:8080"

	if got := shortURL("", r, "abc123"); got != "http://localhost:8080/abc123" {
		t.Errorf("shortURL() fallback = %s", got)
	}
	if got := shortURL(testBaseURL, r, "abc123"); got != testBaseURL+"/abc123" {
		t.Errorf("shortURL() base = %s", got)
	}
}

type requestFields struct {
	Method      string
	URL         string
	Body        io.Reader
	ContentType string
	Gzipped     bool
}

// makeRequest вспомогательная функция создающая тестовый http запрос.
func (s *LinksControllerSuite) makeRequest(fields requestFields) *http.Response {
	var body io.Reader
	if fields.Body != nil {
		body = fields.Body
	}

	// Добавляем gzip сжатие тела запроса, если надо.
	if fields.Gzipped && fields.Body != nil {
		var gzipBuffer bytes.Buffer
		gzipW, gzErr := gzip.NewWriterLevel(&gzipBuffer, gzip.BestSpeed)
		s.Require().NoError(gzErr)

		_, copyErr := io.Copy(gzipW, fields.Body)
		s.Require().NoError(copyErr)
		s.Require().NoError(gzipW.Close())
		body = &gzipBuffer
	}

	request := httptest.NewRequest(fields.Method, fields.URL, body)
	if fields.ContentType != "" {
		request.Header.Set("Content-Type", fields.ContentType)
	}
	if fields.Gzipped {
		request.Header.Set("Content-Encoding", "gzip")
		request.Header.Set("Accept-Encoding", "gzip")
	}

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, request)
	return recorder.Result()
}

// readBody Читает тело ответа, если тело сжатое - расжимает.
func readBody(r io.Reader, compressed bool) ([]byte, error) {
	if !compressed {
		return io.ReadAll(r)
	}
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gzr.Close()
	return io.ReadAll(gzr)
}
