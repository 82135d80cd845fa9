package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/fsdevblog/shortlinks/internal/config"
	"github.com/fsdevblog/shortlinks/internal/controllers/mocksctrl"
	"github.com/fsdevblog/shortlinks/internal/logs"
	"github.com/fsdevblog/shortlinks/internal/models"
)

type mockTestHelper struct{}

func (h *mockTestHelper) Errorf(_ string, _ ...interface{}) {}
func (h *mockTestHelper) Fatalf(_ string, _ ...interface{}) {}

// ExampleLinksController_Create тест на создание ссылки с пользовательским кодом.
func ExampleLinksController_Create() {
	h := new(mockTestHelper)
	// Настраиваем тестовое окружение
	ctrl := gomock.NewController(h)
	defer ctrl.Finish()
	mockLinks := mocksctrl.NewMockLinkRegistry(ctrl)

	// Настраиваем роутер
	router := SetupRouter(RouterParams{
		LinkService: mockLinks,
		AppConf: config.Config{
			BaseURL: "http://test.com",
		},
		Logger: logs.MustNew(func(o *logs.LoggerOptions) {
			o.Level = logs.LevelTypeError
		}),
	})

	testingURL := "https://example.com"
	mockLinks.EXPECT().
		Create(gomock.Any(), testingURL, "promo1").
		Return(&models.Link{
			ID:        "5b0d4a37-8c0e-4a6e-9df1-2b1a3c0e7f11",
			Code:      "promo1",
			TargetURL: testingURL,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}, nil).Times(1)

	// Готовим запрос
	jsonStr := fmt.Sprintf(`{"targetUrl":"%s","customCode":"promo1"}`, testingURL)
	req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewBufferString(jsonStr))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Выполняем запрос
	router.ServeHTTP(w, req)

	// Выводим результат
	fmt.Printf("Status: %d\n", w.Code)
	fmt.Printf("Response: %s\n", w.Body.String())

	// Output:
	// Status: 201
	// Response: {"id":"5b0d4a37-8c0e-4a6e-9df1-2b1a3c0e7f11","code":"promo1","targetUrl":"https://example.com","shortUrl":"http://test.com/promo1","clickCount":0,"lastClickedAt":null,"createdAt":"2026-01-02T03:04:05Z"}
}
