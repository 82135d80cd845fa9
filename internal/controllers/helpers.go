package controllers

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultRequestTimeout = 3 * time.Second
)

var registerTagNameOnce sync.Once

// useJSONFieldNames заставляет валидатор gin называть поля по json-тегу.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// isJSONRequest Определяет тип запроса (json или нет) по заголовку Content-Type.
func isJSONRequest(ctx *gin.Context) bool {
	ct := ctx.Request.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json")
}

// shortURL собирает короткую ссылку из базового адреса или, если он не задан, из адреса запроса.
func shortURL(baseURL string, r *http.Request, code string) string {
	if baseURL != "" {
		return fmt.Sprintf("%s/%s", baseURL, code)
	}
	var scheme = "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, r.Host, code)
}
