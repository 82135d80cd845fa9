package services

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const codeRules = "alphanum,min=6,max=8"

//nolint:gochecknoglobals
var validate = newValidator()

// createLinkInput входные данные Create после обрезки пробелов.
type createLinkInput struct {
	TargetURL  string `json:"targetUrl"  validate:"required,http_url"`
	CustomCode string `json:"customCode" validate:"omitempty,alphanum,min=6,max=8"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

// IsValidCode проверяет, что код может существовать: 6-8 символов [A-Za-z0-9].
func IsValidCode(code string) bool {
	return validate.Var(code, "required,"+codeRules) == nil
}

// validateCreate проверяет оба поля сразу и возвращает *ValidationError со всеми нарушениями.
func validateCreate(targetURL, customCode string) (createLinkInput, error) {
	in := createLinkInput{
		TargetURL:  strings.TrimSpace(targetURL),
		CustomCode: strings.TrimSpace(customCode),
	}

	err := validate.Struct(in)
	if err == nil {
		return in, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return in, fmt.Errorf("validate create input: %w", err)
	}

	vErr := &ValidationError{Violations: make([]FieldViolation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.Violations = append(vErr.Violations, FieldViolation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return in, vErr
}

func violationMessage(fe validator.FieldError) string {
	switch {
	case fe.Field() == "customCode":
		return "Code must be 6-8 alphanumeric characters"
	case fe.Tag() == "required":
		return "targetUrl is required"
	default:
		return targetURLMessage(fmt.Sprint(fe.Value()))
	}
}

// targetURLMessage уточняет, чем именно ссылка не подошла под http_url.
func targetURLMessage(raw string) string {
	u, err := url.Parse(raw)
	switch {
	case err != nil || u.Scheme == "":
		return "Invalid URL format"
	case !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https"):
		return "URL must have http or https scheme"
	default:
		return "URL must have a valid host"
	}
}
