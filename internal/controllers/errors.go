package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fsdevblog/shortlinks/internal/services"
)

// Ошибки.
var (
	ErrInternal   = errors.New("internal error") // Прочая ошибка
	ErrBadRequest = errors.New("bad request")    // Некорректное тело запроса
)

// respondError отвечает клиенту в зависимости от типа ошибки сервиса.
// Ошибка прикрепляется к контексту и попадает в лог через LoggerMiddleware.
//
// Параметры:
//   - ctx: контекст Gin
//   - err: ошибка сервиса
//   - notFoundMessage: текст для 404
func respondError(ctx *gin.Context, err error, notFoundMessage string) {
	_ = ctx.Error(err)

	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		details := make([]FieldError, 0, len(vErr.Violations))
		for _, v := range vErr.Violations {
			details = append(details, FieldError{Field: v.Field, Message: v.Message})
		}
		ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation error",
			Details: details,
		})
	case errors.Is(err, services.ErrCodeConflict):
		ctx.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Code already exists",
			Message: "This short code is already taken. Please choose another.",
		})
	case errors.Is(err, services.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not found",
			Message: notFoundMessage,
		})
	case errors.Is(err, services.ErrCodeExhausted):
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to generate unique code",
			Message: "Please try again or provide a custom code",
		})
	default:
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Message: ErrInternal.Error(),
		})
	}
}

// respondBindError отвечает на ошибку разбора тела запроса.
func respondBindError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		details := make([]FieldError, 0, len(vErrs))
		for _, fe := range vErrs {
			details = append(details, FieldError{Field: fe.Field(), Message: fieldErrorMessage(fe)})
		}
		ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation error",
			Details: details,
		})
		return
	}

	ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Bad request",
		Message: "Request body must be a valid JSON object",
	})
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " is too long"
	default:
		return fe.Field() + " is invalid"
	}
}
