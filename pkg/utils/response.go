package utils

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "gearguard/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorBody — формат ошибки, на который завязан фронт:
// { "message": "...", "errors": [...] }
type ErrorBody struct {
	Message string        `json:"message"`
	Errors  []interface{} `json:"errors,omitempty"`
}

// SuccessResponse отдает затронутую сущность как есть, без конвертов.
func SuccessResponse(ctx echo.Context, body interface{}, code int) error {
	return ctx.JSON(code, body)
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
				zap.Any("context", httpErr.Context),
			)
		}
		body := ErrorBody{Message: httpErr.Message}
		if httpErr.Details != nil {
			body.Errors = append(body.Errors, httpErr.Details)
		}
		return c.JSON(httpErr.Code, body)
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return c.JSON(echoErr.Code, ErrorBody{Message: fmt.Sprintf("%v", echoErr.Message)})
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		body := ErrorBody{Message: "Ошибка валидации"}
		for _, e := range validationErrors {
			body.Errors = append(body.Errors, fmt.Sprintf("Поле '%s' не прошло проверку '%s'", e.Field(), e.Tag()))
		}
		return c.JSON(http.StatusBadRequest, body)
	}

	// Сентинельные ошибки без HTTP-обертки
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorBody{Message: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorBody{Message: err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrEmptyAuthHeader),
		errors.Is(err, apperrors.ErrInvalidAuthHeader),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrActorNotFoundInContext):
		return c.JSON(http.StatusUnauthorized, ErrorBody{Message: err.Error()})
	case errors.Is(err, apperrors.ErrTeamBusy), errors.Is(err, apperrors.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, ErrorBody{Message: err.Error()})
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorBody{Message: err.Error()})
}
