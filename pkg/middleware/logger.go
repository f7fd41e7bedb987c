package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InjectLogger кладет в контекст запроса дочерний логгер с полями запроса.
func InjectLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLogger := logger.With(
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			c.Set("logger", reqLogger)
			return next(c)
		}
	}
}
