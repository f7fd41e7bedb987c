package middleware

import (
	"context"
	"strings"

	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	"gearguard/pkg/contextkeys"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/service"
	"gearguard/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserLoader — минимум, который нужен middleware от репозитория пользователей.
type UserLoader interface {
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	users      UserLoader
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, users UserLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		users:      users,
		logger:     logger,
	}
}

// Auth - это основная функция middleware.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// 1. Извлекаем токен из заголовка
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: Пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		// 2. Проверяем формат заголовка "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: Неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		// 3. Валидируем токен
		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: Ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		// 4. Убеждаемся, что это не refresh токен
		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: Попытка доступа с refresh токеном")
			return utils.ErrorResponse(c, apperrors.ErrInvalidToken, m.logger)
		}

		// 5. Загружаем пользователя. Удаленный и деактивированный отклоняются
		// одинаково — как неаутентифицированные.
		actor, err := m.users.FindUserByID(c.Request().Context(), claims.UserID)
		if err != nil || actor == nil || !actor.IsActive {
			m.logger.Warn("AuthMiddleware: Пользователь не найден или деактивирован", zap.Uint64("userID", claims.UserID))
			return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
		}

		// 6. Кладем пользователя в контекст запроса
		ctx := c.Request().Context()
		ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.ID)
		ctx = context.WithValue(ctx, contextkeys.ActorKey, actor)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// RequireRoles — грубый список ролей на эндпоинт. Тонкие проверки
// (назначение, членство в бригаде) живут в internal/authz.
func (m *AuthMiddleware) RequireRoles(roles ...constants.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := utils.GetActorFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			m.logger.Warn("RequireRoles: недостаточно прав",
				zap.Uint64("userID", actor.ID),
				zap.String("role", actor.Role.String()),
			)
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}
	}
}
