package utils

import (
	"context"

	"gearguard/internal/entities"
	"gearguard/pkg/contextkeys"
	apperrors "gearguard/pkg/errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// GetActorFromCtx достает пользователя, которого положил туда AuthMiddleware.
func GetActorFromCtx(ctx context.Context) (*entities.User, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(*entities.User)
	if !ok || actor == nil {
		return nil, apperrors.ErrActorNotFoundInContext
	}
	return actor, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrActorNotFoundInContext
	}
	return userID, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// CustomValidator - обертка для использования в Echo
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator(v *validator.Validate) *CustomValidator {
	return &CustomValidator{validator: v}
}

// Validate реализует интерфейс echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
