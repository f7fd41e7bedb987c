package services

import (
	"context"
	"errors"
	"strings"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/service"
	"gearguard/pkg/utils"

	"go.uber.org/zap"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error)
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.AuthResponseDTO, error)
	Me(ctx context.Context, userID uint64) (*entities.User, error)
}

type AuthService struct {
	userRepo repositories.UserRepositoryInterface
	jwtSvc   service.JWTService
	logger   *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, jwtSvc service.JWTService, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, jwtSvc: jwtSvc, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error) {
	role := constants.RoleUser
	if payload.Role != "" {
		parsed, ok := constants.ParseRole(payload.Role)
		if !ok {
			return nil, apperrors.NewBadRequestError("Неизвестная роль: " + payload.Role)
		}
		role = parsed
	}

	hashed, err := utils.HashPassword(payload.Password)
	if err != nil {
		s.logger.Error("не удалось захешировать пароль", zap.Error(err))
		return nil, err
	}

	user := &entities.User{
		Name:     payload.Name,
		Email:    strings.ToLower(strings.TrimSpace(payload.Email)),
		Password: hashed,
		Role:     role,
		TeamID:   payload.TeamID,
		IsActive: true,
	}

	created, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(created)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли пользователь
			return nil, apperrors.NewUnauthorizedError("Неверный email или пароль")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorizedError("Учётная запись деактивирована")
	}
	if !utils.CheckPassword(user.Password, payload.Password) {
		return nil, apperrors.NewUnauthorizedError("Неверный email или пароль")
	}
	return s.issueTokens(user)
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.AuthResponseDTO, error) {
	claims, err := s.jwtSvc.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError(err.Error())
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.NewUnauthorizedError(apperrors.ErrTokenIsNotRefresh.Error())
	}

	user, err := s.userRepo.FindUserByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, apperrors.NewUnauthorizedError(apperrors.ErrUnauthorized.Error())
	}
	return s.issueTokens(user)
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (*entities.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *AuthService) issueTokens(user *entities.User) (*dto.AuthResponseDTO, error) {
	access, refresh, err := s.jwtSvc.GenerateTokens(user.ID, user.Role)
	if err != nil {
		s.logger.Error("не удалось выпустить токены", zap.Uint64("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return &dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}
