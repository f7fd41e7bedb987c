package services

import (
	"context"
	"strings"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"

	"go.uber.org/zap"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, search string) ([]entities.Equipment, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	GetRequestsForEquipment(ctx context.Context, id uint64) ([]entities.MaintenanceRequest, error)
	CountOpenRequests(ctx context.Context, id uint64) (*dto.OpenRequestCountDTO, error)
}

type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	requestRepo   repositories.RequestRepositoryInterface
	teamRepo      repositories.TeamRepositoryInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	requestRepo repositories.RequestRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		requestRepo:   requestRepo,
		teamRepo:      teamRepo,
		logger:        logger,
	}
}

func (s *EquipmentService) GetEquipments(ctx context.Context, search string) ([]entities.Equipment, error) {
	return s.equipmentRepo.GetEquipments(ctx, search)
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return s.equipmentRepo.FindEquipment(ctx, id)
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	if !constants.IsKnownEquipmentCategory(payload.Category) {
		return nil, apperrors.NewBadRequestError("Неизвестная категория оборудования: " + payload.Category)
	}
	// "Other" требует уточнения категории словами
	if strings.EqualFold(payload.Category, "Other") &&
		(payload.CustomCategory == nil || *payload.CustomCategory == "") {
		return nil, apperrors.NewBadRequestError("Для категории 'Other' укажите customCategory")
	}

	if _, err := s.teamRepo.FindTeam(ctx, payload.TeamID); err != nil {
		return nil, apperrors.NewBadRequestError("Указанная бригада не существует")
	}
	return s.equipmentRepo.CreateEquipment(ctx, payload)
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	if payload.TeamID != nil {
		if *payload.TeamID == 0 {
			// Бригада у оборудования обязательна, снять её нельзя
			return nil, apperrors.NewBadRequestError("У оборудования должна быть бригада обслуживания")
		}
		if _, err := s.teamRepo.FindTeam(ctx, *payload.TeamID); err != nil {
			return nil, apperrors.NewBadRequestError("Указанная бригада не существует")
		}
	}
	return s.equipmentRepo.UpdateEquipment(ctx, id, payload)
}

func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	count, err := s.equipmentRepo.CountOpenRequests(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewBadRequestError("Нельзя удалить оборудование с открытыми заявками")
	}
	return s.equipmentRepo.DeleteEquipment(ctx, id)
}

func (s *EquipmentService) GetRequestsForEquipment(ctx context.Context, id uint64) ([]entities.MaintenanceRequest, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, id); err != nil {
		return nil, err
	}
	return s.requestRepo.GetRequests(ctx, repositories.RequestFilter{EquipmentID: &id})
}

func (s *EquipmentService) CountOpenRequests(ctx context.Context, id uint64) (*dto.OpenRequestCountDTO, error) {
	if _, err := s.equipmentRepo.FindEquipment(ctx, id); err != nil {
		return nil, err
	}
	count, err := s.equipmentRepo.CountOpenRequests(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.OpenRequestCountDTO{EquipmentID: id, Count: count}, nil
}
