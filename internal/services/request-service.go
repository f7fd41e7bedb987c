package services

import (
	"context"
	"time"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/utils"

	"go.uber.org/zap"
)

type RequestServiceInterface interface {
	GetRequests(ctx context.Context) ([]entities.MaintenanceRequest, error)
	GetCalendar(ctx context.Context) ([]entities.MaintenanceRequest, error)
	GetTechnicianBoard(ctx context.Context, actor *entities.User) ([]entities.MaintenanceRequest, error)
	GetTechnicians(ctx context.Context) ([]entities.User, error)
	FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error)
	CreateRequest(ctx context.Context, actor *entities.User, payload dto.CreateRequestDTO) (*entities.MaintenanceRequest, error)
	UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) (*entities.MaintenanceRequest, error)
	DeleteRequest(ctx context.Context, id uint64) error

	AssignSelf(ctx context.Context, actor *entities.User, id uint64) (*entities.MaintenanceRequest, error)
	AssignByManager(ctx context.Context, id uint64, payload dto.ManagerAssignDTO) (*entities.MaintenanceRequest, error)
	Start(ctx context.Context, actor *entities.User, id uint64) (*entities.MaintenanceRequest, error)
	Complete(ctx context.Context, actor *entities.User, id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error)
	Scrap(ctx context.Context, actor *entities.User, id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error)
}

type RequestService struct {
	requestRepo   repositories.RequestRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	teamSvc       TeamServiceInterface
	gate          *authz.Gatekeeper
	logger        *zap.Logger
}

func NewRequestService(
	requestRepo repositories.RequestRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	teamSvc TeamServiceInterface,
	gate *authz.Gatekeeper,
	logger *zap.Logger,
) RequestServiceInterface {
	return &RequestService{
		requestRepo:   requestRepo,
		equipmentRepo: equipmentRepo,
		userRepo:      userRepo,
		teamSvc:       teamSvc,
		gate:          gate,
		logger:        logger,
	}
}

func (s *RequestService) GetRequests(ctx context.Context) ([]entities.MaintenanceRequest, error) {
	return s.requestRepo.GetRequests(ctx, repositories.RequestFilter{})
}

// GetCalendar — только плановые заявки, отсортированы по плановой дате.
func (s *RequestService) GetCalendar(ctx context.Context) ([]entities.MaintenanceRequest, error) {
	return s.requestRepo.GetRequests(ctx, repositories.RequestFilter{
		PreventiveOnly:   true,
		OrderByScheduled: true,
	})
}

func (s *RequestService) GetTechnicianBoard(ctx context.Context, actor *entities.User) ([]entities.MaintenanceRequest, error) {
	teamIDs, err := s.teamSvc.GetTeamIDsByMemberEmail(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	if actor.TeamID != nil {
		teamIDs = appendUnique(teamIDs, *actor.TeamID)
	}
	return s.requestRepo.GetTechnicianRequests(ctx, repositories.TechnicianScope{
		UserID:  actor.ID,
		Email:   actor.Email,
		TeamIDs: teamIDs,
	})
}

func (s *RequestService) GetTechnicians(ctx context.Context) ([]entities.User, error) {
	return s.userRepo.GetTechnicians(ctx)
}

func (s *RequestService) FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	return s.requestRepo.FindRequest(ctx, id)
}

func (s *RequestService) CreateRequest(ctx context.Context, actor *entities.User, payload dto.CreateRequestDTO) (*entities.MaintenanceRequest, error) {
	equipment, err := s.equipmentRepo.FindEquipment(ctx, payload.EquipmentID)
	if err != nil {
		return nil, err
	}
	if equipment.IsScrapped {
		return nil, apperrors.NewBadRequestError("Оборудование списано, создать заявку нельзя")
	}

	requestType, _ := constants.ParseRequestType(payload.RequestType)
	if requestType == constants.RequestTypePreventive && payload.ScheduledDate == nil {
		return nil, apperrors.NewBadRequestError("Для плановой заявки обязательна плановая дата")
	}
	if payload.ScheduledDate != nil && utils.IsPastDate(*payload.ScheduledDate, time.Now()) {
		return nil, apperrors.NewBadRequestError("Плановая дата не может быть в прошлом")
	}

	priority := constants.PriorityMedium
	if payload.Priority != "" {
		priority, _ = constants.ParsePriority(payload.Priority)
	}

	// Бригада и категория снимаются с оборудования
	teamID := equipment.TeamID
	if payload.TeamID != nil {
		teamID = *payload.TeamID
		if _, err := s.teamSvc.FindTeam(ctx, teamID); err != nil {
			return nil, apperrors.NewBadRequestError("Указанная бригада не существует")
		}
	}
	category := equipment.Category
	if equipment.CustomCategory != nil && *equipment.CustomCategory != "" {
		category = *equipment.CustomCategory
	}

	req := &entities.MaintenanceRequest{
		Subject:           payload.Subject,
		Description:       payload.Description,
		EquipmentID:       equipment.ID,
		EquipmentCategory: category,
		TeamID:            teamID,
		RequestType:       requestType,
		Priority:          priority,
		ScheduledDate:     payload.ScheduledDate,
		CreatedBy:         actor.Name,
	}

	if payload.AssignedTo != nil {
		req.AssignedTo = &entities.Assignment{
			Name:      payload.AssignedTo.Name,
			Email:     payload.AssignedTo.Email,
			AvatarURL: payload.AssignedTo.AvatarURL,
		}
	} else if equipment.DefaultTechnicianEmail != nil {
		// Автоподстановка закрепленного техника
		req.AssignedTo = &entities.Assignment{
			Name:  derefString(equipment.DefaultTechnicianName),
			Email: *equipment.DefaultTechnicianEmail,
		}
	}

	return s.requestRepo.CreateRequest(ctx, req)
}

func (s *RequestService) UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) (*entities.MaintenanceRequest, error) {
	if payload.ScheduledDate != nil && utils.IsPastDate(*payload.ScheduledDate, time.Now()) {
		return nil, apperrors.NewBadRequestError("Плановая дата не может быть в прошлом")
	}
	if payload.TeamID != nil {
		if _, err := s.teamSvc.FindTeam(ctx, *payload.TeamID); err != nil {
			return nil, apperrors.NewBadRequestError("Указанная бригада не существует")
		}
	}
	if err := s.requestRepo.UpdateRequest(ctx, id, payload); err != nil {
		return nil, err
	}
	return s.requestRepo.FindRequest(ctx, id)
}

func (s *RequestService) DeleteRequest(ctx context.Context, id uint64) error {
	return s.requestRepo.DeleteRequest(ctx, id)
}

// AssignSelf — техник забирает заявку себе и сразу берет в работу.
// Менеджер только назначает себя, стадия не меняется.
func (s *RequestService) AssignSelf(ctx context.Context, actor *entities.User, id uint64) (*entities.MaintenanceRequest, error) {
	req, roster, err := s.loadWithRoster(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanSelfAssign(actor, req, roster) {
		return nil, apperrors.ErrForbidden
	}
	assignee := entities.Assignment{Name: actor.Name, Email: actor.Email, AvatarURL: actor.AvatarURL}
	if actor.IsManager() {
		err = s.requestRepo.Assign(ctx, id, assignee, actor.ID)
	} else {
		err = s.requestRepo.AssignAndStart(ctx, id, assignee, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	return s.requestRepo.FindRequest(ctx, id)
}

func (s *RequestService) AssignByManager(ctx context.Context, id uint64, payload dto.ManagerAssignDTO) (*entities.MaintenanceRequest, error) {
	req, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsOpen() {
		return nil, apperrors.NewBadRequestError("Заявка закрыта, назначить исполнителя нельзя")
	}

	technician, err := s.userRepo.FindUserByID(ctx, payload.TechnicianID)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Указанный техник не найден")
	}
	if !technician.IsTechnician() || !technician.IsActive {
		return nil, apperrors.NewBadRequestError("Назначить можно только активного техника")
	}

	assignee := entities.Assignment{Name: technician.Name, Email: technician.Email, AvatarURL: technician.AvatarURL}
	if err := s.requestRepo.Assign(ctx, id, assignee, technician.ID); err != nil {
		return nil, err
	}
	return s.requestRepo.FindRequest(ctx, id)
}

func (s *RequestService) Start(ctx context.Context, actor *entities.User, id uint64) (*entities.MaintenanceRequest, error) {
	req, roster, err := s.loadWithRoster(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanActOnRequest(actor, req, roster) {
		return nil, apperrors.ErrForbidden
	}
	if !constants.CanTransition(req.Stage, constants.StageInProgress) {
		return nil, apperrors.NewBadRequestError("Запустить в работу можно только заявку в стадии 'New'")
	}
	if err := s.requestRepo.Start(ctx, id); err != nil {
		return nil, err
	}
	return s.requestRepo.FindRequest(ctx, id)
}

func (s *RequestService) Complete(ctx context.Context, actor *entities.User, id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error) {
	req, roster, err := s.loadWithRoster(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanActOnRequest(actor, req, roster) {
		return nil, apperrors.ErrForbidden
	}
	if !constants.CanTransition(req.Stage, constants.StageRepaired) {
		return nil, apperrors.NewBadRequestError("Завершить можно только заявку в стадии 'In Progress'")
	}
	if err := s.requestRepo.Complete(ctx, id, payload.HoursSpent); err != nil {
		return nil, err
	}
	return s.requestRepo.FindRequest(ctx, id)
}

// Scrap — списание доступно менеджеру или назначенному технику;
// членство в бригаде здесь не проверяется.
func (s *RequestService) Scrap(ctx context.Context, actor *entities.User, id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error) {
	req, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := actor.IsManager() || (actor.IsTechnician() && s.gate.IsAssignee(actor, req))
	if !allowed {
		return nil, apperrors.ErrForbidden
	}
	if err := s.requestRepo.Scrap(ctx, id, payload.HoursSpent); err != nil {
		return nil, err
	}
	return s.requestRepo.FindRequest(ctx, id)
}

func (s *RequestService) loadWithRoster(ctx context.Context, id uint64) (*entities.MaintenanceRequest, []entities.TeamMember, error) {
	req, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	roster, err := s.teamSvc.GetRoster(ctx, req.TeamID)
	if err != nil {
		s.logger.Warn("не удалось получить ростер бригады",
			zap.Uint64("team_id", req.TeamID), zap.Error(err))
		roster = nil
	}
	return req, roster, nil
}

func appendUnique(ids []uint64, id uint64) []uint64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
