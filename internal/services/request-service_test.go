package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Фейки репозиториев: поведение задается полями-функциями ---

type fakeRequestRepo struct {
	requests map[uint64]*entities.MaintenanceRequest

	createdWith    *entities.MaintenanceRequest
	assignAndStart func(id uint64, assignee entities.Assignment, userID uint64) error
	complete       func(id uint64, hours float64) error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uint64]*entities.MaintenanceRequest)}
}

func (f *fakeRequestRepo) GetRequests(ctx context.Context, filter repositories.RequestFilter) ([]entities.MaintenanceRequest, error) {
	out := make([]entities.MaintenanceRequest, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRequestRepo) GetTechnicianRequests(ctx context.Context, scope repositories.TechnicianScope) ([]entities.MaintenanceRequest, error) {
	return nil, nil
}

func (f *fakeRequestRepo) FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (f *fakeRequestRepo) CreateRequest(ctx context.Context, req *entities.MaintenanceRequest) (*entities.MaintenanceRequest, error) {
	f.createdWith = req
	req.ID = uint64(len(f.requests) + 1)
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeRequestRepo) Assign(ctx context.Context, id uint64, assignee entities.Assignment, userID uint64) error {
	req, ok := f.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	req.AssignedTo = &assignee
	req.AssignedToUserID = &userID
	return nil
}

func (f *fakeRequestRepo) AssignAndStart(ctx context.Context, id uint64, assignee entities.Assignment, userID uint64) error {
	if f.assignAndStart != nil {
		return f.assignAndStart(id, assignee, userID)
	}
	if err := f.Assign(ctx, id, assignee, userID); err != nil {
		return err
	}
	f.requests[id].Stage = constants.StageInProgress
	return nil
}

func (f *fakeRequestRepo) Start(ctx context.Context, id uint64) error {
	f.requests[id].Stage = constants.StageInProgress
	return nil
}

func (f *fakeRequestRepo) Complete(ctx context.Context, id uint64, hours float64) error {
	if f.complete != nil {
		return f.complete(id, hours)
	}
	req := f.requests[id]
	req.Stage = constants.StageRepaired
	req.HoursSpent = &hours
	return nil
}

func (f *fakeRequestRepo) Scrap(ctx context.Context, id uint64, hours float64) error {
	req := f.requests[id]
	req.Stage = constants.StageScrap
	req.HoursSpent = &hours
	return nil
}

func (f *fakeRequestRepo) UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) error {
	if _, ok := f.requests[id]; !ok {
		return apperrors.ErrNotFound
	}
	return nil
}

func (f *fakeRequestRepo) DeleteRequest(ctx context.Context, id uint64) error {
	delete(f.requests, id)
	return nil
}

type fakeEquipmentRepo struct {
	equipments map[uint64]*entities.Equipment
}

func (f *fakeEquipmentRepo) GetEquipments(ctx context.Context, search string) ([]entities.Equipment, error) {
	return nil, nil
}

func (f *fakeEquipmentRepo) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	eq, ok := f.equipments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return eq, nil
}

func (f *fakeEquipmentRepo) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	return nil, nil
}

func (f *fakeEquipmentRepo) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	return nil, nil
}

func (f *fakeEquipmentRepo) DeleteEquipment(ctx context.Context, id uint64) error { return nil }

func (f *fakeEquipmentRepo) CountOpenRequests(ctx context.Context, id uint64) (uint64, error) {
	return 0, nil
}

func (f *fakeEquipmentRepo) AppendNote(ctx context.Context, id uint64, note string) error { return nil }

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func (f *fakeUserRepo) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	return user, nil
}

func (f *fakeUserRepo) GetTechnicians(ctx context.Context) ([]entities.User, error) { return nil, nil }

type fakeTeamService struct {
	rosters map[uint64][]entities.TeamMember
	teams   map[uint64]*entities.Team
}

func (f *fakeTeamService) GetTeams(ctx context.Context, search string) ([]entities.Team, error) {
	return nil, nil
}

func (f *fakeTeamService) FindTeam(ctx context.Context, id uint64) (*entities.Team, error) {
	team, ok := f.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return team, nil
}

func (f *fakeTeamService) GetRoster(ctx context.Context, teamID uint64) ([]entities.TeamMember, error) {
	return f.rosters[teamID], nil
}

func (f *fakeTeamService) GetTeamIDsByMemberEmail(ctx context.Context, email string) ([]uint64, error) {
	return nil, nil
}

func (f *fakeTeamService) CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (*entities.Team, error) {
	return nil, nil
}

func (f *fakeTeamService) UpdateTeam(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*entities.Team, error) {
	return nil, nil
}

func (f *fakeTeamService) DeleteTeam(ctx context.Context, id uint64) error { return nil }

// --- Сборка сервиса на фейках ---

type fixture struct {
	svc        RequestServiceInterface
	requests   *fakeRequestRepo
	equipments *fakeEquipmentRepo
	users      *fakeUserRepo
	teams      *fakeTeamService
}

func newFixture() *fixture {
	requests := newFakeRequestRepo()
	equipments := &fakeEquipmentRepo{equipments: make(map[uint64]*entities.Equipment)}
	users := &fakeUserRepo{users: make(map[uint64]*entities.User)}
	teams := &fakeTeamService{
		rosters: make(map[uint64][]entities.TeamMember),
		teams:   make(map[uint64]*entities.Team),
	}
	svc := NewRequestService(requests, equipments, users, teams, authz.NewGatekeeper(), zap.NewNop())
	return &fixture{svc: svc, requests: requests, equipments: equipments, users: users, teams: teams}
}

func (f *fixture) addEquipment(eq *entities.Equipment) {
	f.equipments.equipments[eq.ID] = eq
}

func strPtr(s string) *string    { return &s }
func u64Ptr(v uint64) *uint64    { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func manager() *entities.User {
	return &entities.User{ID: 1, Name: "Менеджер", Email: "manager@example.com", Role: constants.RoleManager}
}

func TestCreateRequest_ScrappedEquipmentRejected(t *testing.T) {
	f := newFixture()
	f.addEquipment(&entities.Equipment{ID: 10, TeamID: 3, Category: "Станки", IsScrapped: true})

	_, err := f.svc.CreateRequest(context.Background(), manager(), dto.CreateRequestDTO{
		Subject:     "Не включается",
		EquipmentID: 10,
		RequestType: "Corrective",
	})

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreateRequest_PreventiveRequiresDate(t *testing.T) {
	f := newFixture()
	f.addEquipment(&entities.Equipment{ID: 10, TeamID: 3, Category: "Станки"})

	_, err := f.svc.CreateRequest(context.Background(), manager(), dto.CreateRequestDTO{
		Subject:     "Плановый осмотр",
		EquipmentID: 10,
		RequestType: "Preventive",
	})

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreateRequest_PastDateRejected(t *testing.T) {
	f := newFixture()
	f.addEquipment(&entities.Equipment{ID: 10, TeamID: 3, Category: "Станки"})

	yesterday := time.Now().AddDate(0, 0, -1)
	_, err := f.svc.CreateRequest(context.Background(), manager(), dto.CreateRequestDTO{
		Subject:       "Плановый осмотр",
		EquipmentID:   10,
		RequestType:   "Preventive",
		ScheduledDate: timePtr(yesterday),
	})

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreateRequest_DefaultsFromEquipment(t *testing.T) {
	f := newFixture()
	f.addEquipment(&entities.Equipment{
		ID:                     10,
		TeamID:                 3,
		Category:               "Станки",
		DefaultTechnicianName:  strPtr("Иван Петров"),
		DefaultTechnicianEmail: strPtr("i.petrov@example.com"),
	})

	created, err := f.svc.CreateRequest(context.Background(), manager(), dto.CreateRequestDTO{
		Subject:     "Гудит подшипник",
		EquipmentID: 10,
		RequestType: "Corrective",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), created.TeamID, "бригада берется с оборудования")
	assert.Equal(t, "Станки", created.EquipmentCategory, "категория копируется с оборудования")
	assert.Equal(t, constants.PriorityMedium, created.Priority, "приоритет по умолчанию Medium")
	assert.Equal(t, "Менеджер", created.CreatedBy)
	require.NotNil(t, created.AssignedTo, "закрепленный техник подставляется автоматически")
	assert.Equal(t, "i.petrov@example.com", created.AssignedTo.Email)
}

func TestCreateRequest_CustomCategoryWins(t *testing.T) {
	f := newFixture()
	f.addEquipment(&entities.Equipment{
		ID:             10,
		TeamID:         3,
		Category:       "Other",
		CustomCategory: strPtr("Гидравлический пресс"),
	})

	created, err := f.svc.CreateRequest(context.Background(), manager(), dto.CreateRequestDTO{
		Subject:     "Течет масло",
		EquipmentID: 10,
		RequestType: "Corrective",
	})
	require.NoError(t, err)
	assert.Equal(t, "Гидравлический пресс", created.EquipmentCategory)
}

func TestAssignSelf_ForeignTechnicianForbidden(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}

	stranger := &entities.User{
		ID: 7, Name: "Чужой техник", Email: "stranger@example.com",
		Role: constants.RoleTechnician, TeamID: u64Ptr(9),
	}
	_, err := f.svc.AssignSelf(context.Background(), stranger, 5)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAssignSelf_EligibleByRoster(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}
	f.teams.rosters[3] = []entities.TeamMember{{Email: "tech@example.com"}}

	tech := &entities.User{
		ID: 7, Name: "Техник", Email: "tech@example.com", Role: constants.RoleTechnician,
	}
	updated, err := f.svc.AssignSelf(context.Background(), tech, 5)
	require.NoError(t, err)

	assert.Equal(t, constants.StageInProgress, updated.Stage)
	require.NotNil(t, updated.AssignedToUserID)
	assert.Equal(t, uint64(7), *updated.AssignedToUserID)
}

func TestAssignSelf_TeamBusyPropagates(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}
	f.requests.assignAndStart = func(id uint64, assignee entities.Assignment, userID uint64) error {
		return apperrors.ErrTeamBusy
	}

	tech := &entities.User{
		ID: 7, Name: "Техник", Email: "tech@example.com",
		Role: constants.RoleTechnician, TeamID: u64Ptr(3),
	}
	_, err := f.svc.AssignSelf(context.Background(), tech, 5)
	assert.ErrorIs(t, err, apperrors.ErrTeamBusy)
}

func TestAssignSelf_ManagerDoesNotStart(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}

	// Менеджер забирает заявку себе: назначение есть, запуска нет
	updated, err := f.svc.AssignSelf(context.Background(), manager(), 5)
	require.NoError(t, err)

	assert.Equal(t, constants.StageNew, updated.Stage)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "manager@example.com", updated.AssignedTo.Email)
	require.NotNil(t, updated.AssignedToUserID)
	assert.Equal(t, uint64(1), *updated.AssignedToUserID)
}

func TestAssignByManager_TargetMustBeActiveTechnician(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}
	f.users.users[2] = &entities.User{ID: 2, Name: "Кладовщик", Role: constants.RoleUser, IsActive: true}
	f.users.users[3] = &entities.User{ID: 3, Name: "Уволенный", Role: constants.RoleTechnician, IsActive: false}
	f.users.users[4] = &entities.User{
		ID: 4, Name: "Техник", Email: "tech@example.com",
		Role: constants.RoleTechnician, IsActive: true,
	}

	_, err := f.svc.AssignByManager(context.Background(), 5, dto.ManagerAssignDTO{TechnicianID: 2})
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	_, err = f.svc.AssignByManager(context.Background(), 5, dto.ManagerAssignDTO{TechnicianID: 3})
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	updated, err := f.svc.AssignByManager(context.Background(), 5, dto.ManagerAssignDTO{TechnicianID: 4})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "tech@example.com", updated.AssignedTo.Email)
	assert.Equal(t, constants.StageNew, updated.Stage, "назначение менеджером не запускает работу")
}

func TestAssignByManager_ClosedRequestRejected(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageRepaired}
	f.users.users[4] = &entities.User{ID: 4, Name: "Техник", Role: constants.RoleTechnician, IsActive: true}

	_, err := f.svc.AssignByManager(context.Background(), 5, dto.ManagerAssignDTO{TechnicianID: 4})
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestStart_OnlyFromNew(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageRepaired}

	_, err := f.svc.Start(context.Background(), manager(), 5)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestComplete_OnlyFromInProgress(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}

	_, err := f.svc.Complete(context.Background(), manager(), 5, dto.CloseRequestDTO{HoursSpent: 2})
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestComplete_OnlyAssigneeOrManager(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{
		ID: 5, TeamID: 3, Stage: constants.StageInProgress, AssignedToUserID: u64Ptr(7),
	}

	otherTech := &entities.User{
		ID: 8, Email: "other@example.com", Role: constants.RoleTechnician, TeamID: u64Ptr(3),
	}
	_, err := f.svc.Complete(context.Background(), otherTech, 5, dto.CloseRequestDTO{HoursSpent: 2})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := f.svc.Complete(context.Background(), manager(), 5, dto.CloseRequestDTO{HoursSpent: 2.5})
	require.NoError(t, err)
	assert.Equal(t, constants.StageRepaired, updated.Stage)
	require.NotNil(t, updated.HoursSpent)
	assert.Equal(t, 2.5, *updated.HoursSpent)
}

func TestScrap_ManagerAllowed(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{ID: 5, TeamID: 3, Stage: constants.StageNew}

	updated, err := f.svc.Scrap(context.Background(), manager(), 5, dto.CloseRequestDTO{HoursSpent: 1})
	require.NoError(t, err)
	assert.Equal(t, constants.StageScrap, updated.Stage)
}

func TestScrap_AssigneeWithoutTeamAllowed(t *testing.T) {
	f := newFixture()
	f.requests.requests[5] = &entities.MaintenanceRequest{
		ID: 5, TeamID: 3, Stage: constants.StageInProgress, AssignedToUserID: u64Ptr(7),
	}

	// Назначенный техник списывает без проверки членства в бригаде
	tech := &entities.User{ID: 7, Email: "tech@example.com", Role: constants.RoleTechnician}
	updated, err := f.svc.Scrap(context.Background(), tech, 5, dto.CloseRequestDTO{HoursSpent: 0.5})
	require.NoError(t, err)
	assert.Equal(t, constants.StageScrap, updated.Stage)

	f.requests.requests[6] = &entities.MaintenanceRequest{ID: 6, TeamID: 3, Stage: constants.StageNew}
	stranger := &entities.User{ID: 8, Email: "other@example.com", Role: constants.RoleTechnician}
	_, err = f.svc.Scrap(context.Background(), stranger, 6, dto.CloseRequestDTO{HoursSpent: 1})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestFindRequest_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindRequest(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
