package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	"gearguard/pkg/contextkeys"
	"gearguard/pkg/customvalidator"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubRequestService — поведение каждого метода задается полем-функцией,
// незаданные методы в тесте не вызываются.
type stubRequestService struct {
	findRequest func(id uint64) (*entities.MaintenanceRequest, error)
	complete    func(id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error)
	assignSelf  func(id uint64) (*entities.MaintenanceRequest, error)
	create      func(payload dto.CreateRequestDTO) (*entities.MaintenanceRequest, error)
}

func (s *stubRequestService) GetRequests(ctx context.Context) ([]entities.MaintenanceRequest, error) {
	return nil, nil
}

func (s *stubRequestService) GetCalendar(ctx context.Context) ([]entities.MaintenanceRequest, error) {
	return nil, nil
}

func (s *stubRequestService) GetTechnicianBoard(ctx context.Context, actor *entities.User) ([]entities.MaintenanceRequest, error) {
	return nil, nil
}

func (s *stubRequestService) GetTechnicians(ctx context.Context) ([]entities.User, error) {
	return nil, nil
}

func (s *stubRequestService) FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	return s.findRequest(id)
}

func (s *stubRequestService) CreateRequest(ctx context.Context, actor *entities.User, payload dto.CreateRequestDTO) (*entities.MaintenanceRequest, error) {
	return s.create(payload)
}

func (s *stubRequestService) UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) (*entities.MaintenanceRequest, error) {
	return nil, nil
}

func (s *stubRequestService) DeleteRequest(ctx context.Context, id uint64) error { return nil }

func (s *stubRequestService) AssignSelf(ctx context.Context, actor *entities.User, id uint64) (*entities.MaintenanceRequest, error) {
	return s.assignSelf(id)
}

func (s *stubRequestService) AssignByManager(ctx context.Context, id uint64, payload dto.ManagerAssignDTO) (*entities.MaintenanceRequest, error) {
	return nil, nil
}

func (s *stubRequestService) Start(ctx context.Context, actor *entities.User, id uint64) (*entities.MaintenanceRequest, error) {
	return nil, nil
}

func (s *stubRequestService) Complete(ctx context.Context, actor *entities.User, id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error) {
	return s.complete(id, payload)
}

func (s *stubRequestService) Scrap(ctx context.Context, actor *entities.User, id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error) {
	return nil, nil
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	v := validator.New()
	require.NoError(t, customvalidator.RegisterCustomValidations(v))
	e.Validator = utils.NewValidator(v)
	return e
}

func newContextWithActor(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, actor *entities.User) echo.Context {
	reqCtx := context.WithValue(req.Context(), contextkeys.ActorKey, actor)
	reqCtx = context.WithValue(reqCtx, contextkeys.UserIDKey, actor.ID)
	return e.NewContext(req.WithContext(reqCtx), rec)
}

func testTechnician() *entities.User {
	return &entities.User{ID: 7, Name: "Техник", Email: "tech@example.com", Role: constants.RoleTechnician}
}

func TestFindRequest_NotFoundMapsTo404(t *testing.T) {
	e := newTestEcho(t)
	svc := &stubRequestService{
		findRequest: func(id uint64) (*entities.MaintenanceRequest, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	ctrl := NewRequestController(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/requests/99", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("99")

	require.NoError(t, ctrl.FindRequest(ctx))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["message"])
}

func TestFindRequest_BadIDMapsTo400(t *testing.T) {
	e := newTestEcho(t)
	ctrl := NewRequestController(&stubRequestService{}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/requests/abc", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("abc")

	require.NoError(t, ctrl.FindRequest(ctx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignSelf_ForbiddenMapsTo403(t *testing.T) {
	e := newTestEcho(t)
	svc := &stubRequestService{
		assignSelf: func(id uint64) (*entities.MaintenanceRequest, error) {
			return nil, apperrors.ErrForbidden
		},
	}
	ctrl := NewRequestController(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPatch, "/api/requests/5/assign-self", nil)
	rec := httptest.NewRecorder()
	ctx := newContextWithActor(e, req, rec, testTechnician())
	ctx.SetParamNames("id")
	ctx.SetParamValues("5")

	require.NoError(t, ctrl.AssignSelf(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignSelf_TeamBusyMapsTo400(t *testing.T) {
	e := newTestEcho(t)
	svc := &stubRequestService{
		assignSelf: func(id uint64) (*entities.MaintenanceRequest, error) {
			return nil, apperrors.ErrTeamBusy
		},
	}
	ctrl := NewRequestController(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPatch, "/api/requests/5/assign-self", nil)
	rec := httptest.NewRecorder()
	ctx := newContextWithActor(e, req, rec, testTechnician())
	ctx.SetParamNames("id")
	ctx.SetParamValues("5")

	require.NoError(t, ctrl.AssignSelf(ctx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "бригады")
}

func TestComplete_ValidationRejectsZeroHours(t *testing.T) {
	e := newTestEcho(t)
	ctrl := NewRequestController(&stubRequestService{}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPatch, "/api/requests/5/complete",
		strings.NewReader(`{"hoursSpent": 0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newContextWithActor(e, req, rec, testTechnician())
	ctx.SetParamNames("id")
	ctx.SetParamValues("5")

	require.NoError(t, ctrl.Complete(ctx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplete_ReturnsUpdatedRequest(t *testing.T) {
	e := newTestEcho(t)
	hours := 3.5
	svc := &stubRequestService{
		complete: func(id uint64, payload dto.CloseRequestDTO) (*entities.MaintenanceRequest, error) {
			return &entities.MaintenanceRequest{
				ID:         id,
				Stage:      constants.StageRepaired,
				Status:     constants.StageRepaired.String(),
				HoursSpent: &hours,
			}, nil
		},
	}
	ctrl := NewRequestController(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPatch, "/api/requests/5/complete",
		strings.NewReader(`{"hoursSpent": 3.5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newContextWithActor(e, req, rec, testTechnician())
	ctx.SetParamNames("id")
	ctx.SetParamValues("5")

	require.NoError(t, ctrl.Complete(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body entities.MaintenanceRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, constants.StageRepaired, body.Stage)
	assert.Equal(t, "Repaired", body.Status, "устаревшее поле status зеркалирует stage")
}

func TestCreateRequest_ValidationErrors(t *testing.T) {
	e := newTestEcho(t)
	ctrl := NewRequestController(&stubRequestService{}, nil, zap.NewNop())

	// Нет subject и requestType
	req := httptest.NewRequest(http.MethodPost, "/api/requests",
		strings.NewReader(`{"equipmentId": 10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newContextWithActor(e, req, rec, testTechnician())

	require.NoError(t, ctrl.CreateRequest(ctx))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok, "в теле ответа ожидается массив errors")
	assert.NotEmpty(t, errs)
}

func TestCreateRequest_Success(t *testing.T) {
	e := newTestEcho(t)
	svc := &stubRequestService{
		create: func(payload dto.CreateRequestDTO) (*entities.MaintenanceRequest, error) {
			return &entities.MaintenanceRequest{ID: 1, Subject: payload.Subject, Stage: constants.StageNew}, nil
		},
	}
	ctrl := NewRequestController(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/requests",
		strings.NewReader(`{"subject": "Не включается", "equipmentId": 10, "requestType": "Corrective"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newContextWithActor(e, req, rec, testTechnician())

	require.NoError(t, ctrl.CreateRequest(ctx))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
