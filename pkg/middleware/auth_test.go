package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	"gearguard/pkg/contextkeys"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUserLoader struct {
	users map[uint64]*entities.User
}

func (s *stubUserLoader) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func setupAuth(users map[uint64]*entities.User) (*AuthMiddleware, service.JWTService) {
	jwtSvc := service.NewJWTService("test-secret", time.Hour, time.Hour*24, zap.NewNop())
	return NewAuthMiddleware(jwtSvc, &stubUserLoader{users: users}, zap.NewNop()), jwtSvc
}

func doRequest(mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	_ = mw(okHandler)(ctx)
	return rec
}

func TestAuth_MissingHeader(t *testing.T) {
	mw, _ := setupAuth(nil)
	rec := doRequest(mw.Auth, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	mw, _ := setupAuth(nil)
	rec := doRequest(mw.Auth, "Token abcdef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RefreshTokenRejected(t *testing.T) {
	users := map[uint64]*entities.User{
		1: {ID: 1, Role: constants.RoleUser, IsActive: true},
	}
	mw, jwtSvc := setupAuth(users)

	_, refresh, err := jwtSvc.GenerateTokens(1, constants.RoleUser)
	require.NoError(t, err)

	rec := doRequest(mw.Auth, "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh токен не годится для доступа к API")
}

func TestAuth_InactiveUserRejected(t *testing.T) {
	users := map[uint64]*entities.User{
		1: {ID: 1, Role: constants.RoleUser, IsActive: false},
	}
	mw, jwtSvc := setupAuth(users)

	access, _, err := jwtSvc.GenerateTokens(1, constants.RoleUser)
	require.NoError(t, err)

	rec := doRequest(mw.Auth, "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_UnknownUserRejected(t *testing.T) {
	mw, jwtSvc := setupAuth(map[uint64]*entities.User{})

	access, _, err := jwtSvc.GenerateTokens(99, constants.RoleUser)
	require.NoError(t, err)

	rec := doRequest(mw.Auth, "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_PutsActorIntoContext(t *testing.T) {
	users := map[uint64]*entities.User{
		7: {ID: 7, Name: "Техник", Role: constants.RoleTechnician, IsActive: true},
	}
	mw, jwtSvc := setupAuth(users)

	access, _, err := jwtSvc.GenerateTokens(7, constants.RoleTechnician)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	var gotActor *entities.User
	handler := func(c echo.Context) error {
		gotActor, _ = c.Request().Context().Value(contextkeys.ActorKey).(*entities.User)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, mw.Auth(handler)(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotActor)
	assert.Equal(t, uint64(7), gotActor.ID)
}

func TestRequireRoles(t *testing.T) {
	mw, _ := setupAuth(nil)
	managerOnly := mw.RequireRoles(constants.RoleManager)

	run := func(actor *entities.User) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/teams", nil)
		if actor != nil {
			reqCtx := context.WithValue(req.Context(), contextkeys.ActorKey, actor)
			req = req.WithContext(reqCtx)
		}
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)
		_ = managerOnly(okHandler)(ctx)
		return rec
	}

	rec := run(&entities.User{ID: 1, Role: constants.RoleManager})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = run(&entities.User{ID: 2, Role: constants.RoleTechnician})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = run(nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
