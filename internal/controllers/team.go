package controllers

import (
	"net/http"
	"strconv"

	"gearguard/internal/dto"
	"gearguard/internal/services"
	"gearguard/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type TeamController struct {
	teamService services.TeamServiceInterface
	logger      *zap.Logger
}

func NewTeamController(teamService services.TeamServiceInterface, logger *zap.Logger) *TeamController {
	return &TeamController{teamService: teamService, logger: logger}
}

func (c *TeamController) GetTeams(ctx echo.Context) error {
	teams, err := c.teamService.GetTeams(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		c.logger.Error("ошибка при получении списка бригад", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, teams, http.StatusOK)
}

func (c *TeamController) FindTeam(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	team, err := c.teamService.FindTeam(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, team, http.StatusOK)
}

func (c *TeamController) CreateTeam(ctx echo.Context) error {
	var payload dto.CreateTeamDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	team, err := c.teamService.CreateTeam(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("ошибка при создании бригады", zap.String("name", payload.Name), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, team, http.StatusCreated)
}

func (c *TeamController) UpdateTeam(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateTeamDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	team, err := c.teamService.UpdateTeam(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, team, http.StatusOK)
}

func (c *TeamController) DeleteTeam(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.teamService.DeleteTeam(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func parseID(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "некорректный ID")
	}
	return id, nil
}
