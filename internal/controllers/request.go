package controllers

import (
	"fmt"
	"net/http"
	"time"

	"gearguard/internal/dto"
	"gearguard/internal/services"
	"gearguard/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RequestController struct {
	requestService services.RequestServiceInterface
	reportService  services.ReportServiceInterface
	logger         *zap.Logger
}

func NewRequestController(
	requestService services.RequestServiceInterface,
	reportService services.ReportServiceInterface,
	logger *zap.Logger,
) *RequestController {
	return &RequestController{
		requestService: requestService,
		reportService:  reportService,
		logger:         logger,
	}
}

func (c *RequestController) GetRequests(ctx echo.Context) error {
	requests, err := c.requestService.GetRequests(ctx.Request().Context())
	if err != nil {
		c.logger.Error("ошибка при получении списка заявок", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, requests, http.StatusOK)
}

func (c *RequestController) GetCalendar(ctx echo.Context) error {
	requests, err := c.requestService.GetCalendar(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, requests, http.StatusOK)
}

// GetManagerBoard — менеджерская доска, все заявки без фильтра.
func (c *RequestController) GetManagerBoard(ctx echo.Context) error {
	return c.GetRequests(ctx)
}

// GetTechnicianBoard — заявки техника: свои плюс свободные в своих бригадах.
func (c *RequestController) GetTechnicianBoard(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	requests, err := c.requestService.GetTechnicianBoard(ctx.Request().Context(), actor)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, requests, http.StatusOK)
}

func (c *RequestController) GetTechnicians(ctx echo.Context) error {
	technicians, err := c.requestService.GetTechnicians(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, technicians, http.StatusOK)
}

func (c *RequestController) FindRequest(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.FindRequest(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) CreateRequest(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreateRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.CreateRequest(ctx.Request().Context(), actor, payload)
	if err != nil {
		c.logger.Error("ошибка при создании заявки",
			zap.Uint64("equipment_id", payload.EquipmentID), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusCreated)
}

func (c *RequestController) UpdateRequest(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.UpdateRequest(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) DeleteRequest(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.requestService.DeleteRequest(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *RequestController) AssignSelf(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.AssignSelf(ctx.Request().Context(), actor, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) AssignByManager(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.ManagerAssignDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.AssignByManager(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) Start(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.Start(ctx.Request().Context(), actor, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) Complete(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CloseRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.Complete(ctx.Request().Context(), actor, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) Scrap(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CloseRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	request, err := c.requestService.Scrap(ctx.Request().Context(), actor, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, request, http.StatusOK)
}

func (c *RequestController) ExportReport(ctx echo.Context) error {
	buffer, err := c.reportService.ExportRequestsXLSX(ctx.Request().Context())
	if err != nil {
		c.logger.Error("ошибка при формировании отчета", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filename := fmt.Sprintf("requests_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buffer.Bytes())
}
