package controllers

import (
	"net/http"

	"gearguard/internal/dto"
	"gearguard/internal/services"
	"gearguard/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(equipmentService services.EquipmentServiceInterface, logger *zap.Logger) *EquipmentController {
	return &EquipmentController{equipmentService: equipmentService, logger: logger}
}

func (c *EquipmentController) GetEquipments(ctx echo.Context) error {
	equipments, err := c.equipmentService.GetEquipments(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		c.logger.Error("ошибка при получении списка оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, equipments, http.StatusOK)
}

func (c *EquipmentController) FindEquipment(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	equipment, err := c.equipmentService.FindEquipment(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, equipment, http.StatusOK)
}

func (c *EquipmentController) CreateEquipment(ctx echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	equipment, err := c.equipmentService.CreateEquipment(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("ошибка при создании оборудования",
			zap.String("serial_number", payload.SerialNumber), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, equipment, http.StatusCreated)
}

func (c *EquipmentController) UpdateEquipment(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	equipment, err := c.equipmentService.UpdateEquipment(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, equipment, http.StatusOK)
}

func (c *EquipmentController) DeleteEquipment(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.equipmentService.DeleteEquipment(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *EquipmentController) GetRequestsForEquipment(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	requests, err := c.equipmentService.GetRequestsForEquipment(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, requests, http.StatusOK)
}

func (c *EquipmentController) CountOpenRequests(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	count, err := c.equipmentService.CountOpenRequests(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, count, http.StatusOK)
}
