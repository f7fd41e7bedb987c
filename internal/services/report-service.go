package services

import (
	"bytes"
	"context"
	"fmt"

	"gearguard/internal/entities"
	"gearguard/internal/repositories"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ReportServiceInterface interface {
	ExportRequestsXLSX(ctx context.Context) (*bytes.Buffer, error)
}

type ReportService struct {
	requestRepo repositories.RequestRepositoryInterface
	logger      *zap.Logger
}

func NewReportService(requestRepo repositories.RequestRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &ReportService{requestRepo: requestRepo, logger: logger}
}

var reportHeaders = []string{
	"ID", "Тема", "Оборудование", "Серийный номер", "Категория",
	"Бригада", "Исполнитель", "Тип", "Стадия", "Приоритет",
	"Плановая дата", "Начата", "Завершена", "Часы", "Автор",
}

// ExportRequestsXLSX выгружает все заявки одним листом.
func (s *ReportService) ExportRequestsXLSX(ctx context.Context) (*bytes.Buffer, error) {
	requests, err := s.requestRepo.GetRequests(ctx, repositories.RequestFilter{})
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("не удалось закрыть файл отчета", zap.Error(err))
		}
	}()

	const sheet = "Заявки"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания листа отчета: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		s.logger.Warn("не удалось удалить лист по умолчанию", zap.Error(err))
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
		_ = file.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, req := range requests {
		row := i + 2
		values := requestReportRow(req)
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи отчета: %w", err)
	}
	return buffer, nil
}

func requestReportRow(req entities.MaintenanceRequest) []interface{} {
	var equipmentName, serialNumber, teamName string
	if req.Equipment != nil {
		equipmentName = req.Equipment.Name
		serialNumber = req.Equipment.SerialNumber
	}
	if req.Team != nil {
		teamName = req.Team.Name
	}

	var assignee string
	if req.AssignedTo != nil {
		assignee = req.AssignedTo.Name
		if assignee == "" {
			assignee = req.AssignedTo.Email
		}
	}

	const dateLayout = "2006-01-02"
	var scheduled, started, completed string
	if req.ScheduledDate != nil {
		scheduled = req.ScheduledDate.Format(dateLayout)
	}
	if req.StartedAt != nil {
		started = req.StartedAt.Format(dateLayout)
	}
	if req.CompletedAt != nil {
		completed = req.CompletedAt.Format(dateLayout)
	}

	var hours interface{}
	if req.HoursSpent != nil {
		hours = *req.HoursSpent
	} else {
		hours = ""
	}

	return []interface{}{
		req.ID, req.Subject, equipmentName, serialNumber, req.EquipmentCategory,
		teamName, assignee, req.RequestType.String(), req.Stage.String(), req.Priority.String(),
		scheduled, started, completed, hours, req.CreatedBy,
	}
}
