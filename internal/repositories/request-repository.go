package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const requestFields = `r.id, r.subject, r.description, r.equipment_id, r.equipment_category, r.team_id,
	r.assigned_to_name, r.assigned_to_email, r.assigned_to_avatar, r.assigned_to_user_id,
	r.request_type, r.stage, r.status, r.priority, r.scheduled_date, r.started_at, r.completed_at,
	r.hours_spent, r.created_by, r.created_at, r.updated_at,
	e.id, e.name, e.serial_number, e.category, e.status, e.is_scrapped,
	t.id, t.name, t.specialization`

// RequestFilter — параметры списочных выборок.
type RequestFilter struct {
	PreventiveOnly   bool
	OrderByScheduled bool
	EquipmentID      *uint64
}

// TechnicianScope — доска техника: свои заявки плюс свободные в своих бригадах.
type TechnicianScope struct {
	UserID  uint64
	Email   string
	TeamIDs []uint64
}

type RequestRepositoryInterface interface {
	GetRequests(ctx context.Context, filter RequestFilter) ([]entities.MaintenanceRequest, error)
	GetTechnicianRequests(ctx context.Context, scope TechnicianScope) ([]entities.MaintenanceRequest, error)
	FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error)
	CreateRequest(ctx context.Context, req *entities.MaintenanceRequest) (*entities.MaintenanceRequest, error)
	Assign(ctx context.Context, id uint64, assignee entities.Assignment, userID uint64) error
	AssignAndStart(ctx context.Context, id uint64, assignee entities.Assignment, userID uint64) error
	Start(ctx context.Context, id uint64) error
	Complete(ctx context.Context, id uint64, hours float64) error
	Scrap(ctx context.Context, id uint64, hours float64) error
	UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) error
	DeleteRequest(ctx context.Context, id uint64) error
}

type RequestRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRequestRepository(storage *pgxpool.Pool, logger *zap.Logger) RequestRepositoryInterface {
	return &RequestRepository{storage: storage, logger: logger}
}

func scanRequest(row pgx.Row) (*entities.MaintenanceRequest, error) {
	var r entities.MaintenanceRequest
	var e entities.Equipment
	var t entities.Team
	var assignedName, assignedEmail, assignedAvatar *string
	var stage, requestType, priority, equipmentStatus string

	err := row.Scan(
		&r.ID, &r.Subject, &r.Description, &r.EquipmentID, &r.EquipmentCategory, &r.TeamID,
		&assignedName, &assignedEmail, &assignedAvatar, &r.AssignedToUserID,
		&requestType, &stage, &r.Status, &priority, &r.ScheduledDate, &r.StartedAt, &r.CompletedAt,
		&r.HoursSpent, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
		&e.ID, &e.Name, &e.SerialNumber, &e.Category, &equipmentStatus, &e.IsScrapped,
		&t.ID, &t.Name, &t.Specialization,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
	}

	r.Stage = constants.Stage(stage)
	r.RequestType = constants.RequestType(requestType)
	r.Priority = constants.Priority(priority)
	if assignedEmail != nil {
		r.AssignedTo = &entities.Assignment{
			Name:      derefOr(assignedName, ""),
			Email:     *assignedEmail,
			AvatarURL: assignedAvatar,
		}
	}
	e.Status = constants.EquipmentStatus(equipmentStatus)
	r.Equipment = &e
	r.Team = &t
	return &r, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

const requestJoins = `FROM maintenance_requests r
	JOIN equipments e ON e.id = r.equipment_id
	JOIN teams t ON t.id = r.team_id`

func (r *RequestRepository) GetRequests(ctx context.Context, filter RequestFilter) ([]entities.MaintenanceRequest, error) {
	builder := sq.Select(requestFields).
		From("maintenance_requests r").
		Join("equipments e ON e.id = r.equipment_id").
		Join("teams t ON t.id = r.team_id").
		PlaceholderFormat(sq.Dollar)

	if filter.PreventiveOnly {
		builder = builder.Where(sq.Eq{"r.request_type": constants.RequestTypePreventive.String()})
	}
	if filter.EquipmentID != nil {
		builder = builder.Where(sq.Eq{"r.equipment_id": *filter.EquipmentID})
	}
	if filter.OrderByScheduled {
		builder = builder.OrderBy("r.scheduled_date ASC NULLS LAST")
	} else {
		builder = builder.OrderBy("r.created_at DESC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryRequests(ctx, query, args...)
}

func (r *RequestRepository) GetTechnicianRequests(ctx context.Context, scope TechnicianScope) ([]entities.MaintenanceRequest, error) {
	teamClause := sq.Or{}
	if len(scope.TeamIDs) > 0 {
		// Свободная заявка в бригаде техника
		teamClause = append(teamClause, sq.And{
			sq.Eq{"r.team_id": scope.TeamIDs},
			sq.Eq{"r.assigned_to_user_id": nil},
			sq.Eq{"r.assigned_to_email": nil},
		})
	}
	teamClause = append(teamClause,
		sq.Eq{"r.assigned_to_user_id": scope.UserID},
		sq.Expr("LOWER(r.assigned_to_email) = LOWER(?)", scope.Email),
	)

	query, args, err := sq.Select(requestFields).
		From("maintenance_requests r").
		Join("equipments e ON e.id = r.equipment_id").
		Join("teams t ON t.id = r.team_id").
		Where(teamClause).
		OrderBy("r.created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryRequests(ctx, query, args...)
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]entities.MaintenanceRequest, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	requests := make([]entities.MaintenanceRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *RequestRepository) FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1`, requestFields, requestJoins)
	return scanRequest(r.storage.QueryRow(ctx, query, id))
}

func (r *RequestRepository) CreateRequest(ctx context.Context, req *entities.MaintenanceRequest) (*entities.MaintenanceRequest, error) {
	var assignedName, assignedEmail, assignedAvatar *string
	if req.AssignedTo != nil {
		assignedName = &req.AssignedTo.Name
		assignedEmail = &req.AssignedTo.Email
		assignedAvatar = req.AssignedTo.AvatarURL
	}

	var newID uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO maintenance_requests (subject, description, equipment_id, equipment_category, team_id,
			assigned_to_name, assigned_to_email, assigned_to_avatar, assigned_to_user_id,
			request_type, stage, status, priority, scheduled_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11, $12, $13, $14)
		RETURNING id`,
		req.Subject, req.Description, req.EquipmentID, req.EquipmentCategory, req.TeamID,
		assignedName, assignedEmail, assignedAvatar, req.AssignedToUserID,
		req.RequestType.String(), constants.StageNew.String(), req.Priority.String(),
		req.ScheduledDate, req.CreatedBy,
	).Scan(&newID)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return r.FindRequest(ctx, newID)
}

func (r *RequestRepository) Assign(ctx context.Context, id uint64, assignee entities.Assignment, userID uint64) error {
	result, err := r.storage.Exec(ctx, `
		UPDATE maintenance_requests
		SET assigned_to_name = $2, assigned_to_email = $3, assigned_to_avatar = $4,
		    assigned_to_user_id = $5, updated_at = NOW()
		WHERE id = $1 AND stage NOT IN ($6, $7)`,
		id, assignee.Name, assignee.Email, assignee.AvatarURL, userID,
		constants.StageRepaired.String(), constants.StageScrap.String(),
	)
	if err != nil {
		return fmt.Errorf("ошибка назначения исполнителя: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewBadRequestError("Заявка закрыта, назначить исполнителя нельзя")
	}
	return nil
}

// AssignAndStart — самоназначение техника: назначение и запуск одним
// условным UPDATE. Второй одновременный запуск по той же бригаде упрется
// в частичный уникальный индекс и получит ErrTeamBusy.
func (r *RequestRepository) AssignAndStart(ctx context.Context, id uint64, assignee entities.Assignment, userID uint64) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var equipmentID uint64
		err := tx.QueryRow(ctx, `
			UPDATE maintenance_requests
			SET assigned_to_name = $2, assigned_to_email = $3, assigned_to_avatar = $4,
			    assigned_to_user_id = $5,
			    stage = $6, status = $6, started_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND stage = $7
			RETURNING equipment_id`,
			id, assignee.Name, assignee.Email, assignee.AvatarURL, userID,
			constants.StageInProgress.String(), constants.StageNew.String(),
		).Scan(&equipmentID)
		if err != nil {
			return classifyStartError(err)
		}
		return markEquipmentUnderMaintenance(ctx, tx, equipmentID)
	})
}

func (r *RequestRepository) Start(ctx context.Context, id uint64) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var equipmentID uint64
		err := tx.QueryRow(ctx, `
			UPDATE maintenance_requests
			SET stage = $2, status = $2, started_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND stage = $3
			RETURNING equipment_id`,
			id, constants.StageInProgress.String(), constants.StageNew.String(),
		).Scan(&equipmentID)
		if err != nil {
			return classifyStartError(err)
		}
		return markEquipmentUnderMaintenance(ctx, tx, equipmentID)
	})
}

func classifyStartError(err error) error {
	if isUniqueViolation(err, "uniq_team_in_progress") {
		return apperrors.ErrTeamBusy
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewBadRequestError("Запустить в работу можно только заявку в стадии 'New'")
	}
	return fmt.Errorf("ошибка запуска заявки в работу: %w", err)
}

func markEquipmentUnderMaintenance(ctx context.Context, q querier, equipmentID uint64) error {
	_, err := q.Exec(ctx, `
		UPDATE equipments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		equipmentID,
		constants.EquipmentUnderMaintenance.String(),
		constants.EquipmentActive.String(),
	)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса оборудования: %w", err)
	}
	return nil
}

func (r *RequestRepository) Complete(ctx context.Context, id uint64, hours float64) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var equipmentID uint64
		err := tx.QueryRow(ctx, `
			UPDATE maintenance_requests
			SET stage = $2, status = $2, completed_at = NOW(), hours_spent = $3, updated_at = NOW()
			WHERE id = $1 AND stage = $4
			RETURNING equipment_id`,
			id, constants.StageRepaired.String(), hours, constants.StageInProgress.String(),
		).Scan(&equipmentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewBadRequestError("Завершить можно только заявку в стадии 'In Progress'")
		}
		if err != nil {
			return fmt.Errorf("ошибка завершения заявки: %w", err)
		}

		// Возвращаем оборудование в строй, если его забирали в ремонт
		_, err = tx.Exec(ctx, `
			UPDATE equipments SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3`,
			equipmentID,
			constants.EquipmentActive.String(),
			constants.EquipmentUnderMaintenance.String(),
		)
		if err != nil {
			return fmt.Errorf("ошибка смены статуса оборудования: %w", err)
		}
		return nil
	})
}

// Scrap — списание: заявка и оборудование меняются в одной транзакции,
// частичных состояний не бывает.
func (r *RequestRepository) Scrap(ctx context.Context, id uint64, hours float64) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var equipmentID uint64
		err := tx.QueryRow(ctx, `
			UPDATE maintenance_requests
			SET stage = $2, status = $2, completed_at = NOW(), hours_spent = $3, updated_at = NOW()
			WHERE id = $1 AND stage <> $2
			RETURNING equipment_id`,
			id, constants.StageScrap.String(), hours,
		).Scan(&equipmentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewBadRequestError("Заявка уже списана")
		}
		if err != nil {
			return fmt.Errorf("ошибка списания заявки: %w", err)
		}
		return scrapEquipment(ctx, tx, equipmentID, id)
	})
}

func scrapEquipment(ctx context.Context, q querier, equipmentID, requestID uint64) error {
	note := fmt.Sprintf("[%s] Оборудование списано по заявке #%d",
		time.Now().Format("2006-01-02 15:04:05"), requestID)
	_, err := q.Exec(ctx, `
		UPDATE equipments
		SET status = $2, is_scrapped = TRUE,
		    notes = CASE WHEN notes = '' THEN $3 ELSE notes || E'\n' || $3 END,
		    updated_at = NOW()
		WHERE id = $1`,
		equipmentID, constants.EquipmentScrapped.String(), note,
	)
	if err != nil {
		return fmt.Errorf("ошибка списания оборудования: %w", err)
	}
	return nil
}

// UpdateRequest — произвольное обновление (PUT). Текущая строка берется
// FOR UPDATE, целевая стадия вычисляется из пары stage/status, зеркало
// поддерживается всегда.
func (r *RequestRepository) UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) error {
	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var currentStage string
		var equipmentID uint64
		var completedAt *string
		err := tx.QueryRow(ctx,
			`SELECT stage, equipment_id, completed_at::text FROM maintenance_requests WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&currentStage, &equipmentID, &completedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("не удалось найти заявку для обновления: %w", err)
		}

		builder := sq.Update("maintenance_requests").
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": id}).
			PlaceholderFormat(sq.Dollar)

		if payload.Subject != nil {
			builder = builder.Set("subject", *payload.Subject)
		}
		if payload.Description != nil {
			builder = builder.Set("description", *payload.Description)
		}
		if payload.TeamID != nil {
			builder = builder.Set("team_id", *payload.TeamID)
		}
		if payload.AssignedTo != nil {
			builder = builder.
				Set("assigned_to_name", payload.AssignedTo.Name).
				Set("assigned_to_email", payload.AssignedTo.Email).
				Set("assigned_to_avatar", payload.AssignedTo.AvatarURL)
			// Новый снапшот без id исполнителя сбрасывает жесткую связь,
			// иначе права останутся у прежнего исполнителя
			if payload.AssignedToUserID == nil {
				builder = builder.Set("assigned_to_user_id", nil)
			}
		}
		if payload.AssignedToUserID != nil {
			builder = builder.Set("assigned_to_user_id", *payload.AssignedToUserID)
		}
		if payload.RequestType != nil {
			builder = builder.Set("request_type", *payload.RequestType)
		}
		if payload.Priority != nil {
			builder = builder.Set("priority", *payload.Priority)
		}
		if payload.ScheduledDate != nil {
			builder = builder.Set("scheduled_date", *payload.ScheduledDate)
		}
		if payload.HoursSpent != nil {
			builder = builder.Set("hours_spent", *payload.HoursSpent)
		}
		if payload.CompletedAt != nil {
			builder = builder.Set("completed_at", *payload.CompletedAt)
		}

		// stage/status зеркалируются: пришедшее одно из двух задает оба
		targetStage, hasTarget := resolveTargetStage(payload)
		if hasTarget {
			builder = builder.Set("stage", targetStage.String()).Set("status", targetStage.String())
			switch targetStage {
			case constants.StageInProgress:
				builder = builder.Set("started_at", sq.Expr("COALESCE(started_at, NOW())"))
			case constants.StageRepaired:
				if payload.CompletedAt == nil && completedAt == nil {
					builder = builder.Set("completed_at", sq.Expr("NOW()"))
				}
			case constants.StageScrap:
				if payload.CompletedAt == nil && completedAt == nil {
					builder = builder.Set("completed_at", sq.Expr("NOW()"))
				}
			}
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if isUniqueViolation(err, "uniq_team_in_progress") {
				return apperrors.ErrTeamBusy
			}
			return fmt.Errorf("ошибка обновления заявки: %w", err)
		}

		if hasTarget && targetStage == constants.StageScrap && constants.Stage(currentStage) != constants.StageScrap {
			return scrapEquipment(ctx, tx, equipmentID, id)
		}
		return nil
	})
}

func resolveTargetStage(payload dto.UpdateRequestDTO) (constants.Stage, bool) {
	if payload.Stage != nil {
		if stage, ok := constants.ParseStage(*payload.Stage); ok {
			return stage, true
		}
	}
	if payload.Status != nil {
		if stage, ok := constants.ParseStage(*payload.Status); ok {
			return stage, true
		}
	}
	return "", false
}

func (r *RequestRepository) DeleteRequest(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления заявки: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
