package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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

const equipmentFields = `e.id, e.name, e.serial_number, e.category, e.custom_category, e.department,
	e.assigned_employee, e.team_id, e.default_technician_name, e.default_technician_email,
	e.purchase_date, e.warranty_end, e.location, e.status, e.is_scrapped, e.notes,
	e.created_at, e.updated_at,
	t.id, t.name, t.specialization, t.description, t.created_at, t.updated_at`

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, search string) ([]entities.Equipment, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	CountOpenRequests(ctx context.Context, id uint64) (uint64, error)
	// AppendNote дописывает строку в журнал заметок, ничего не перетирая.
	AppendNote(ctx context.Context, id uint64, note string) error
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var t entities.Team
	var status string
	err := row.Scan(
		&e.ID, &e.Name, &e.SerialNumber, &e.Category, &e.CustomCategory, &e.Department,
		&e.AssignedEmployee, &e.TeamID, &e.DefaultTechnicianName, &e.DefaultTechnicianEmail,
		&e.PurchaseDate, &e.WarrantyEnd, &e.Location, &status, &e.IsScrapped, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt,
		&t.ID, &t.Name, &t.Specialization, &t.Description, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования оборудования: %w", err)
	}
	e.Status = constants.EquipmentStatus(status)
	e.Team = &t
	return &e, nil
}

func (r *EquipmentRepository) GetEquipments(ctx context.Context, search string) ([]entities.Equipment, error) {
	builder := sq.Select(equipmentFields).
		From("equipments e").
		Join("teams t ON t.id = e.team_id").
		OrderBy("e.created_at DESC").
		PlaceholderFormat(sq.Dollar)
	if search != "" {
		builder = builder.Where(sq.Or{
			sq.ILike{"e.name": "%" + search + "%"},
			sq.ILike{"e.serial_number": "%" + search + "%"},
		})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка оборудования: %w", err)
	}
	defer rows.Close()

	equipments := make([]entities.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		equipments = append(equipments, *e)
	}
	return equipments, rows.Err()
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipments e JOIN teams t ON t.id = e.team_id WHERE e.id = $1`, equipmentFields)
	return scanEquipment(r.storage.QueryRow(ctx, query, id))
}

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	var newID uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO equipments (name, serial_number, category, custom_category, department, assigned_employee,
			team_id, default_technician_name, default_technician_email, purchase_date, warranty_end, location, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		payload.Name, payload.SerialNumber, payload.Category, payload.CustomCategory,
		payload.Department, payload.AssignedEmployee, payload.TeamID,
		payload.DefaultTechnicianName, payload.DefaultTechnicianEmail,
		payload.PurchaseDate, payload.WarrantyEnd, payload.Location, payload.Notes,
	).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, "equipments_serial_number_key") {
			return nil, apperrors.NewHttpError(http.StatusConflict, "Оборудование с таким серийным номером уже существует", err, nil)
		}
		return nil, fmt.Errorf("ошибка создания оборудования: %w", err)
	}
	return r.FindEquipment(ctx, newID)
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	builder := sq.Update("equipments").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)

	if payload.Name != nil {
		builder = builder.Set("name", *payload.Name)
	}
	if payload.SerialNumber != nil {
		builder = builder.Set("serial_number", *payload.SerialNumber)
	}
	if payload.Category != nil {
		builder = builder.Set("category", *payload.Category)
	}
	if payload.CustomCategory != nil {
		builder = builder.Set("custom_category", *payload.CustomCategory)
	}
	if payload.Department != nil {
		builder = builder.Set("department", *payload.Department)
	}
	if payload.AssignedEmployee != nil {
		builder = builder.Set("assigned_employee", *payload.AssignedEmployee)
	}
	if payload.TeamID != nil {
		builder = builder.Set("team_id", *payload.TeamID)
	}
	if payload.DefaultTechnicianName != nil {
		builder = builder.Set("default_technician_name", *payload.DefaultTechnicianName)
	}
	if payload.DefaultTechnicianEmail != nil {
		builder = builder.Set("default_technician_email", *payload.DefaultTechnicianEmail)
	}
	if payload.PurchaseDate != nil {
		builder = builder.Set("purchase_date", *payload.PurchaseDate)
	}
	if payload.WarrantyEnd != nil {
		builder = builder.Set("warranty_end", *payload.WarrantyEnd)
	}
	if payload.Location != nil {
		builder = builder.Set("location", *payload.Location)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "equipments_serial_number_key") {
			return nil, apperrors.NewHttpError(http.StatusConflict, "Оборудование с таким серийным номером уже существует", err, nil)
		}
		return nil, fmt.Errorf("ошибка обновления оборудования: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.FindEquipment(ctx, id)
}

func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM equipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления оборудования: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) CountOpenRequests(ctx context.Context, id uint64) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx, `
		SELECT COUNT(*) FROM maintenance_requests
		WHERE equipment_id = $1 AND stage IN ($2, $3)`,
		id, constants.StageNew.String(), constants.StageInProgress.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета открытых заявок: %w", err)
	}
	return count, nil
}

func (r *EquipmentRepository) AppendNote(ctx context.Context, id uint64, note string) error {
	stamped := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), note)
	result, err := r.storage.Exec(ctx, `
		UPDATE equipments
		SET notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END,
		    updated_at = NOW()
		WHERE id = $1`, id, stamped)
	if err != nil {
		return fmt.Errorf("ошибка добавления заметки: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
