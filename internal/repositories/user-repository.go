package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userFields = "id, name, email, password, role, team_id, department, job_title, skills, avatar_url, is_active, created_at, updated_at"

type UserRepositoryInterface interface {
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUser(ctx context.Context, user *entities.User) (*entities.User, error)
	GetTechnicians(ctx context.Context) ([]entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	var role string
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &role, &u.TeamID,
		&u.Department, &u.JobTitle, &u.Skills, &u.AvatarURL, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
	}
	parsed, ok := constants.ParseRole(role)
	if !ok {
		parsed = constants.RoleUser
	}
	u.Role = parsed
	return &u, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1)`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, email))
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		INSERT INTO users (name, email, password, role, team_id, department, job_title, skills, avatar_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING ` + userFields

	created, err := scanUser(r.storage.QueryRow(ctx, query,
		user.Name, user.Email, user.Password, user.Role.String(), user.TeamID,
		user.Department, user.JobTitle, user.Skills, user.AvatarURL,
	))
	if err != nil {
		if isUniqueViolation(err, "uniq_users_email") {
			return nil, apperrors.NewHttpError(http.StatusConflict, "Пользователь с таким email уже существует", err, nil)
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) GetTechnicians(ctx context.Context) ([]entities.User, error) {
	query, args, err := sq.Select(userFields).
		From("users").
		Where(sq.Eq{"role": constants.RoleTechnician.String(), "is_active": true}).
		OrderBy("name ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка техников: %w", err)
	}
	defer rows.Close()

	technicians := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		technicians = append(technicians, *u)
	}
	return technicians, rows.Err()
}
