package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	apperrors "gearguard/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TeamRepositoryInterface interface {
	GetTeams(ctx context.Context, search string) ([]entities.Team, error)
	FindTeam(ctx context.Context, id uint64) (*entities.Team, error)
	GetRoster(ctx context.Context, teamID uint64) ([]entities.TeamMember, error)
	// GetTeamIDsByMemberEmail — все бригады, в ростерах которых есть этот email.
	GetTeamIDsByMemberEmail(ctx context.Context, email string) ([]uint64, error)
	CreateTeam(ctx context.Context, team dto.CreateTeamDTO) (*entities.Team, error)
	UpdateTeam(ctx context.Context, id uint64, team dto.UpdateTeamDTO) (*entities.Team, error)
	DeleteTeam(ctx context.Context, id uint64) error
}

type TeamRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTeamRepository(storage *pgxpool.Pool, logger *zap.Logger) TeamRepositoryInterface {
	return &TeamRepository{storage: storage, logger: logger}
}

func scanTeam(row pgx.Row) (*entities.Team, error) {
	var t entities.Team
	err := row.Scan(&t.ID, &t.Name, &t.Specialization, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования бригады: %w", err)
	}
	return &t, nil
}

func (r *TeamRepository) GetTeams(ctx context.Context, search string) ([]entities.Team, error) {
	builder := sq.Select("id", "name", "specialization", "description", "created_at", "updated_at").
		From("teams").
		OrderBy("name ASC").
		PlaceholderFormat(sq.Dollar)
	if search != "" {
		builder = builder.Where(sq.ILike{"name": "%" + search + "%"})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка бригад: %w", err)
	}
	defer rows.Close()

	teams := make([]entities.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		members, err := r.GetRoster(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Members = members
	}
	return teams, nil
}

func (r *TeamRepository) FindTeam(ctx context.Context, id uint64) (*entities.Team, error) {
	team, err := scanTeam(r.storage.QueryRow(ctx,
		`SELECT id, name, specialization, description, created_at, updated_at FROM teams WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	team.Members, err = r.GetRoster(ctx, id)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *TeamRepository) GetRoster(ctx context.Context, teamID uint64) ([]entities.TeamMember, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT id, team_id, name, email, phone, avatar_url, position
		 FROM team_members WHERE team_id = $1 ORDER BY position, id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ростера бригады: %w", err)
	}
	defer rows.Close()

	members := make([]entities.TeamMember, 0)
	for rows.Next() {
		var m entities.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Email, &m.Phone, &m.AvatarURL, &m.Position); err != nil {
			return nil, fmt.Errorf("ошибка сканирования участника бригады: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *TeamRepository) GetTeamIDsByMemberEmail(ctx context.Context, email string) ([]uint64, error) {
	rows, err := r.storage.Query(ctx,
		`SELECT DISTINCT team_id FROM team_members WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TeamRepository) CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (*entities.Team, error) {
	var newID uint64
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO teams (name, specialization, description) VALUES ($1, $2, $3) RETURNING id`,
			payload.Name, payload.Specialization, payload.Description,
		).Scan(&newID)
		if err != nil {
			if isUniqueViolation(err, "teams_name_key") {
				return apperrors.NewHttpError(http.StatusConflict, "Бригада с таким названием уже существует", err, nil)
			}
			return fmt.Errorf("ошибка создания бригады: %w", err)
		}
		return insertMembers(ctx, tx, newID, payload.Members)
	})
	if err != nil {
		return nil, err
	}
	return r.FindTeam(ctx, newID)
}

func (r *TeamRepository) UpdateTeam(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*entities.Team, error) {
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		builder := sq.Update("teams").
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": id}).
			PlaceholderFormat(sq.Dollar)
		if payload.Name != nil {
			builder = builder.Set("name", *payload.Name)
		}
		if payload.Specialization != nil {
			builder = builder.Set("specialization", *payload.Specialization)
		}
		if payload.Description != nil {
			builder = builder.Set("description", *payload.Description)
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return err
		}
		result, err := tx.Exec(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err, "teams_name_key") {
				return apperrors.NewHttpError(http.StatusConflict, "Бригада с таким названием уже существует", err, nil)
			}
			return fmt.Errorf("ошибка обновления бригады: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}

		// Состав заменяется целиком
		if payload.Members != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, id); err != nil {
				return fmt.Errorf("ошибка очистки ростера: %w", err)
			}
			if err := insertMembers(ctx, tx, id, payload.Members); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindTeam(ctx, id)
}

func insertMembers(ctx context.Context, tx pgx.Tx, teamID uint64, members []dto.TeamMemberDTO) error {
	for i, m := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO team_members (team_id, name, email, phone, avatar_url, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			teamID, m.Name, m.Email, m.Phone, m.AvatarURL, i,
		); err != nil {
			if isUniqueViolation(err, "uniq_team_members_email") {
				return apperrors.NewBadRequestError("В составе бригады повторяется email: " + m.Email)
			}
			return fmt.Errorf("ошибка добавления участника бригады: %w", err)
		}
	}
	return nil
}

func (r *TeamRepository) DeleteTeam(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления бригады: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
