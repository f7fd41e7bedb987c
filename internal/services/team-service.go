package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"

	"go.uber.org/zap"
)

const teamRosterKeyPrefix = "team:roster:"

type TeamServiceInterface interface {
	GetTeams(ctx context.Context, search string) ([]entities.Team, error)
	FindTeam(ctx context.Context, id uint64) (*entities.Team, error)
	GetRoster(ctx context.Context, teamID uint64) ([]entities.TeamMember, error)
	GetTeamIDsByMemberEmail(ctx context.Context, email string) ([]uint64, error)
	CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (*entities.Team, error)
	UpdateTeam(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*entities.Team, error)
	DeleteTeam(ctx context.Context, id uint64) error
}

type TeamService struct {
	teamRepo  repositories.TeamRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	rosterTTL time.Duration
	logger    *zap.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	rosterTTL time.Duration,
	logger *zap.Logger,
) TeamServiceInterface {
	return &TeamService{teamRepo: teamRepo, cacheRepo: cacheRepo, rosterTTL: rosterTTL, logger: logger}
}

func (s *TeamService) GetTeams(ctx context.Context, search string) ([]entities.Team, error) {
	return s.teamRepo.GetTeams(ctx, search)
}

func (s *TeamService) FindTeam(ctx context.Context, id uint64) (*entities.Team, error) {
	return s.teamRepo.FindTeam(ctx, id)
}

// GetRoster — ростер бригады через кэш: проверки принадлежности дергаются
// на каждом переходе заявки, БД на каждый чих не ходим.
func (s *TeamService) GetRoster(ctx context.Context, teamID uint64) ([]entities.TeamMember, error) {
	key := rosterKey(teamID)
	if cached, err := s.cacheRepo.Get(ctx, key); err == nil && cached != "" {
		var roster []entities.TeamMember
		if err := json.Unmarshal([]byte(cached), &roster); err == nil {
			return roster, nil
		}
		// Битый кэш просто перечитываем из БД
		_ = s.cacheRepo.Delete(ctx, key)
	}

	roster, err := s.teamRepo.GetRoster(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(roster); err == nil {
		if err := s.cacheRepo.Set(ctx, key, string(raw), s.rosterTTL); err != nil {
			s.logger.Warn("не удалось закэшировать ростер бригады",
				zap.Uint64("team_id", teamID), zap.Error(err))
		}
	}
	return roster, nil
}

func (s *TeamService) GetTeamIDsByMemberEmail(ctx context.Context, email string) ([]uint64, error) {
	return s.teamRepo.GetTeamIDsByMemberEmail(ctx, email)
}

func (s *TeamService) CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (*entities.Team, error) {
	return s.teamRepo.CreateTeam(ctx, payload)
}

func (s *TeamService) UpdateTeam(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*entities.Team, error) {
	team, err := s.teamRepo.UpdateTeam(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.invalidateRoster(ctx, id)
	return team, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, id uint64) error {
	if err := s.teamRepo.DeleteTeam(ctx, id); err != nil {
		return err
	}
	s.invalidateRoster(ctx, id)
	return nil
}

func (s *TeamService) invalidateRoster(ctx context.Context, teamID uint64) {
	if err := s.cacheRepo.Delete(ctx, rosterKey(teamID)); err != nil {
		s.logger.Warn("не удалось сбросить кэш ростера", zap.Uint64("team_id", teamID), zap.Error(err))
	}
}

func rosterKey(teamID uint64) string {
	return fmt.Sprintf("%s%d", teamRosterKeyPrefix, teamID)
}
