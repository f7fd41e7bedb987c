package authz

import (
	"strings"

	"gearguard/internal/entities"
)

// Gatekeeper — чистые проверки прав над уже загруженными сущностями.
// Никаких походов в БД отсюда: ростер бригады передается снаружи.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// IsMember — проверка по ростеру бригады, email сравниваем без учета регистра.
func (g *Gatekeeper) IsMember(roster []entities.TeamMember, email string) bool {
	for _, m := range roster {
		if strings.EqualFold(m.Email, email) {
			return true
		}
	}
	return false
}

// TeamEligible: техник "в бригаде", если совпал его teamId ИЛИ его email
// есть в ростере. Второй путь нужен техникам, состоящим в нескольких или
// старых бригадах без денормализованного teamId.
func (g *Gatekeeper) TeamEligible(actor *entities.User, teamID uint64, roster []entities.TeamMember) bool {
	if actor.TeamID != nil && *actor.TeamID == teamID {
		return true
	}
	return g.IsMember(roster, actor.Email)
}

// IsAssignee: сперва по жесткой ссылке assignedToUserId, иначе по email снимка.
func (g *Gatekeeper) IsAssignee(actor *entities.User, req *entities.MaintenanceRequest) bool {
	if req.AssignedToUserID != nil {
		return *req.AssignedToUserID == actor.ID
	}
	if req.AssignedTo != nil {
		return strings.EqualFold(req.AssignedTo.Email, actor.Email)
	}
	return false
}

// CanActOnRequest — единый предикат для всех переходов жизненного цикла:
// менеджер может всегда, техник — только если он назначен И состоит в
// бригаде заявки.
func (g *Gatekeeper) CanActOnRequest(actor *entities.User, req *entities.MaintenanceRequest, roster []entities.TeamMember) bool {
	if actor.IsManager() {
		return true
	}
	if !actor.IsTechnician() {
		return false
	}
	return g.IsAssignee(actor, req) && g.TeamEligible(actor, req.TeamID, roster)
}

// CanSelfAssign: менеджер может переназначать, техник — брать только
// свободную заявку и только в своей бригаде.
func (g *Gatekeeper) CanSelfAssign(actor *entities.User, req *entities.MaintenanceRequest, roster []entities.TeamMember) bool {
	if actor.IsManager() {
		return true
	}
	if !actor.IsTechnician() {
		return false
	}
	alreadyAssigned := req.AssignedTo != nil || req.AssignedToUserID != nil
	if alreadyAssigned && !g.IsAssignee(actor, req) {
		return false
	}
	return g.TeamEligible(actor, req.TeamID, roster)
}
