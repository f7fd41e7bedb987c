package constants

import "strings"

// Stage — единственный источник правды о состоянии заявки.
// Устаревшее поле status всегда зеркалирует stage текстом.
type Stage string

const (
	StageNew        Stage = "New"
	StageInProgress Stage = "In Progress"
	StageRepaired   Stage = "Repaired"
	StageScrap      Stage = "Scrap"
)

// Финальные стадии
var finalStages = map[Stage]bool{
	StageRepaired: true,
	StageScrap:    true,
}

func (s Stage) IsFinal() bool {
	return finalStages[s]
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage принимает стадию с фронта без учета регистра.
func ParseStage(raw string) (Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "new":
		return StageNew, true
	case "in progress", "in_progress":
		return StageInProgress, true
	case "repaired":
		return StageRepaired, true
	case "scrap", "scrapped":
		return StageScrap, true
	}
	return "", false
}

// CanTransition — таблица переходов. Назад через API вернуться нельзя.
func CanTransition(from, to Stage) bool {
	switch from {
	case StageNew:
		return to == StageInProgress || to == StageScrap
	case StageInProgress:
		return to == StageRepaired || to == StageScrap
	}
	return false
}

// --- ТИПЫ ЗАЯВОК ---

type RequestType string

const (
	RequestTypeCorrective RequestType = "Corrective"
	RequestTypePreventive RequestType = "Preventive"
)

func (t RequestType) String() string {
	return string(t)
}

func ParseRequestType(raw string) (RequestType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "corrective":
		return RequestTypeCorrective, true
	case "preventive":
		return RequestTypePreventive, true
	}
	return "", false
}

// --- ПРИОРИТЕТЫ ---

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func (p Priority) String() string {
	return string(p)
}

func ParsePriority(raw string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	case "critical":
		return PriorityCritical, true
	}
	return "", false
}
