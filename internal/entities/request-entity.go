package entities

import (
	"time"

	"gearguard/pkg/constants"
)

// Assignment — снимок исполнителя на момент назначения. Живую проверку
// прав делаем по AssignedToUserID, снимок храним для истории.
type Assignment struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

type MaintenanceRequest struct {
	ID          uint64 `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`

	EquipmentID uint64 `json:"equipmentId"`
	// Категория копируется с оборудования при создании и больше не синхронизируется.
	EquipmentCategory string `json:"equipmentCategory"`

	TeamID uint64 `json:"maintenanceTeamId"`

	AssignedTo       *Assignment `json:"assignedTo,omitempty"`
	AssignedToUserID *uint64     `json:"assignedToUserId,omitempty"`

	RequestType constants.RequestType `json:"requestType"`

	Stage constants.Stage `json:"stage"`
	// Устаревшее поле, зеркалирует Stage. Пишется вместе со stage одним запросом.
	Status string `json:"status"`

	Priority constants.Priority `json:"priority"`

	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`

	HoursSpent *float64 `json:"hoursSpent,omitempty"`

	// Текстовый снимок автора, не ссылка.
	CreatedBy string `json:"createdBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Развернутые связи (не колонки в таблице)
	Equipment *Equipment `json:"equipment,omitempty" db:"-"`
	Team      *Team      `json:"maintenanceTeam,omitempty" db:"-"`
}

func (r *MaintenanceRequest) IsOpen() bool {
	return !r.Stage.IsFinal()
}
