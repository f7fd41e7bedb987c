package dto

import "time"

type AssignmentDTO struct {
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	AvatarURL *string `json:"avatarUrl"`
}

type CreateRequestDTO struct {
	Subject     string `json:"subject" validate:"required,min=3"`
	Description string `json:"description"`

	EquipmentID uint64 `json:"equipmentId" validate:"required"`

	// Бригада по умолчанию берется с оборудования, но может быть переопределена.
	TeamID *uint64 `json:"maintenanceTeamId"`

	AssignedTo *AssignmentDTO `json:"assignedTo"`

	RequestType string `json:"requestType" validate:"required,request_type"`
	Priority    string `json:"priority" validate:"omitempty,priority"`

	ScheduledDate *time.Time `json:"scheduledDate" validate:"omitempty,notpastdate"`
}

type UpdateRequestDTO struct {
	Subject     *string `json:"subject" validate:"omitempty,min=3"`
	Description *string `json:"description"`

	TeamID *uint64 `json:"maintenanceTeamId"`

	AssignedTo       *AssignmentDTO `json:"assignedTo"`
	AssignedToUserID *uint64        `json:"assignedToUserId"`

	RequestType *string `json:"requestType" validate:"omitempty,request_type"`
	Priority    *string `json:"priority" validate:"omitempty,priority"`

	// Если пришло только одно из stage/status — второе зеркалируется.
	Stage  *string `json:"stage" validate:"omitempty,stage"`
	Status *string `json:"status" validate:"omitempty,stage"`

	ScheduledDate *time.Time `json:"scheduledDate" validate:"omitempty,notpastdate"`
	HoursSpent    *float64   `json:"hoursSpent" validate:"omitempty,gt=0"`
	CompletedAt   *time.Time `json:"completedAt"`
}

type ManagerAssignDTO struct {
	TechnicianID uint64 `json:"technicianId" validate:"required"`
}

// CloseRequestDTO закрывает заявку (Repaired или Scrap): часы обязательны.
type CloseRequestDTO struct {
	HoursSpent float64 `json:"hoursSpent" validate:"required,gt=0"`
}
