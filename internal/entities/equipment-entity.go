package entities

import (
	"time"

	"gearguard/pkg/constants"
)

type Equipment struct {
	ID               uint64  `json:"id"`
	Name             string  `json:"name"`
	SerialNumber     string  `json:"serialNumber"`
	Category         string  `json:"category"`
	CustomCategory   *string `json:"customCategory,omitempty"`
	Department       string  `json:"department,omitempty"`
	AssignedEmployee string  `json:"assignedEmployee,omitempty"`

	TeamID uint64 `json:"teamId"`

	DefaultTechnicianName  *string `json:"defaultTechnicianName,omitempty"`
	DefaultTechnicianEmail *string `json:"defaultTechnicianEmail,omitempty"`

	PurchaseDate *time.Time `json:"purchaseDate,omitempty"`
	WarrantyEnd  *time.Time `json:"warrantyEnd,omitempty"`
	Location     string     `json:"location,omitempty"`

	Status     constants.EquipmentStatus `json:"status"`
	IsScrapped bool                      `json:"isScrapped"`

	// Журнал заметок, только дописывается.
	Notes string `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Развернутая бригада (не колонка в таблице)
	Team *Team `json:"team,omitempty" db:"-"`
}
