package dto

import "time"

type CreateEquipmentDTO struct {
	Name             string  `json:"name" validate:"required,min=2"`
	SerialNumber     string  `json:"serialNumber" validate:"required"`
	Category         string  `json:"category" validate:"required"`
	CustomCategory   *string `json:"customCategory"`
	Department       string  `json:"department"`
	AssignedEmployee string  `json:"assignedEmployee"`

	TeamID uint64 `json:"teamId" validate:"required"`

	DefaultTechnicianName  *string `json:"defaultTechnicianName"`
	DefaultTechnicianEmail *string `json:"defaultTechnicianEmail" validate:"required,email"`

	PurchaseDate *time.Time `json:"purchaseDate"`
	WarrantyEnd  *time.Time `json:"warrantyEnd"`
	Location     string     `json:"location"`
	Notes        string     `json:"notes"`
}

type UpdateEquipmentDTO struct {
	Name             *string `json:"name" validate:"omitempty,min=2"`
	SerialNumber     *string `json:"serialNumber"`
	Category         *string `json:"category"`
	CustomCategory   *string `json:"customCategory"`
	Department       *string `json:"department"`
	AssignedEmployee *string `json:"assignedEmployee"`

	// Указатель, чтобы отличить "не трогать" от попытки обнулить бригаду.
	TeamID *uint64 `json:"teamId"`

	DefaultTechnicianName  *string `json:"defaultTechnicianName"`
	DefaultTechnicianEmail *string `json:"defaultTechnicianEmail" validate:"omitempty,email"`

	PurchaseDate *time.Time `json:"purchaseDate"`
	WarrantyEnd  *time.Time `json:"warrantyEnd"`
	Location     *string    `json:"location"`
}

type OpenRequestCountDTO struct {
	EquipmentID uint64 `json:"equipmentId"`
	Count       uint64 `json:"count"`
}
