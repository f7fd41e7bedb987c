package constants

import "strings"

type Role string

const (
	RoleUser       Role = "User"
	RoleManager    Role = "Manager"
	RoleTechnician Role = "Technician"
)

func (r Role) String() string {
	return string(r)
}

// ParseRole нормализует роль с фронта. Старый бэкенд присылал "Employee"
// вместо "User" — принимаем оба написания.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "employee":
		return RoleUser, true
	case "manager":
		return RoleManager, true
	case "technician":
		return RoleTechnician, true
	}
	return "", false
}

// --- СТАТУСЫ ОБОРУДОВАНИЯ ---

type EquipmentStatus string

const (
	EquipmentActive           EquipmentStatus = "Active"
	EquipmentUnderMaintenance EquipmentStatus = "Under Maintenance"
	EquipmentScrapped         EquipmentStatus = "Scrapped"
)

func (s EquipmentStatus) String() string {
	return string(s)
}

// --- КАТЕГОРИИ ОБОРУДОВАНИЯ ---

var EquipmentCategories = []string{
	"Machinery",
	"Electronics",
	"Vehicles",
	"Tools",
	"HVAC",
	"Other",
}

func IsKnownEquipmentCategory(category string) bool {
	for _, c := range EquipmentCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}
