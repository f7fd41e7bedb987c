package entities

import (
	"time"

	"gearguard/pkg/constants"
)

type User struct {
	ID    uint64 `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	Password string `json:"-" db:"password"`

	Role   constants.Role `json:"role" db:"role"`
	TeamID *uint64        `json:"teamId" db:"team_id"`

	Department string   `json:"department,omitempty" db:"department"`
	JobTitle   string   `json:"jobTitle,omitempty" db:"job_title"`
	Skills     []string `json:"skills,omitempty" db:"skills"`
	AvatarURL  *string  `json:"avatarUrl,omitempty" db:"avatar_url"`

	IsActive bool `json:"isActive" db:"is_active"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (u *User) IsManager() bool {
	return u.Role == constants.RoleManager
}

func (u *User) IsTechnician() bool {
	return u.Role == constants.RoleTechnician
}
