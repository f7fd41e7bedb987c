package dto

type TeamMemberDTO struct {
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
}

type CreateTeamDTO struct {
	Name           string          `json:"name" validate:"required,min=2"`
	Specialization string          `json:"specialization"`
	Description    string          `json:"description"`
	Members        []TeamMemberDTO `json:"members" validate:"dive"`
}

// Состав правится на фронте и сохраняется целиком.
type UpdateTeamDTO struct {
	Name           *string         `json:"name" validate:"omitempty,min=2"`
	Specialization *string         `json:"specialization"`
	Description    *string         `json:"description"`
	Members        []TeamMemberDTO `json:"members" validate:"omitempty,dive"`
}
