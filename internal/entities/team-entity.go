package entities

import "time"

// TeamMember — строка ростера. Email обязателен: по нему работает
// проверка принадлежности техника к бригаде.
type TeamMember struct {
	ID        uint64  `json:"id" db:"id"`
	TeamID    uint64  `json:"teamId" db:"team_id"`
	Name      string  `json:"name" db:"name"`
	Email     string  `json:"email" db:"email"`
	Phone     *string `json:"phone,omitempty" db:"phone"`
	AvatarURL *string `json:"avatarUrl,omitempty" db:"avatar_url"`
	Position  int     `json:"position" db:"position"`
}

type Team struct {
	ID             uint64       `json:"id"`
	Name           string       `json:"name"`
	Specialization string       `json:"specialization"`
	Description    string       `json:"description"`
	Members        []TeamMember `json:"members"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
