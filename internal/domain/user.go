package domain

import "time"

// Роли пользователей
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User представляет пользователя системы
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	TeamID       *string   `json:"team_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity представляет подписанное удостоверение пользователя из JWT.
// Прикрепляется к каждому авторизованному запросу.
type Identity struct {
	UserID string
	TeamID *string
	Roles  []string
}
