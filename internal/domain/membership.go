package domain

import "time"

// Role представляет роль пользователя в команде
type Role string

// Возможные роли участника команды
const (
	RoleEmployee Role = "employee" // Присоединился по коду сотрудника
	RoleManager  Role = "manager"  // Получил роль по коду приглашения менеджера
)

// IsValid проверяет, что роль входит в допустимый набор
func (r Role) IsValid() bool {
	return r == RoleEmployee || r == RoleManager
}

// Membership представляет участие пользователя в команде.
// На пару (TeamID, UserID) приходится не более одной записи.
type Membership struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsManager возвращает true если участник является менеджером
func (m *Membership) IsManager() bool {
	return m.Role == RoleManager
}
