package domain

import "time"

// Team представляет команду, к которой присоединяются сотрудники по коду
type Team struct {
	ID           string    `json:"team_id"`
	Name         string    `json:"team_name"`
	EmployeeCode string    `json:"employee_code"` // 6 символов, уникален, не меняется после выдачи
	CreatedAt    time.Time `json:"created_at"`
}

// TeamWithRole представляет команду вместе с ролью пользователя в ней (используется в списках)
type TeamWithRole struct {
	Team
	Role Role `json:"role"`
}
