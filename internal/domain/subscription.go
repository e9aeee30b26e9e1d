package domain

import "time"

// Тарифы и статусы подписки
const (
	PlanTrial          = "trial"
	SubscriptionActive = "active"
)

// Subscription представляет подписку команды и число оплачиваемых сотрудников
type Subscription struct {
	TeamID        string    `json:"team_id"`
	Plan          string    `json:"plan"`
	Status        string    `json:"status"`
	EmployeeCount int       `json:"employee_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
