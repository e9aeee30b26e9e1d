package domain

import "time"

// Activity представляет один отчет трекера активности сотрудника
type Activity struct {
	ID                int64     `json:"id"`
	TeamID            string    `json:"team_id"`
	UserID            string    `json:"user_id"`
	ActiveApp         string    `json:"active_app"`
	WindowTitle       string    `json:"window_title"`
	IdleSeconds       float64   `json:"idle_seconds"`
	ProductiveHours   float64   `json:"productive_hours"`
	UnproductiveHours float64   `json:"unproductive_hours"`
	GoalsCompleted    int       `json:"goals_completed"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// MemberActivityTotals содержит суммарную активность одного участника
type MemberActivityTotals struct {
	UserID            string  `json:"user_id"`
	UserName          string  `json:"user_name"`
	Role              Role    `json:"role"`
	Samples           int     `json:"samples"`
	ProductiveHours   float64 `json:"productive_hours"`
	UnproductiveHours float64 `json:"unproductive_hours"`
	GoalsCompleted    int     `json:"goals_completed"`
}

// ProductivityScore возвращает долю продуктивного времени в процентах (0-100)
func (t MemberActivityTotals) ProductivityScore() float64 {
	total := t.ProductiveHours + t.UnproductiveHours
	if total <= 0 {
		return 0
	}
	return t.ProductiveHours / total * 100
}
