package domain

import "time"

// ManagerInvite представляет одноразовый код для получения роли менеджера
type ManagerInvite struct {
	ID         string     `json:"id"`
	TeamID     string     `json:"team_id"`
	InviteCode string     `json:"invite_code"` // 12 символов, регистр важен
	IsUsed     bool       `json:"is_used"`
	UsedBy     *string    `json:"used_by,omitempty"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsExpired возвращает true если срок действия приглашения истек к моменту now
func (i *ManagerInvite) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Validate проверяет, можно ли использовать приглашение в момент now.
// Использованное приглашение проверяется раньше истекшего.
func (i *ManagerInvite) Validate(now time.Time) error {
	if i.IsUsed {
		return ErrInviteAlreadyUsed
	}
	if i.IsExpired(now) {
		return ErrInviteExpired
	}
	return nil
}
