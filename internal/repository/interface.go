package repository

import (
	"context"
	"time"

	"github.com/aidar/teamflow/internal/domain"
)

// Transactor выполняет функцию в рамках одной транзакции.
// Репозитории, вызванные с переданным контекстом, работают внутри этой транзакции;
// ошибка из fn откатывает все изменения.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TeamRepository определяет методы для работы с данными команд
type TeamRepository interface {
	// Create создает команду; занятый employee_code возвращает domain.ErrCodeConflict
	Create(ctx context.Context, team *domain.Team) error

	// GetByID получает команду по ID
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)

	// GetByEmployeeCode получает команду по коду сотрудника
	GetByEmployeeCode(ctx context.Context, code string) (*domain.Team, error)

	// EmployeeCodeExists проверяет, занят ли код сотрудника
	EmployeeCodeExists(ctx context.Context, code string) (bool, error)

	// ListByUser возвращает команды, в которых состоит пользователь, вместе с его ролью
	ListByUser(ctx context.Context, userID string) ([]*domain.TeamWithRole, error)

	// Count возвращает общее число команд
	Count(ctx context.Context) (int, error)
}

// InviteRepository определяет методы для работы с приглашениями менеджеров
type InviteRepository interface {
	// Create создает приглашение; занятый invite_code возвращает domain.ErrCodeConflict
	Create(ctx context.Context, invite *domain.ManagerInvite) error

	// GetByCodeForUpdate получает приглашение по коду и блокирует строку до конца транзакции
	GetByCodeForUpdate(ctx context.Context, code string) (*domain.ManagerInvite, error)

	// CodeExists проверяет, занят ли код приглашения
	CodeExists(ctx context.Context, code string) (bool, error)

	// MarkUsed помечает неиспользованное приглашение использованным;
	// если приглашение уже использовано, возвращает domain.ErrInviteAlreadyUsed
	MarkUsed(ctx context.Context, inviteID, userID string, usedAt time.Time) error
}

// MembershipRepository определяет методы для работы с участием в командах
type MembershipRepository interface {
	// Get получает участие по паре команда/пользователь
	Get(ctx context.Context, teamID, userID string) (*domain.Membership, error)


	// InsertIfAbsent вставляет участие; если пара команда/пользователь уже есть,
	// возвращает inserted=false и ничего не меняет
	InsertIfAbsent(ctx context.Context, m *domain.Membership) (inserted bool, err error)

	// UpsertManager создает участие с ролью менеджера или повышает существующее.
	// previous содержит роль до изменения (пустая строка если участия не было)
	UpsertManager(ctx context.Context, m *domain.Membership) (previous domain.Role, err error)

	// ListByTeam возвращает всех участников команды
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Membership, error)

	// CountByRole возвращает число участий по ролям во всех командах
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

// SubscriptionRepository определяет методы для работы с подписками команд
type SubscriptionRepository interface {
	// Create создает подписку для новой команды
	Create(ctx context.Context, sub *domain.Subscription) error

	// GetByTeam получает подписку команды
	GetByTeam(ctx context.Context, teamID string) (*domain.Subscription, error)

	// AdjustEmployeeCount изменяет число сотрудников на delta
	AdjustEmployeeCount(ctx context.Context, teamID string, delta int) error
}

// ActivityRepository определяет методы для работы с отчетами активности
type ActivityRepository interface {
	// Create сохраняет отчет активности
	Create(ctx context.Context, a *domain.Activity) error

	// TotalsByTeam возвращает суммарную активность по каждому участнику команды
	TotalsByTeam(ctx context.Context, teamID string) ([]*domain.MemberActivityTotals, error)
}
