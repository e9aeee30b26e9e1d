package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/teamflow/internal/domain"
)

// SubscriptionRepository реализует repository.SubscriptionRepository для PostgreSQL
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository создает новый экземпляр SubscriptionRepository
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create создает подписку для новой команды
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (team_id, plan, status, employee_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query, sub.TeamID, sub.Plan, sub.Status, sub.EmployeeCount, sub.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return domain.ErrTeamNotFound
		}
		return err
	}

	sub.UpdatedAt = sub.CreatedAt
	return nil
}

// GetByTeam получает подписку команды
func (r *SubscriptionRepository) GetByTeam(ctx context.Context, teamID string) (*domain.Subscription, error) {
	query := `
		SELECT team_id, plan, status, employee_count, created_at, updated_at
		FROM subscriptions
		WHERE team_id = $1
	`

	var sub domain.Subscription
	err := conn(ctx, r.db).QueryRow(ctx, query, teamID).Scan(
		&sub.TeamID,
		&sub.Plan,
		&sub.Status,
		&sub.EmployeeCount,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &sub, nil
}

// AdjustEmployeeCount changes the billable employee count by delta, never below zero
func (r *SubscriptionRepository) AdjustEmployeeCount(ctx context.Context, teamID string, delta int) error {
	query := `
		UPDATE subscriptions
		SET employee_count = GREATEST(employee_count + $2, 0), updated_at = NOW()
		WHERE team_id = $1
	`

	result, err := conn(ctx, r.db).Exec(ctx, query, teamID, delta)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
