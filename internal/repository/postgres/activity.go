package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/teamflow/internal/domain"
)

// ActivityRepository реализует repository.ActivityRepository для PostgreSQL
type ActivityRepository struct {
	db *pgxpool.Pool
}

// NewActivityRepository создает новый экземпляр ActivityRepository
func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create сохраняет отчет активности
func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `
		INSERT INTO activities (
			team_id, user_id, active_app, window_title, idle_seconds,
			productive_hours, unproductive_hours, goals_completed, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := conn(ctx, r.db).QueryRow(ctx, query,
		a.TeamID,
		a.UserID,
		a.ActiveApp,
		a.WindowTitle,
		a.IdleSeconds,
		a.ProductiveHours,
		a.UnproductiveHours,
		a.GoalsCompleted,
		a.RecordedAt,
	).Scan(&a.ID)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return domain.ErrMembershipNotFound
		}
		return err
	}

	return nil
}

// TotalsByTeam aggregates activity per member; members without samples get zero totals
func (r *ActivityRepository) TotalsByTeam(ctx context.Context, teamID string) ([]*domain.MemberActivityTotals, error) {
	query := `
		SELECT
			m.user_id,
			m.user_name,
			m.role,
			COUNT(a.id) AS samples,
			COALESCE(SUM(a.productive_hours), 0) AS productive_hours,
			COALESCE(SUM(a.unproductive_hours), 0) AS unproductive_hours,
			COALESCE(SUM(a.goals_completed), 0) AS goals_completed
		FROM memberships m
		LEFT JOIN activities a ON a.team_id = m.team_id AND a.user_id = m.user_id
		WHERE m.team_id = $1
		GROUP BY m.user_id, m.user_name, m.role
		ORDER BY m.user_name
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []*domain.MemberActivityTotals{}
	for rows.Next() {
		var t domain.MemberActivityTotals
		if err := rows.Scan(
			&t.UserID,
			&t.UserName,
			&t.Role,
			&t.Samples,
			&t.ProductiveHours,
			&t.UnproductiveHours,
			&t.GoalsCompleted,
		); err != nil {
			return nil, err
		}
		totals = append(totals, &t)
	}

	return totals, rows.Err()
}
