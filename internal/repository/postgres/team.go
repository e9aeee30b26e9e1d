package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/teamflow/internal/domain"
)

// TeamRepository реализует repository.TeamRepository для PostgreSQL
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a new team. The employee_code unique constraint is the
// authoritative collision check.
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (id, name, employee_code, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query, team.ID, team.Name, team.EmployeeCode, team.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return domain.ErrCodeConflict
		}
		return err
	}

	return nil
}

// GetByID получает команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	query := `
		SELECT id, name, employee_code, created_at
		FROM teams
		WHERE id = $1
	`

	return r.scanOne(conn(ctx, r.db).QueryRow(ctx, query, teamID))
}

// GetByEmployeeCode получает команду по коду сотрудника
func (r *TeamRepository) GetByEmployeeCode(ctx context.Context, code string) (*domain.Team, error) {
	query := `
		SELECT id, name, employee_code, created_at
		FROM teams
		WHERE employee_code = $1
	`

	return r.scanOne(conn(ctx, r.db).QueryRow(ctx, query, code))
}

func (r *TeamRepository) scanOne(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	err := row.Scan(&team.ID, &team.Name, &team.EmployeeCode, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	return &team, nil
}

// EmployeeCodeExists проверяет, занят ли код сотрудника
func (r *TeamRepository) EmployeeCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE employee_code = $1)`

	var exists bool
	if err := conn(ctx, r.db).QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// ListByUser returns every team the user belongs to along with the user's role
func (r *TeamRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TeamWithRole, error) {
	query := `
		SELECT t.id, t.name, t.employee_code, t.created_at, m.role
		FROM teams t
		INNER JOIN memberships m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []*domain.TeamWithRole{}
	for rows.Next() {
		var t domain.TeamWithRole
		if err := rows.Scan(&t.ID, &t.Name, &t.EmployeeCode, &t.CreatedAt, &t.Role); err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}

	return teams, rows.Err()
}

// Count возвращает общее число команд
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n)
	return n, err
}
