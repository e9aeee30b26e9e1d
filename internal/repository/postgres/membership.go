package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/teamflow/internal/domain"
)

// MembershipRepository реализует repository.MembershipRepository для PostgreSQL
type MembershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository создает новый экземпляр MembershipRepository
func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipColumns = `id, team_id, user_id, user_name, role, created_at, updated_at`

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.UserName, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Get получает участие по паре команда/пользователь
func (r *MembershipRepository) Get(ctx context.Context, teamID, userID string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE team_id = $1 AND user_id = $2`

	return scanMembership(conn(ctx, r.db).QueryRow(ctx, query, teamID, userID))
}

// InsertIfAbsent inserts the membership unless the (team_id, user_id) pair
// already exists. ON CONFLICT keeps the surrounding transaction usable.
func (r *MembershipRepository) InsertIfAbsent(ctx context.Context, m *domain.Membership) (bool, error) {
	query := `
		INSERT INTO memberships (id, team_id, user_id, user_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`

	result, err := conn(ctx, r.db).Exec(ctx, query, m.ID, m.TeamID, m.UserID, m.UserName, m.Role, m.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return false, domain.ErrTeamNotFound
		}
		return false, err
	}

	if result.RowsAffected() == 0 {
		return false, nil
	}

	m.UpdatedAt = m.CreatedAt
	return true, nil
}

// UpsertManager creates a manager membership or upgrades an existing one in place
func (r *MembershipRepository) UpsertManager(ctx context.Context, m *domain.Membership) (domain.Role, error) {
	q := conn(ctx, r.db)

	var previous domain.Role
	err := q.QueryRow(ctx,
		`SELECT role FROM memberships WHERE team_id = $1 AND user_id = $2 FOR UPDATE`,
		m.TeamID, m.UserID,
	).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	query := `
		INSERT INTO memberships (id, team_id, user_id, user_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (team_id, user_id) DO UPDATE
		SET role = EXCLUDED.role,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + membershipColumns

	upserted, err := scanMembership(q.QueryRow(ctx, query,
		m.ID, m.TeamID, m.UserID, m.UserName, domain.RoleManager, m.CreatedAt))
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return "", domain.ErrTeamNotFound
		}
		return "", err
	}

	*m = *upserted
	return previous, nil
}

// ListByTeam возвращает всех участников команды
func (r *MembershipRepository) ListByTeam(ctx context.Context, teamID string) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE team_id = $1
		ORDER BY role DESC, user_name
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*domain.Membership{}
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.UserName, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}

	return members, rows.Err()
}

// CountByRole возвращает число участий по ролям во всех командах
func (r *MembershipRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT role, COUNT(*) FROM memberships GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.Role]int{
		domain.RoleEmployee: 0,
		domain.RoleManager:  0,
	}
	for rows.Next() {
		var role domain.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}

	return counts, rows.Err()
}
