package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/teamflow/internal/domain"
)

// InviteRepository реализует repository.InviteRepository для PostgreSQL
type InviteRepository struct {
	db *pgxpool.Pool
}

// NewInviteRepository создает новый экземпляр InviteRepository
func NewInviteRepository(db *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create inserts a manager invite
func (r *InviteRepository) Create(ctx context.Context, invite *domain.ManagerInvite) error {
	query := `
		INSERT INTO manager_invites (id, team_id, invite_code, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, false, $4, $5)
	`

	_, err := conn(ctx, r.db).Exec(ctx, query,
		invite.ID, invite.TeamID, invite.InviteCode, invite.ExpiresAt, invite.CreatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return domain.ErrCodeConflict
		case codeForeignKeyViolation:
			return domain.ErrTeamNotFound
		}
		return err
	}

	return nil
}

// GetByCodeForUpdate loads an invite by code and locks the row for the
// remainder of the surrounding transaction
func (r *InviteRepository) GetByCodeForUpdate(ctx context.Context, code string) (*domain.ManagerInvite, error) {
	query := `
		SELECT id, team_id, invite_code, is_used, used_by, used_at, expires_at, created_at
		FROM manager_invites
		WHERE invite_code = $1
		FOR UPDATE
	`

	var inv domain.ManagerInvite
	err := conn(ctx, r.db).QueryRow(ctx, query, code).Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.InviteCode,
		&inv.IsUsed,
		&inv.UsedBy,
		&inv.UsedAt,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, err
	}

	return &inv, nil
}

// CodeExists проверяет, занят ли код приглашения
func (r *InviteRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM manager_invites WHERE invite_code = $1)`

	var exists bool
	if err := conn(ctx, r.db).QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// MarkUsed consumes the invite. The is_used guard makes a concurrent second
// consumer observe zero affected rows.
func (r *InviteRepository) MarkUsed(ctx context.Context, inviteID, userID string, usedAt time.Time) error {
	query := `
		UPDATE manager_invites
		SET is_used = true, used_by = $2, used_at = $3
		WHERE id = $1 AND is_used = false
	`

	result, err := conn(ctx, r.db).Exec(ctx, query, inviteID, userID, usedAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrInviteAlreadyUsed
	}

	return nil
}
