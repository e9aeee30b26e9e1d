package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/repository"
)

// maxCreateAttempts bounds retries of team creation after a code conflict on insert
const maxCreateAttempts = 3

// MaxTeamNameLength is the maximum length of a team name, in runes
const MaxTeamNameLength = 100

var errCodeRetriesExhausted = errors.New("could not allocate unique codes")

// CreateTeamResult is returned to the creator of a team
type CreateTeamResult struct {
	TeamID            string    `json:"team_id"`
	TeamName          string    `json:"team_name"`
	EmployeeCode      string    `json:"employee_code"`
	ManagerInviteCode string    `json:"manager_invite_code"`
	InviteExpiresAt   time.Time `json:"invite_expires_at"`
}

// TeamService handles business logic for teams
type TeamService struct {
	tx             repository.Transactor
	teamRepo       repository.TeamRepository
	inviteRepo     repository.InviteRepository
	membershipRepo repository.MembershipRepository
	subRepo        repository.SubscriptionRepository
	codes          *CodeGenerator
	inviteTTL      time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// NewTeamService creates a new TeamService
func NewTeamService(
	tx repository.Transactor,
	teamRepo repository.TeamRepository,
	inviteRepo repository.InviteRepository,
	membershipRepo repository.MembershipRepository,
	subRepo repository.SubscriptionRepository,
	codes *CodeGenerator,
	inviteTTL time.Duration,
	opts ...Option,
) *TeamService {
	o := newOptions(opts)
	return &TeamService{
		tx:             tx,
		teamRepo:       teamRepo,
		inviteRepo:     inviteRepo,
		membershipRepo: membershipRepo,
		subRepo:        subRepo,
		codes:          codes,
		inviteTTL:      inviteTTL,
		now:            o.now,
		logger:         o.logger,
	}
}

// CreateTeam creates a team with a fresh employee code, a manager invite and
// a trial subscription. A code taken by a concurrent insert is regenerated.
func (s *TeamService) CreateTeam(ctx context.Context, name string) (*CreateTeamResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxTeamNameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidInput, MaxTeamNameLength)
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		result, err := s.createOnce(ctx, name)
		if err == nil {
			s.logger.Info("team created",
				slog.String("team_id", result.TeamID),
				slog.Int("attempt", attempt),
			)
			return result, nil
		}
		if !errors.Is(err, domain.ErrCodeConflict) {
			return nil, err
		}

		s.logger.Warn("code conflict on team insert, retrying", slog.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("create team: %w", errCodeRetriesExhausted)
}

func (s *TeamService) createOnce(ctx context.Context, name string) (*CreateTeamResult, error) {
	var result *CreateTeamResult

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		employeeCode, err := s.codes.Generate(ctx, EmployeeCodeSpec, s.teamRepo.EmployeeCodeExists)
		if err != nil {
			return err
		}
		inviteCode, err := s.codes.Generate(ctx, ManagerInviteCodeSpec, s.inviteRepo.CodeExists)
		if err != nil {
			return err
		}

		now := s.now()
		team := &domain.Team{
			ID:           uuid.NewString(),
			Name:         name,
			EmployeeCode: employeeCode,
			CreatedAt:    now,
		}
		if err := s.teamRepo.Create(ctx, team); err != nil {
			return err
		}

		invite := &domain.ManagerInvite{
			ID:         uuid.NewString(),
			TeamID:     team.ID,
			InviteCode: inviteCode,
			ExpiresAt:  now.Add(s.inviteTTL),
			CreatedAt:  now,
		}
		if err := s.inviteRepo.Create(ctx, invite); err != nil {
			return err
		}

		if err := s.subRepo.Create(ctx, &domain.Subscription{
			TeamID:    team.ID,
			Plan:      domain.PlanTrial,
			Status:    domain.SubscriptionActive,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		result = &CreateTeamResult{
			TeamID:            team.ID,
			TeamName:          team.Name,
			EmployeeCode:      employeeCode,
			ManagerInviteCode: inviteCode,
			InviteExpiresAt:   invite.ExpiresAt,
		}
		return nil
	})

	return result, err
}

// ListForUser returns the teams the user belongs to with the user's role in each
func (s *TeamService) ListForUser(ctx context.Context, userID string) ([]*domain.TeamWithRole, error) {
	return s.teamRepo.ListByUser(ctx, userID)
}

// Members returns all memberships of a team
func (s *TeamService) Members(ctx context.Context, teamID string) ([]*domain.Membership, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListByTeam(ctx, teamID)
}
