package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/metrics"
	"github.com/aidar/teamflow/internal/repository"
)

// MaxDisplayNameLength is the maximum length of a member display name, in runes
const MaxDisplayNameLength = 100

// userNamespace scopes deterministic user ids derived from name and employee code
var userNamespace = uuid.MustParse("6f1c3d52-8a4e-4b7a-9d1e-2c5b7f0a9e31")

// JoinInput is the request to join a team by employee code
type JoinInput struct {
	Code        string
	DisplayName string
	AuthUserID  string // set when the caller presented a valid bearer token
}

// JoinResult is the outcome of a join. Role is the role carried by Token,
// which is always employee; MemberRole is the stored membership role.
type JoinResult struct {
	TeamID        string      `json:"team_id"`
	TeamName      string      `json:"team_name"`
	UserID        string      `json:"user_id"`
	UserName      string      `json:"user_name"`
	Role          domain.Role `json:"role"`
	MemberRole    domain.Role `json:"member_role"`
	Token         string      `json:"token"`
	ExpiresAt     time.Time   `json:"expires_at"`
	AlreadyMember bool        `json:"already_member"`
}

// ClaimInput is the request to claim the manager role with an invite code
type ClaimInput struct {
	InviteCode  string
	DisplayName string
	AuthUserID  string
}

// ClaimResult is the outcome of a manager claim
type ClaimResult struct {
	TeamID    string      `json:"team_id"`
	TeamName  string      `json:"team_name"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name"`
	Role      domain.Role `json:"role"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Upgraded  bool        `json:"upgraded"`
}

// MembershipService resolves joins and manager claims into memberships
type MembershipService struct {
	tx             repository.Transactor
	teamRepo       repository.TeamRepository
	inviteRepo     repository.InviteRepository
	membershipRepo repository.MembershipRepository
	subRepo        repository.SubscriptionRepository
	tokens         *TokenIssuer
	now            func() time.Time
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	tx repository.Transactor,
	teamRepo repository.TeamRepository,
	inviteRepo repository.InviteRepository,
	membershipRepo repository.MembershipRepository,
	subRepo repository.SubscriptionRepository,
	tokens *TokenIssuer,
	opts ...Option,
) *MembershipService {
	o := newOptions(opts)
	return &MembershipService{
		tx:             tx,
		teamRepo:       teamRepo,
		inviteRepo:     inviteRepo,
		membershipRepo: membershipRepo,
		subRepo:        subRepo,
		tokens:         tokens,
		now:            o.now,
		logger:         o.logger,
		metrics:        o.metrics,
	}
}

// JoinTeam adds the caller to the team owning the employee code with the
// employee role. Joining again returns the existing membership unchanged.
// The employee code only ever yields an employee credential; manager
// credentials come from ClaimManagerRole.
func (s *MembershipService) JoinTeam(ctx context.Context, in JoinInput) (*JoinResult, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: team_code is required", domain.ErrInvalidInput)
	}
	name, err := normalizeDisplayName(in.DisplayName)
	if err != nil {
		return nil, err
	}

	var (
		team       *domain.Team
		membership *domain.Membership
		already    bool
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		team, err = s.teamRepo.GetByEmployeeCode(ctx, code)
		if err != nil {
			return err
		}

		userID := resolveUserID(team, name, in.AuthUserID)

		now := s.now()
		candidate := &domain.Membership{
			ID:        uuid.NewString(),
			TeamID:    team.ID,
			UserID:    userID,
			UserName:  name,
			Role:      domain.RoleEmployee,
			CreatedAt: now,
		}

		inserted, err := s.membershipRepo.InsertIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}

		if !inserted {
			already = true
			membership, err = s.membershipRepo.Get(ctx, team.ID, userID)
			return err
		}

		membership = candidate
		return s.subRepo.AdjustEmployeeCount(ctx, team.ID, 1)
	})
	if err != nil {
		s.metrics.Resolution("join", outcome(err))
		if outcome(err) == "error" {
			s.logger.Error("join failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	authenticated := in.AuthUserID != ""
	token, expiresAt, err := s.tokens.Mint(membership.UserID, team.ID, domain.RoleEmployee, s.tokens.Lifetime(authenticated))
	if err != nil {
		return nil, err
	}

	if already {
		s.metrics.Resolution("join", "already_member")
	} else {
		s.metrics.Resolution("join", "joined")
		s.logger.Info("member joined team",
			slog.String("team_id", team.ID),
			slog.String("user_id", membership.UserID),
			slog.Bool("authenticated", authenticated),
		)
	}

	return &JoinResult{
		TeamID:        team.ID,
		TeamName:      team.Name,
		UserID:        membership.UserID,
		UserName:      membership.UserName,
		Role:          domain.RoleEmployee,
		MemberRole:    membership.Role,
		Token:         token,
		ExpiresAt:     expiresAt,
		AlreadyMember: already,
	}, nil
}

// ClaimManagerRole consumes a one-shot manager invite and grants the caller
// the manager role, creating the membership or upgrading an existing one.
// Invite consumption and the membership write commit together.
func (s *MembershipService) ClaimManagerRole(ctx context.Context, in ClaimInput) (*ClaimResult, error) {
	code := strings.TrimSpace(in.InviteCode)
	if code == "" {
		return nil, fmt.Errorf("%w: manager_invite_code is required", domain.ErrInvalidInput)
	}
	name, err := normalizeDisplayName(in.DisplayName)
	if err != nil {
		return nil, err
	}

	var (
		team       *domain.Team
		membership *domain.Membership
		previous   domain.Role
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		invite, err := s.inviteRepo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		now := s.now()
		if err := invite.Validate(now); err != nil {
			return err
		}

		team, err = s.teamRepo.GetByID(ctx, invite.TeamID)
		if err != nil {
			return err
		}

		userID := resolveUserID(team, name, in.AuthUserID)

		if err := s.inviteRepo.MarkUsed(ctx, invite.ID, userID, now); err != nil {
			return err
		}

		membership = &domain.Membership{
			ID:        uuid.NewString(),
			TeamID:    team.ID,
			UserID:    userID,
			UserName:  name,
			Role:      domain.RoleManager,
			CreatedAt: now,
		}
		previous, err = s.membershipRepo.UpsertManager(ctx, membership)
		if err != nil {
			return err
		}

		// managers are not billed as employees
		if previous == domain.RoleEmployee {
			return s.subRepo.AdjustEmployeeCount(ctx, team.ID, -1)
		}
		return nil
	})
	if err != nil {
		s.metrics.Resolution("claim", outcome(err))
		if outcome(err) == "error" {
			s.logger.Error("manager claim failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Mint(membership.UserID, team.ID, domain.RoleManager, s.tokens.ManagerLifetime())
	if err != nil {
		return nil, err
	}

	upgraded := previous == domain.RoleEmployee
	s.metrics.Resolution("claim", "claimed")
	s.logger.Info("manager role claimed",
		slog.String("team_id", team.ID),
		slog.String("user_id", membership.UserID),
		slog.Bool("upgraded", upgraded),
	)

	return &ClaimResult{
		TeamID:    team.ID,
		TeamName:  team.Name,
		UserID:    membership.UserID,
		UserName:  membership.UserName,
		Role:      domain.RoleManager,
		Token:     token,
		ExpiresAt: expiresAt,
		Upgraded:  upgraded,
	}, nil
}

// resolveUserID picks the user identity: the authenticated user id when the
// caller presented a token, otherwise the id derived from the name and the
// team's employee code. Anonymous callers never adopt another member's id.
func resolveUserID(team *domain.Team, name, authUserID string) string {
	if authUserID != "" {
		return authUserID
	}
	return DeriveUserID(name, team.EmployeeCode)
}

// DeriveUserID returns the stable anonymous user id for a name within a team
func DeriveUserID(name, employeeCode string) string {
	key := strings.ToLower(strings.TrimSpace(name)) + ":" + employeeCode
	return uuid.NewSHA1(userNamespace, []byte(key)).String()
}

func normalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidInput, MaxDisplayNameLength)
	}
	return name, nil
}

func outcome(err error) string {
	switch domain.MapErrorToCode(err) {
	case domain.CodeNotFound, domain.CodeInviteNotFound:
		return "not_found"
	case domain.CodeInviteAlreadyUsed:
		return "already_used"
	case domain.CodeInviteExpired:
		return "expired"
	case domain.CodeBadRequest:
		return "invalid"
	default:
		return "error"
	}
}
