package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/repository"
)

// conflictingTeams reports a unique violation on every insert
type conflictingTeams struct {
	repository.TeamRepository
	calls int
}

func (c *conflictingTeams) Create(context.Context, *domain.Team) error {
	c.calls++
	return domain.ErrCodeConflict
}

func TestCreateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.teams.CreateTeam(ctx, "  Acme  ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.TeamName)
	assert.Regexp(t, employeeCodeRe, res.EmployeeCode)
	assert.Regexp(t, inviteCodeRe, res.ManagerInviteCode)
	assert.Equal(t, t0.Add(30*24*time.Hour), res.InviteExpiresAt)

	sub, err := f.store.Subscriptions().GetByTeam(ctx, res.TeamID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanTrial, sub.Plan)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.Equal(t, 0, sub.EmployeeCount)

	other, err := f.teams.CreateTeam(ctx, "Acme")
	require.NoError(t, err)
	assert.NotEqual(t, res.EmployeeCode, other.EmployeeCode)
}

func TestCreateTeamValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.teams.CreateTeam(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.teams.CreateTeam(context.Background(), strings.Repeat("x", MaxTeamNameLength+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateTeamRetriesOnCodeConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.FailOn("teams.create", domain.ErrCodeConflict)
	res, err := f.teams.CreateTeam(ctx, "Acme")
	require.NoError(t, err)

	count, err := f.store.Teams().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_, err = f.store.Teams().GetByID(ctx, res.TeamID)
	assert.NoError(t, err)
}

func TestCreateTeamGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	teams := &conflictingTeams{TeamRepository: f.store.Teams()}
	svc := NewTeamService(
		f.store,
		teams,
		f.store.Invites(),
		f.store.Memberships(),
		f.store.Subscriptions(),
		NewCodeGenerator(),
		time.Hour,
	)

	_, err := svc.CreateTeam(context.Background(), "Acme")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCodeConflict)
	assert.Equal(t, domain.CodeInternal, domain.MapErrorToCode(err))
	assert.Equal(t, maxCreateAttempts, teams.calls)
}

func TestCreateTeamRollsBackOnInviteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.FailOn("invites.create", assert.AnError)
	_, err := f.teams.CreateTeam(ctx, "Acme")
	assert.ErrorIs(t, err, assert.AnError)

	count, err := f.store.Teams().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListForUserAndMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.teams.CreateTeam(ctx, "Acme")
	require.NoError(t, err)
	joined, err := f.members.JoinTeam(ctx, JoinInput{Code: team.EmployeeCode, DisplayName: "Alice"})
	require.NoError(t, err)

	teams, err := f.teams.ListForUser(ctx, joined.UserID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team.TeamID, teams[0].ID)
	assert.Equal(t, domain.RoleEmployee, teams[0].Role)

	members, err := f.teams.Members(ctx, team.TeamID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Alice", members[0].UserName)

	_, err = f.teams.Members(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}
