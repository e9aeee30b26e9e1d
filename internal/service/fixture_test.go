package service

import (
	"testing"
	"time"

	"github.com/aidar/teamflow/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	now     time.Time
	tokens  *TokenIssuer
	teams   *TeamService
	members *MembershipService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{store: memory.New(), now: t0}
	clock := WithClock(func() time.Time { return f.now })

	f.tokens = NewTokenIssuer(testSecret, 720*time.Hour, 168*time.Hour, clock)
	f.teams = NewTeamService(
		f.store,
		f.store.Teams(),
		f.store.Invites(),
		f.store.Memberships(),
		f.store.Subscriptions(),
		NewCodeGenerator(clock),
		30*24*time.Hour,
		clock,
	)
	f.members = NewMembershipService(
		f.store,
		f.store.Teams(),
		f.store.Invites(),
		f.store.Memberships(),
		f.store.Subscriptions(),
		f.tokens,
		clock,
	)

	return f
}
