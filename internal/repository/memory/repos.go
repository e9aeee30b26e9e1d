package memory

import (
	"context"
	"sort"
	"time"

	"github.com/aidar/teamflow/internal/domain"
)

type (
	teamRow         = domain.Team
	inviteRow       = domain.ManagerInvite
	membershipRow   = domain.Membership
	subscriptionRow = domain.Subscription
	activityRow     = domain.Activity
)

type membershipKey struct {
	teamID string
	userID string
}

// TeamRepository implements repository.TeamRepository
type TeamRepository struct{ s *Store }

// Create stores a team; a taken id or employee code yields ErrCodeConflict
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("teams.create"); err != nil {
		return err
	}
	if _, ok := r.s.teams[team.ID]; ok {
		return domain.ErrCodeConflict
	}
	for _, t := range r.s.teams {
		if t.EmployeeCode == team.EmployeeCode {
			return domain.ErrCodeConflict
		}
	}
	c := *team
	r.s.teams[team.ID] = &c
	return nil
}

// GetByID returns the team with the given id
func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	c := *t
	return &c, nil
}

// GetByEmployeeCode returns the team owning the employee code
func (r *TeamRepository) GetByEmployeeCode(ctx context.Context, code string) (*domain.Team, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.teams {
		if t.EmployeeCode == code {
			c := *t
			return &c, nil
		}
	}
	return nil, domain.ErrTeamNotFound
}

// EmployeeCodeExists reports whether a team already uses the code
func (r *TeamRepository) EmployeeCodeExists(ctx context.Context, code string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.teams {
		if t.EmployeeCode == code {
			return true, nil
		}
	}
	return false, nil
}

// ListByUser returns the teams the user belongs to, oldest first
func (r *TeamRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TeamWithRole, error) {
	defer r.s.lock(ctx)()
	teams := []*domain.TeamWithRole{}
	for k, m := range r.s.memberships {
		if k.userID != userID {
			continue
		}
		if t, ok := r.s.teams[k.teamID]; ok {
			teams = append(teams, &domain.TeamWithRole{Team: *t, Role: m.Role})
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].CreatedAt.Before(teams[j].CreatedAt) })
	return teams, nil
}

// Count returns the number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	defer r.s.lock(ctx)()
	return len(r.s.teams), nil
}

// InviteRepository implements repository.InviteRepository
type InviteRepository struct{ s *Store }

// Create stores a manager invite for an existing team
func (r *InviteRepository) Create(ctx context.Context, invite *domain.ManagerInvite) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("invites.create"); err != nil {
		return err
	}
	if _, ok := r.s.teams[invite.TeamID]; !ok {
		return domain.ErrTeamNotFound
	}
	for _, inv := range r.s.invites {
		if inv.InviteCode == invite.InviteCode || inv.ID == invite.ID {
			return domain.ErrCodeConflict
		}
	}
	c := *invite
	r.s.invites[invite.ID] = &c
	return nil
}

// GetByCodeForUpdate returns the invite with the given code
func (r *InviteRepository) GetByCodeForUpdate(ctx context.Context, code string) (*domain.ManagerInvite, error) {
	defer r.s.lock(ctx)()
	for _, inv := range r.s.invites {
		if inv.InviteCode == code {
			c := *inv
			return &c, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

// CodeExists reports whether an invite already uses the code
func (r *InviteRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, inv := range r.s.invites {
		if inv.InviteCode == code {
			return true, nil
		}
	}
	return false, nil
}

// MarkUsed consumes an unused invite
func (r *InviteRepository) MarkUsed(ctx context.Context, inviteID, userID string, usedAt time.Time) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("invites.mark_used"); err != nil {
		return err
	}
	inv, ok := r.s.invites[inviteID]
	if !ok {
		return domain.ErrInviteNotFound
	}
	if inv.IsUsed {
		return domain.ErrInviteAlreadyUsed
	}
	inv.IsUsed = true
	inv.UsedBy = &userID
	inv.UsedAt = &usedAt
	return nil
}

// Invite returns a copy of the invite with the given code, for assertions in tests
func (s *Store) Invite(code string) (*domain.ManagerInvite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.InviteCode == code {
			c := *inv
			return &c, true
		}
	}
	return nil, false
}

// SetInviteExpiry overrides the expiry of the invite with the given code
func (s *Store) SetInviteExpiry(code string, expiresAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.InviteCode == code {
			inv.ExpiresAt = expiresAt
			return true
		}
	}
	return false
}

// MembershipRepository implements repository.MembershipRepository
type MembershipRepository struct{ s *Store }

// Get returns the membership of the user in the team
func (r *MembershipRepository) Get(ctx context.Context, teamID, userID string) (*domain.Membership, error) {
	defer r.s.lock(ctx)()
	m, ok := r.s.memberships[membershipKey{teamID, userID}]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	c := *m
	return &c, nil
}

// InsertIfAbsent stores the membership unless the team/user pair exists
func (r *MembershipRepository) InsertIfAbsent(ctx context.Context, m *domain.Membership) (bool, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("memberships.insert"); err != nil {
		return false, err
	}
	if _, ok := r.s.teams[m.TeamID]; !ok {
		return false, domain.ErrTeamNotFound
	}
	key := membershipKey{m.TeamID, m.UserID}
	if _, ok := r.s.memberships[key]; ok {
		return false, nil
	}
	m.UpdatedAt = m.CreatedAt
	c := *m
	r.s.memberships[key] = &c
	return true, nil
}

// UpsertManager creates a manager membership or upgrades an existing one,
// returning the previous role
func (r *MembershipRepository) UpsertManager(ctx context.Context, m *domain.Membership) (domain.Role, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("memberships.upsert_manager"); err != nil {
		return "", err
	}
	if _, ok := r.s.teams[m.TeamID]; !ok {
		return "", domain.ErrTeamNotFound
	}
	key := membershipKey{m.TeamID, m.UserID}
	if existing, ok := r.s.memberships[key]; ok {
		previous := existing.Role
		existing.Role = domain.RoleManager
		existing.UpdatedAt = m.CreatedAt
		*m = *existing
		return previous, nil
	}
	m.Role = domain.RoleManager
	m.UpdatedAt = m.CreatedAt
	c := *m
	r.s.memberships[key] = &c
	return "", nil
}

// ListByTeam returns the team members, managers first
func (r *MembershipRepository) ListByTeam(ctx context.Context, teamID string) ([]*domain.Membership, error) {
	defer r.s.lock(ctx)()
	members := []*domain.Membership{}
	for k, m := range r.s.memberships {
		if k.teamID == teamID {
			c := *m
			members = append(members, &c)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Role != members[j].Role {
			return members[i].Role > members[j].Role
		}
		return members[i].UserName < members[j].UserName
	})
	return members, nil
}

// CountByRole returns the number of memberships per role
func (r *MembershipRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	defer r.s.lock(ctx)()
	counts := map[domain.Role]int{domain.RoleEmployee: 0, domain.RoleManager: 0}
	for _, m := range r.s.memberships {
		counts[m.Role]++
	}
	return counts, nil
}

// SubscriptionRepository implements repository.SubscriptionRepository
type SubscriptionRepository struct{ s *Store }

// Create stores the subscription of an existing team
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.teams[sub.TeamID]; !ok {
		return domain.ErrTeamNotFound
	}
	sub.UpdatedAt = sub.CreatedAt
	c := *sub
	r.s.subscriptions[sub.TeamID] = &c
	return nil
}

// GetByTeam returns the subscription of the team
func (r *SubscriptionRepository) GetByTeam(ctx context.Context, teamID string) (*domain.Subscription, error) {
	defer r.s.lock(ctx)()
	sub, ok := r.s.subscriptions[teamID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *sub
	return &c, nil
}

// AdjustEmployeeCount adds delta to the employee count, never going below zero
func (r *SubscriptionRepository) AdjustEmployeeCount(ctx context.Context, teamID string, delta int) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("subscriptions.adjust"); err != nil {
		return err
	}
	sub, ok := r.s.subscriptions[teamID]
	if !ok {
		return domain.ErrNotFound
	}
	sub.EmployeeCount = max(sub.EmployeeCount+delta, 0)
	return nil
}

// ActivityRepository implements repository.ActivityRepository
type ActivityRepository struct{ s *Store }

// Create stores an activity sample for an existing membership
func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.memberships[membershipKey{a.TeamID, a.UserID}]; !ok {
		return domain.ErrMembershipNotFound
	}
	r.s.nextActivity++
	a.ID = r.s.nextActivity
	c := *a
	r.s.activities = append(r.s.activities, &c)
	return nil
}

// TotalsByTeam sums the activity of every team member, by name
func (r *ActivityRepository) TotalsByTeam(ctx context.Context, teamID string) ([]*domain.MemberActivityTotals, error) {
	defer r.s.lock(ctx)()
	byUser := map[string]*domain.MemberActivityTotals{}
	totals := []*domain.MemberActivityTotals{}
	for k, m := range r.s.memberships {
		if k.teamID != teamID {
			continue
		}
		t := &domain.MemberActivityTotals{UserID: m.UserID, UserName: m.UserName, Role: m.Role}
		byUser[m.UserID] = t
		totals = append(totals, t)
	}
	for _, a := range r.s.activities {
		if a.TeamID != teamID {
			continue
		}
		if t, ok := byUser[a.UserID]; ok {
			t.Samples++
			t.ProductiveHours += a.ProductiveHours
			t.UnproductiveHours += a.UnproductiveHours
			t.GoalsCompleted += a.GoalsCompleted
		}
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].UserName < totals[j].UserName })
	return totals, nil
}
