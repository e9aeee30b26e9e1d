// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same uniqueness rules as the SQL schema and
// supports all-or-nothing transactions, which makes it suitable for unit
// tests of the service and handler layers.
package memory

import (
	"context"
	"sync"
)

type txKey struct{ s *Store }

// Store holds all tables. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	teams         map[string]*teamRow
	invites       map[string]*inviteRow
	memberships   map[membershipKey]*membershipRow
	subscriptions map[string]*subscriptionRow
	activities    []*activityRow
	nextActivity  int64

	faults map[string]error
}

// New creates an empty store
func New() *Store {
	return &Store{
		teams:         map[string]*teamRow{},
		invites:       map[string]*inviteRow{},
		memberships:   map[membershipKey]*membershipRow{},
		subscriptions: map[string]*subscriptionRow{},
		faults:        map[string]error{},
	}
}

// FailOn makes the next call of op return err. Op names are
// "<table>.<method>", e.g. "memberships.upsert_manager".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault must be called with the lock held
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{s}).(bool)
	return ok
}

// lock acquires the store lock unless ctx already runs inside a transaction of this store
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn while holding the store lock; if fn fails every table is
// restored to its state before the call.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{s}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	teams         map[string]*teamRow
	invites       map[string]*inviteRow
	memberships   map[membershipKey]*membershipRow
	subscriptions map[string]*subscriptionRow
	activities    []*activityRow
	nextActivity  int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		teams:         make(map[string]*teamRow, len(s.teams)),
		invites:       make(map[string]*inviteRow, len(s.invites)),
		memberships:   make(map[membershipKey]*membershipRow, len(s.memberships)),
		subscriptions: make(map[string]*subscriptionRow, len(s.subscriptions)),
		activities:    make([]*activityRow, len(s.activities)),
		nextActivity:  s.nextActivity,
	}
	for k, v := range s.teams {
		c := *v
		snap.teams[k] = &c
	}
	for k, v := range s.invites {
		c := *v
		snap.invites[k] = &c
	}
	for k, v := range s.memberships {
		c := *v
		snap.memberships[k] = &c
	}
	for k, v := range s.subscriptions {
		c := *v
		snap.subscriptions[k] = &c
	}
	for i, v := range s.activities {
		c := *v
		snap.activities[i] = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.teams = snap.teams
	s.invites = snap.invites
	s.memberships = snap.memberships
	s.subscriptions = snap.subscriptions
	s.activities = snap.activities
	s.nextActivity = snap.nextActivity
}

// Teams returns the team repository view of the store
func (s *Store) Teams() *TeamRepository { return &TeamRepository{s: s} }

// Invites returns the invite repository view of the store
func (s *Store) Invites() *InviteRepository { return &InviteRepository{s: s} }

// Memberships returns the membership repository view of the store
func (s *Store) Memberships() *MembershipRepository { return &MembershipRepository{s: s} }

// Subscriptions returns the subscription repository view of the store
func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{s: s} }

// Activities returns the activity repository view of the store
func (s *Store) Activities() *ActivityRepository { return &ActivityRepository{s: s} }
