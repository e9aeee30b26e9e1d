package jobs

import (
	"context"
	"fmt"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/metrics"
	"github.com/aidar/teamflow/internal/repository"
)

// GaugeRefresherName is the job name used in logs and metrics
const GaugeRefresherName = "refresh_gauges"

// GaugeRefresher copies store totals into Prometheus gauges
type GaugeRefresher struct {
	teamRepo       repository.TeamRepository
	membershipRepo repository.MembershipRepository
	metrics        *metrics.Metrics
}

// NewGaugeRefresher creates a new GaugeRefresher
func NewGaugeRefresher(teamRepo repository.TeamRepository, membershipRepo repository.MembershipRepository, m *metrics.Metrics) *GaugeRefresher {
	return &GaugeRefresher{
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		metrics:        m,
	}
}

// Refresh reads the team count and membership counts by role
func (g *GaugeRefresher) Refresh(ctx context.Context) error {
	teams, err := g.teamRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count teams: %w", err)
	}

	byRole, err := g.membershipRepo.CountByRole(ctx)
	if err != nil {
		return fmt.Errorf("count memberships: %w", err)
	}

	g.metrics.SetTeams(teams)
	for _, role := range []domain.Role{domain.RoleEmployee, domain.RoleManager} {
		g.metrics.SetMemberships(string(role), byRole[role])
	}

	return nil
}
