package service

import (
	"context"
	"math"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/repository"
)

// MemberStats represents statistics for a team member
type MemberStats struct {
	domain.MemberActivityTotals
	ProductivityScore float64 `json:"productivity_score"`
}

// TeamStats represents combined statistics of a team
type TeamStats struct {
	TeamID            string        `json:"team_id"`
	TeamName          string        `json:"team_name"`
	Managers          int           `json:"managers"`
	Employees         int           `json:"employees"`
	ProductiveHours   float64       `json:"productive_hours"`
	UnproductiveHours float64       `json:"unproductive_hours"`
	GoalsCompleted    int           `json:"goals_completed"`
	ProductivityScore float64       `json:"productivity_score"`
	Members           []MemberStats `json:"members"`
}

// StatsService handles statistics queries
type StatsService struct {
	teamRepo     repository.TeamRepository
	activityRepo repository.ActivityRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(teamRepo repository.TeamRepository, activityRepo repository.ActivityRepository) *StatsService {
	return &StatsService{
		teamRepo:     teamRepo,
		activityRepo: activityRepo,
	}
}

// TeamStats returns member counts and activity totals of a team
func (s *StatsService) TeamStats(ctx context.Context, teamID string) (*TeamStats, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	totals, err := s.activityRepo.TotalsByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	stats := &TeamStats{
		TeamID:   team.ID,
		TeamName: team.Name,
		Members:  make([]MemberStats, 0, len(totals)),
	}

	var overall domain.MemberActivityTotals
	for _, t := range totals {
		if t.Role == domain.RoleManager {
			stats.Managers++
		} else {
			stats.Employees++
		}

		overall.ProductiveHours += t.ProductiveHours
		overall.UnproductiveHours += t.UnproductiveHours
		overall.GoalsCompleted += t.GoalsCompleted

		stats.Members = append(stats.Members, MemberStats{
			MemberActivityTotals: *t,
			ProductivityScore:    round2(t.ProductivityScore()),
		})
	}

	stats.ProductiveHours = round2(overall.ProductiveHours)
	stats.UnproductiveHours = round2(overall.UnproductiveHours)
	stats.GoalsCompleted = overall.GoalsCompleted
	stats.ProductivityScore = round2(overall.ProductivityScore())

	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
