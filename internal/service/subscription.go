package service

import (
	"context"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/repository"
)

// SubscriptionService exposes the subscription of a team
type SubscriptionService struct {
	subRepo repository.SubscriptionRepository
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(subRepo repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subRepo: subRepo}
}

// Status returns the plan, status and billed employee count of a team
func (s *SubscriptionService) Status(ctx context.Context, teamID string) (*domain.Subscription, error) {
	return s.subRepo.GetByTeam(ctx, teamID)
}
