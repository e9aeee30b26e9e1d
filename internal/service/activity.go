package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/repository"
)

// ActivitySample is one report sent by the desktop tracker
type ActivitySample struct {
	ActiveApp         string     `json:"active_app"`
	WindowTitle       string     `json:"window_title"`
	IdleSeconds       float64    `json:"idle_seconds"`
	ProductiveHours   float64    `json:"productive_hours"`
	UnproductiveHours float64    `json:"unproductive_hours"`
	GoalsCompleted    int        `json:"goals_completed"`
	RecordedAt        *time.Time `json:"recorded_at,omitempty"`
}

// ActivityService stores tracker samples of team members
type ActivityService struct {
	activityRepo repository.ActivityRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo repository.ActivityRepository, opts ...Option) *ActivityService {
	o := newOptions(opts)
	return &ActivityService{
		activityRepo: activityRepo,
		now:          o.now,
		logger:       o.logger,
	}
}

// Record stores a sample for the caller's membership in teamID
func (s *ActivityService) Record(ctx context.Context, claims *Claims, teamID string, sample ActivitySample) (*domain.Activity, error) {
	if claims == nil {
		return nil, domain.ErrUnauthorized
	}
	if claims.TeamID != teamID {
		return nil, domain.ErrForbidden
	}
	if sample.IdleSeconds < 0 || sample.ProductiveHours < 0 || sample.UnproductiveHours < 0 || sample.GoalsCompleted < 0 {
		return nil, fmt.Errorf("%w: activity values must not be negative", domain.ErrInvalidInput)
	}

	recordedAt := s.now()
	if sample.RecordedAt != nil {
		recordedAt = *sample.RecordedAt
	}

	activity := &domain.Activity{
		TeamID:            teamID,
		UserID:            claims.UserID,
		ActiveApp:         strings.TrimSpace(sample.ActiveApp),
		WindowTitle:       strings.TrimSpace(sample.WindowTitle),
		IdleSeconds:       sample.IdleSeconds,
		ProductiveHours:   sample.ProductiveHours,
		UnproductiveHours: sample.UnproductiveHours,
		GoalsCompleted:    sample.GoalsCompleted,
		RecordedAt:        recordedAt,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.logger.Debug("activity recorded",
		slog.String("team_id", teamID),
		slog.String("user_id", claims.UserID),
		slog.Int64("activity_id", activity.ID),
	)

	return activity, nil
}
