package service

import (
	"context"
	"errors"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"
	"learnboard_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	ProfileRepo  ProfileStore
	ProgressRepo ProgressStore
	BadgeRepo    BadgeStore
	now          func() time.Time
}

func NewDashboardService(profileRepo ProfileStore, progressRepo ProgressStore, badgeRepo BadgeStore) *DashboardService {
	return &DashboardService{
		ProfileRepo:  profileRepo,
		ProgressRepo: progressRepo,
		BadgeRepo:    badgeRepo,
		now:          time.Now,
	}
}

// displayName picks the profile's full name, then the email local part.
func displayName(profile *model.Profile, email string) string {
	if profile != nil && strings.TrimSpace(profile.FullName) != "" {
		return profile.FullName
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "User"
}

// GetSummary builds the dashboard header. A missing profile or a failed badge
// count degrades to defaults; a failed progress read fails the call.
func (s *DashboardService) GetSummary(ctx context.Context) (*model.DashboardSummary, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		profile  *model.Profile
		progress []model.ProgressRecord
		badges   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.ProfileRepo.FindByID(gctx, session.UserID)
		if err != nil && !errors.Is(err, util.ErrNotFound) {
			logger.Log.Warn("Failed to load profile for dashboard", zap.String("userId", session.UserID), zap.Error(err))
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() (err error) {
		progress, err = s.ProgressRepo.ListByUser(gctx, session.UserID)
		return err
	})
	g.Go(func() error {
		n, err := s.BadgeRepo.CountByUser(gctx, session.UserID)
		if err != nil {
			logger.Log.Warn("Failed to count badges for dashboard", zap.String("userId", session.UserID), zap.Error(err))
			return nil
		}
		badges = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.DashboardSummary{
		Name:           displayName(profile, session.Email),
		Role:           session.Role,
		LearningStreak: Streak(progress),
		XPGained:       ExperiencePoints(progress),
		GoalsCompleted: CompletedCount(progress),
		Achievements:   badges,
	}, nil
}

func (s *DashboardService) GetWeeklyProgress(ctx context.Context) ([]model.WeeklyBucket, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.ProgressRepo.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return WeeklyProgress(progress, s.now()), nil
}
