package service

import (
	"context"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"

	"golang.org/x/sync/errgroup"
)

// AchievementService builds the achievements read model. Nothing here is
// cached; every call reads the store.
type AchievementService struct {
	BadgeRepo       BadgeStore
	CertificateRepo CertificateStore
	ProgressRepo    ProgressStore
}

func NewAchievementService(badgeRepo BadgeStore, certificateRepo CertificateStore, progressRepo ProgressStore) *AchievementService {
	return &AchievementService{
		BadgeRepo:       badgeRepo,
		CertificateRepo: certificateRepo,
		ProgressRepo:    progressRepo,
	}
}

func (s *AchievementService) GetUserAchievements(ctx context.Context) (*model.UserAchievements, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetAchievementsFor(ctx, session.UserID)
}

// GetAchievementsFor reads badges, certificates and progress concurrently.
// Any failed read fails the whole call.
func (s *AchievementService) GetAchievementsFor(ctx context.Context, userID string) (*model.UserAchievements, error) {
	var (
		badges   []model.Badge
		certs    []model.Certificate
		progress []model.ProgressRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		badges, err = s.BadgeRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		certs, err = s.CertificateRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		progress, err = s.ProgressRepo.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if badges == nil {
		badges = []model.Badge{}
	}
	if certs == nil {
		certs = []model.Certificate{}
	}

	return &model.UserAchievements{
		Badges:           badges,
		Certificates:     certs,
		CoursesCompleted: CompletedCount(progress),
		StreakDays:       Streak(progress),
		TotalPoints:      ExperiencePoints(progress),
		Contributions:    0,
	}, nil
}
