package service

import (
	"context"
	"errors"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"
	"learnboard_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

type ProgressService struct {
	ProgressRepo ProgressStore
	// OnCompleted, when set, is called after a write that completed a course.
	OnCompleted func(userID, courseID string)
	now         func() time.Time
}

func NewProgressService(progressRepo ProgressStore) *ProgressService {
	return &ProgressService{ProgressRepo: progressRepo, now: time.Now}
}

func (s *ProgressService) GetProgress(ctx context.Context) ([]model.ProgressRecord, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.ProgressRepo.ListByUser(ctx, session.UserID)
}

// GetCourseProgress returns util.ErrNotFound when the user never enrolled.
func (s *ProgressService) GetCourseProgress(ctx context.Context, courseID string) (*model.ProgressRecord, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.ProgressRepo.FindByUserAndCourse(ctx, session.UserID, courseID)
}

// UpsertProgress records progress for (session user, courseID) and returns the
// stored record. Progress never goes down: a lower percentage than stored keeps
// the stored one but still refreshes the access time and lesson index. The
// store applies the same rule atomically, so racing writers cannot lower it.
func (s *ProgressService) UpsertProgress(ctx context.Context, courseID string, percentage int, lessonIndex *int) (*model.ProgressRecord, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if percentage < 0 || percentage > model.MaxProgress {
		return nil, util.ErrInvalidProgress
	}
	if lessonIndex != nil && *lessonIndex < 0 {
		return nil, util.ErrInvalidLesson
	}

	existing, err := s.ProgressRepo.FindByUserAndCourse(ctx, session.UserID, courseID)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}

	rec := &model.ProgressRecord{
		UserID:             session.UserID,
		CourseID:           courseID,
		ProgressPercentage: percentage,
		LastAccessedAt:     s.now(),
	}
	wasCompleted := false
	if existing != nil {
		wasCompleted = existing.Completed
		rec.CurrentLessonIndex = existing.CurrentLessonIndex
		if existing.ProgressPercentage > percentage {
			logger.Log.Warn("Ignoring progress regression",
				zap.String("userId", session.UserID),
				zap.String("courseId", courseID),
				zap.Int("stored", existing.ProgressPercentage),
				zap.Int("requested", percentage),
			)
			rec.ProgressPercentage = existing.ProgressPercentage
		}
	}
	if lessonIndex != nil {
		rec.CurrentLessonIndex = *lessonIndex
	}
	rec.Completed = rec.ProgressPercentage == model.MaxProgress

	stored, err := s.ProgressRepo.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	if stored.Completed && !wasCompleted && s.OnCompleted != nil {
		s.OnCompleted(session.UserID, courseID)
	}
	return stored, nil
}

// Enroll starts a course at 0%. Enrolling twice keeps the existing record.
func (s *ProgressService) Enroll(ctx context.Context, courseID string) (*model.ProgressRecord, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.ProgressRepo.FindByUserAndCourse(ctx, session.UserID, courseID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, util.ErrNotFound):
		return nil, err
	}
	return s.UpsertProgress(ctx, courseID, 0, nil)
}
