package service

import (
	"context"
	"errors"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"
	"math"
)

type CourseService struct {
	CourseRepo      CourseStore
	CertificateRepo CertificateStore
	Progress        *ProgressService
}

func NewCourseService(courseRepo CourseStore, certificateRepo CertificateStore, progress *ProgressService) *CourseService {
	return &CourseService{
		CourseRepo:      courseRepo,
		CertificateRepo: certificateRepo,
		Progress:        progress,
	}
}

func (s *CourseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.CourseRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

func (s *CourseService) findCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}

// GetCourse returns the course with the caller's progress and certificate.
// Either may be absent.
func (s *CourseService) GetCourse(ctx context.Context, id string) (*model.CourseDetail, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.CourseDetail{Course: course}

	progress, err := s.Progress.ProgressRepo.FindByUserAndCourse(ctx, session.UserID, id)
	switch {
	case err == nil:
		detail.Progress = progress
		detail.Enrolled = true
	case !errors.Is(err, util.ErrNotFound):
		return nil, err
	}

	cert, err := s.CertificateRepo.FindByUserAndCourse(ctx, session.UserID, id)
	switch {
	case err == nil:
		detail.Certificate = cert
	case !errors.Is(err, util.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

func (s *CourseService) Enroll(ctx context.Context, courseID string) (*model.ProgressRecord, error) {
	if _, err := util.SessionFromContext(ctx); err != nil {
		return nil, err
	}
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.Progress.Enroll(ctx, courseID)
}

// LessonProgress is the percentage reached after finishing lesson index
// (zero based) of a course with lessons lessons.
func LessonProgress(index, lessons int) int {
	pct := int(math.Round(float64(index+1) / float64(lessons) * 100))
	return min(pct, model.MaxProgress)
}

func (s *CourseService) CompleteLesson(ctx context.Context, courseID string, index int) (*model.ProgressRecord, error) {
	if _, err := util.SessionFromContext(ctx); err != nil {
		return nil, err
	}
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.LessonsCount <= 0 || index < 0 || index >= course.LessonsCount {
		return nil, util.ErrInvalidLesson
	}
	return s.Progress.UpsertProgress(ctx, courseID, LessonProgress(index, course.LessonsCount), &index)
}
