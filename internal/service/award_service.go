package service

import (
	"context"
	"errors"
	"fmt"
	"learnboard_backend/internal/config"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/util"
	"learnboard_backend/pkg/logger"
	"learnboard_backend/pkg/monitoring"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("learnboard_backend/service")

// AwardOutcome describes what happened to one completed course.
type AwardOutcome struct {
	CourseID    string             `json:"courseId"`
	CourseTitle string             `json:"courseTitle,omitempty"`
	Badge       *model.Badge       `json:"badge,omitempty"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type ScanResult struct {
	UserID   string         `json:"userId"`
	Awarded  []AwardOutcome `json:"awarded"`
	Repaired []AwardOutcome `json:"repaired"`
	// Failed holds partial awards too: a badge without its certificate.
	Failed  []AwardOutcome `json:"failed"`
	Skipped []string       `json:"skipped"`
}

func (r *ScanResult) changed() bool {
	if len(r.Awarded) > 0 || len(r.Repaired) > 0 {
		return true
	}
	for _, f := range r.Failed {
		if f.Badge != nil {
			return true
		}
	}
	return false
}

// AwardService turns completed courses into badges and certificates.
// Writes rely on the unique keys of user_badges and certificates, so a
// duplicate insert means another writer already awarded and is not an
// error. Scans for the same user inside this process are collapsed.
type AwardService struct {
	Detector        *CompletionDetector
	CourseRepo      CourseStore
	BadgeRepo       BadgeStore
	CertificateRepo CertificateStore
	Notifier        Notifier
	Publisher       realtime.Publisher

	mu    sync.RWMutex
	cfg   config.AwardConfig
	group singleflight.Group
	wg    sync.WaitGroup
	now   func() time.Time
}

func NewAwardService(
	detector *CompletionDetector,
	courseRepo CourseStore,
	badgeRepo BadgeStore,
	certificateRepo CertificateStore,
	notifier Notifier,
	publisher realtime.Publisher,
	cfg config.AwardConfig,
) *AwardService {
	return &AwardService{
		Detector:        detector,
		CourseRepo:      courseRepo,
		BadgeRepo:       badgeRepo,
		CertificateRepo: certificateRepo,
		Notifier:        notifier,
		Publisher:       publisher,
		cfg:             cfg,
		now:             time.Now,
	}
}

// UpdateConfig applies reloaded award settings to subsequent scans.
func (s *AwardService) UpdateConfig(cfg config.AwardConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// ScanOnView reports whether loading achievements should trigger a scan.
func (s *AwardService) ScanOnView() bool {
	return s.settings().ScanOnView
}

func (s *AwardService) settings() config.AwardConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Scan detects and awards every pending completion for the session user.
func (s *AwardService) Scan(ctx context.Context) (*ScanResult, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.ScanUser(ctx, session.UserID)
}

// ScanUser is Scan for an explicit user. Concurrent calls for the same user
// share one run and its result.
func (s *AwardService) ScanUser(ctx context.Context, userID string) (*ScanResult, error) {
	v, err, shared := s.group.Do(userID, func() (interface{}, error) {
		return s.scan(ctx, userID)
	})
	if shared {
		logger.Log.Debug("joined in-flight award scan", zap.String("userId", userID))
	}
	if err != nil {
		return nil, err
	}
	return v.(*ScanResult), nil
}

// ScanInBackground starts a scan detached from the caller's context, bounded
// by award.scan_timeout. Errors are logged only.
func (s *AwardService) ScanInBackground(userID string) {
	timeout := s.settings().ScanTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := s.ScanUser(ctx, userID); err != nil {
			logger.Log.Warn("Background award scan failed", zap.String("userId", userID), zap.Error(err))
		}
	}()
}

// Wait blocks until background scans have finished.
func (s *AwardService) Wait() {
	s.wg.Wait()
}

func (s *AwardService) scan(ctx context.Context, userID string) (*ScanResult, error) {
	ctx, span := tracer.Start(ctx, "award.scan")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		monitoring.AwardScanDuration.Observe(time.Since(start).Seconds())
	}()

	wl, err := s.Detector.Detect(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detect failed")
		return nil, err
	}

	result := &ScanResult{UserID: userID}
	for _, rec := range wl.Awards {
		s.award(ctx, userID, rec.CourseID, result)
	}
	for _, rec := range wl.CertificateRepairs {
		s.repair(ctx, userID, rec.CourseID, result)
	}

	span.SetAttributes(
		attribute.Int("award.awarded", len(result.Awarded)),
		attribute.Int("award.repaired", len(result.Repaired)),
		attribute.Int("award.failed", len(result.Failed)),
	)

	if result.changed() {
		s.invalidate(ctx, userID)
	}
	if len(result.Awarded)+len(result.Repaired)+len(result.Failed) > 0 {
		logger.Log.Info("Award scan finished",
			zap.String("userId", userID),
			zap.Int("awarded", len(result.Awarded)),
			zap.Int("repaired", len(result.Repaired)),
			zap.Int("failed", len(result.Failed)),
			zap.Int("skipped", len(result.Skipped)),
		)
	}
	return result, nil
}

// course looks up the course to award. ok is false when it was skipped or
// failed; result is updated accordingly.
func (s *AwardService) course(ctx context.Context, courseID string, result *ScanResult) (*model.Course, bool) {
	course, err := s.CourseRepo.FindByID(ctx, courseID)
	switch {
	case errors.Is(err, util.ErrNotFound):
		logger.Log.Warn("Completed course no longer exists, skipping award", zap.String("courseId", courseID))
		result.Skipped = append(result.Skipped, courseID)
		return nil, false
	case err != nil:
		result.Failed = append(result.Failed, AwardOutcome{CourseID: courseID, Error: err.Error()})
		return nil, false
	}
	return course, true
}

func (s *AwardService) award(ctx context.Context, userID, courseID string, result *ScanResult) {
	course, ok := s.course(ctx, courseID, result)
	if !ok {
		return
	}
	outcome := AwardOutcome{CourseID: course.ID, CourseTitle: course.Title}

	badge := s.courseBadge(course)
	err := s.BadgeRepo.Create(ctx, userID, badge)
	switch {
	case errors.Is(err, util.ErrDuplicate):
		// another scan got there first and owns the certificate too
		monitoring.AwardsIssued.WithLabelValues("badge", "duplicate").Inc()
		result.Skipped = append(result.Skipped, courseID)
		return
	case err != nil:
		monitoring.AwardsIssued.WithLabelValues("badge", "failed").Inc()
		logger.Log.Error("Failed to create course badge",
			zap.String("userId", userID), zap.String("courseId", courseID), zap.Error(err))
		outcome.Error = err.Error()
		result.Failed = append(result.Failed, outcome)
		return
	}
	monitoring.AwardsIssued.WithLabelValues("badge", "created").Inc()
	outcome.Badge = badge

	s.notify(ctx, userID, Notification{
		Title:    "Achievement unlocked!",
		Message:  fmt.Sprintf("You earned the %s badge", badge.Name),
		CourseID: course.ID,
	})

	cert, err := s.issueCertificate(ctx, userID, course)
	if err != nil {
		outcome.Error = err.Error()
		result.Failed = append(result.Failed, outcome)
		return
	}
	outcome.Certificate = cert
	result.Awarded = append(result.Awarded, outcome)
}

func (s *AwardService) repair(ctx context.Context, userID, courseID string, result *ScanResult) {
	course, ok := s.course(ctx, courseID, result)
	if !ok {
		return
	}
	outcome := AwardOutcome{CourseID: course.ID, CourseTitle: course.Title}

	cert, err := s.issueCertificate(ctx, userID, course)
	if err != nil {
		outcome.Error = err.Error()
		result.Failed = append(result.Failed, outcome)
		return
	}
	outcome.Certificate = cert
	result.Repaired = append(result.Repaired, outcome)
}

// issueCertificate returns the stored certificate when another writer issued
// it first.
func (s *AwardService) issueCertificate(ctx context.Context, userID string, course *model.Course) (*model.Certificate, error) {
	cert := s.courseCertificate(userID, course)
	err := s.CertificateRepo.Create(ctx, cert)
	switch {
	case errors.Is(err, util.ErrDuplicate):
		monitoring.AwardsIssued.WithLabelValues("certificate", "duplicate").Inc()
		existing, err := s.CertificateRepo.FindByUserAndCourse(ctx, userID, course.ID)
		if err != nil {
			return nil, fmt.Errorf("load existing certificate: %w", err)
		}
		return existing, nil
	case err != nil:
		monitoring.AwardsIssued.WithLabelValues("certificate", "failed").Inc()
		logger.Log.Error("Failed to create certificate, will retry on next scan",
			zap.String("userId", userID), zap.String("courseId", course.ID), zap.Error(err))
		return nil, err
	}
	monitoring.AwardsIssued.WithLabelValues("certificate", "created").Inc()
	return cert, nil
}

func (s *AwardService) courseBadge(course *model.Course) *model.Badge {
	cfg := s.settings()
	return &model.Badge{
		Name:        course.Title + " Completion",
		Description: fmt.Sprintf("Completed the %s course", course.Title),
		ImageURL:    fmt.Sprintf(cfg.BadgeImageURL, url.QueryEscape(course.Title)),
		Tier:        model.TierGold,
		Category:    model.CategoryCourse,
		SourceType:  model.SourceCourse,
		SourceID:    course.ID,
		EarnedAt:    s.now(),
	}
}

func (s *AwardService) courseCertificate(userID string, course *model.Course) *model.Certificate {
	cfg := s.settings()
	return &model.Certificate{
		UserID:      userID,
		CourseID:    course.ID,
		Name:        course.Title,
		Description: fmt.Sprintf("Successfully completed %s with a score of 100%%", course.Title),
		EarnedDate:  s.now(),
		DownloadURL: fmt.Sprintf(cfg.CertificateURL, course.ID),
	}
}

func (s *AwardService) notify(ctx context.Context, userID string, n Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, userID, n); err != nil {
		logger.Log.Warn("Failed to deliver notification", zap.String("userId", userID), zap.Error(err))
	}
}

// invalidate tells clients that the achievements read model changed.
func (s *AwardService) invalidate(ctx context.Context, userID string) {
	if s.Publisher == nil {
		return
	}
	ev, err := realtime.NewEvent("user_badges", realtime.TypeInvalidate, userID, nil)
	if err == nil {
		err = s.Publisher.Publish(ctx, realtime.AchievementsChannel(userID), ev)
	}
	if err != nil {
		logger.Log.Warn("Failed to publish achievements invalidation", zap.String("userId", userID), zap.Error(err))
	}
}
