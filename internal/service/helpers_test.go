package service

import (
	"context"
	"errors"
	"learnboard_backend/internal/config"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/repository/memstore"
	"learnboard_backend/internal/util"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("connection reset")

func sessionCtx(userID string) context.Context {
	return util.WithSession(context.Background(), &model.Session{
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   model.RoleStudent,
	})
}

func testAwardConfig() config.AwardConfig {
	return config.AwardConfig{
		ScanOnView:     true,
		ScanTimeout:    5 * time.Second,
		CertificateURL: "/certificates/%s.pdf",
		BadgeImageURL:  "https://api.dicebear.com/6.x/shapes/svg?seed=%s",
	}
}

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	events   []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []Notification
	users []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// failingCertificates fails Create while fail is set.
type failingCertificates struct {
	CertificateStore
	mu   sync.Mutex
	fail bool
}

func (f *failingCertificates) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *failingCertificates) Create(ctx context.Context, cert *model.Certificate) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.Join(util.ErrStoreUnavailable, errBoom)
	}
	return f.CertificateStore.Create(ctx, cert)
}

// racingCertificates lets another writer issue the certificate just before
// each Create, so Create reports a duplicate.
type racingCertificates struct {
	CertificateStore
	issued []*model.Certificate
}

func (r *racingCertificates) Create(ctx context.Context, cert *model.Certificate) error {
	other := *cert
	other.ID = ""
	other.Description = "issued by another writer"
	if err := r.CertificateStore.Create(ctx, &other); err != nil {
		return err
	}
	r.issued = append(r.issued, &other)
	return r.CertificateStore.Create(ctx, cert)
}

// unavailableProgress fails every read.
type unavailableProgress struct {
	ProgressStore
}

func (unavailableProgress) ListByUser(context.Context, string) ([]model.ProgressRecord, error) {
	return nil, errors.Join(util.ErrStoreUnavailable, errBoom)
}

func (unavailableProgress) ListCompleted(context.Context, string) ([]model.ProgressRecord, error) {
	return nil, errors.Join(util.ErrStoreUnavailable, errBoom)
}

// countingStore counts ListByUser calls.
type countingProgress struct {
	ProgressStore
	mu    sync.Mutex
	calls int
}

func (c *countingProgress) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.ProgressStore.ListByUser(ctx, userID)
}

// staleProgress answers every lookup with a fixed snapshot, as a writer that
// read before another writer committed would see it.
type staleProgress struct {
	ProgressStore
	snapshot model.ProgressRecord
}

func (s *staleProgress) FindByUserAndCourse(context.Context, string, string) (*model.ProgressRecord, error) {
	rec := s.snapshot
	return &rec, nil
}

type fixture struct {
	db        *memstore.DB
	progress  *memstore.ProgressRepository
	badges    *memstore.BadgeRepository
	certs     *memstore.CertificateRepository
	courses   *memstore.CourseRepository
	profiles  *memstore.ProfileRepository
	community *memstore.CommunityRepository
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	return &fixture{
		db:        db,
		progress:  memstore.NewProgressRepository(db),
		badges:    memstore.NewBadgeRepository(db),
		certs:     memstore.NewCertificateRepository(db),
		courses:   memstore.NewCourseRepository(db),
		profiles:  memstore.NewProfileRepository(db),
		community: memstore.NewCommunityRepository(db),
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
	}
}

func (f *fixture) awardService(certs CertificateStore) *AwardService {
	if certs == nil {
		certs = f.certs
	}
	detector := NewCompletionDetector(f.progress, f.badges, certs)
	return NewAwardService(detector, f.courses, f.badges, certs, f.notifier, f.publisher, testAwardConfig())
}

func (f *fixture) putProgress(userID, courseID string, pct int, accessed time.Time) {
	f.db.PutProgressRow(model.CourseProgress{
		UserID:             userID,
		CourseID:           courseID,
		ProgressPercentage: pct,
		Completed:          pct == model.MaxProgress,
		LastAccessed:       accessed,
	})
}

func (f *fixture) putCourse(id, title string, lessons int) model.Course {
	return f.db.PutCourse(model.Course{
		UUIDBase:     model.UUIDBase{ID: id},
		Title:        title,
		LessonsCount: lessons,
	})
}
