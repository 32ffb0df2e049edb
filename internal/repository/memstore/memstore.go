// Package memstore is a process-local implementation of the repositories.
// It enforces the same unique keys as the SQL schema and decodes rows through
// the same boundary as the gorm repositories. It backs the "memory" database
// driver and the service tests.
package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/repository"
	"learnboard_backend/internal/util"
	"sort"
	"sync"
	"time"
)

type DB struct {
	mu           sync.RWMutex
	progress     []model.CourseProgress
	badges       []model.UserBadge
	certificates []model.Certificate
	courses      []model.Course
	profiles     []model.Profile
	discussions  []model.ForumDiscussion
	replies      []model.ForumReply
	events       []model.Event
	participants []model.EventParticipant
}

func New() *DB {
	return &DB{}
}

func stamp(b *model.UUIDBase) {
	if b.ID == "" {
		b.ID = model.GenerateUUID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
}

func done(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", util.ErrStoreUnavailable, err)
	}
	return nil
}

// Seed helpers insert raw rows without validation.

func (db *DB) PutCourse(c model.Course) model.Course {
	db.mu.Lock()
	defer db.mu.Unlock()
	stamp(&c.UUIDBase)
	db.courses = append(db.courses, c)
	return c
}

func (db *DB) PutProfile(p model.Profile) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	db.profiles = append(db.profiles, p)
}

func (db *DB) PutProgressRow(row model.CourseProgress) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stamp(&row.UUIDBase)
	db.progress = append(db.progress, row)
}

func (db *DB) PutBadgeRow(row model.UserBadge) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stamp(&row.UUIDBase)
	db.badges = append(db.badges, row)
}

func (db *DB) PutEvent(e model.Event) model.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	stamp(&e.UUIDBase)
	db.events = append(db.events, e)
	return e
}

func (db *DB) PutReply(r model.ForumReply) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stamp(&r.UUIDBase)
	db.replies = append(db.replies, r)
}

// ProgressRepository

type ProgressRepository struct{ db *DB }

func NewProgressRepository(db *DB) *ProgressRepository { return &ProgressRepository{db: db} }

func (r *ProgressRepository) filter(userID string, keep func(*model.CourseProgress) bool) []model.CourseProgress {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var rows []model.CourseProgress
	for _, row := range r.db.progress {
		if row.UserID == userID && keep(&row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	rows := r.filter(userID, func(*model.CourseProgress) bool { return true })
	return repository.DecodeProgressRows(rows), nil
}

func (r *ProgressRepository) ListCompleted(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	rows := r.filter(userID, func(row *model.CourseProgress) bool {
		return row.ProgressPercentage >= model.MaxProgress
	})
	return repository.DecodeProgressRows(rows), nil
}

func (r *ProgressRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.ProgressRecord, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	rows := r.filter(userID, func(row *model.CourseProgress) bool { return row.CourseID == courseID })
	if len(rows) == 0 {
		return nil, util.ErrNotFound
	}
	rec, ok := repository.DecodeProgress(&rows[0])
	if !ok {
		return nil, util.ErrNotFound
	}
	return &rec, nil
}

func (r *ProgressRepository) Upsert(ctx context.Context, rec *model.ProgressRecord) (*model.ProgressRecord, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	row := repository.EncodeProgress(rec)

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	row.UpdatedAt = time.Now()
	for i := range r.db.progress {
		existing := &r.db.progress[i]
		if existing.UserID == row.UserID && existing.CourseID == row.CourseID {
			row.UUIDBase = existing.UUIDBase
			// 进度只增不减
			if existing.ProgressPercentage > row.ProgressPercentage {
				row.ProgressPercentage = existing.ProgressPercentage
				row.Completed = row.ProgressPercentage >= model.MaxProgress
			}
			*existing = *row
			return decodeStored(existing)
		}
	}
	stamp(&row.UUIDBase)
	r.db.progress = append(r.db.progress, *row)
	return decodeStored(row)
}

func decodeStored(row *model.CourseProgress) (*model.ProgressRecord, error) {
	out, ok := repository.DecodeProgress(row)
	if !ok {
		return nil, fmt.Errorf("upsert progress: %w", util.ErrNotFound)
	}
	return &out, nil
}

// BadgeRepository

type BadgeRepository struct{ db *DB }

func NewBadgeRepository(db *DB) *BadgeRepository { return &BadgeRepository{db: db} }

func (r *BadgeRepository) ListByUser(ctx context.Context, userID string) ([]model.Badge, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	var rows []model.UserBadge
	for _, row := range r.db.badges {
		if row.UserID == userID {
			rows = append(rows, row)
		}
	}
	r.db.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].EarnedAt.Before(rows[j].EarnedAt) })
	return repository.DecodeBadgeRows(rows), nil
}

func (r *BadgeRepository) FindBySource(ctx context.Context, userID, sourceType, sourceID string) (*model.Badge, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, row := range r.db.badges {
		if row.UserID == userID && row.SourceType == sourceType && row.SourceID == sourceID {
			b, ok := repository.DecodeBadge(&row)
			if !ok {
				b = model.Badge{ID: row.ID, SourceType: row.SourceType, SourceID: row.SourceID}
			}
			return &b, nil
		}
	}
	return nil, util.ErrNotFound
}

func (r *BadgeRepository) Create(ctx context.Context, userID string, b *model.Badge) error {
	if err := done(ctx); err != nil {
		return err
	}
	row := repository.EncodeBadge(userID, b)

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.badges {
		if existing.UserID == row.UserID && existing.SourceType == row.SourceType && existing.SourceID == row.SourceID {
			return fmt.Errorf("create badge: %w", util.ErrDuplicate)
		}
	}
	stamp(&row.UUIDBase)
	r.db.badges = append(r.db.badges, *row)
	b.ID = row.ID
	return nil
}

func (r *BadgeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := done(ctx); err != nil {
		return 0, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	n := 0
	for _, row := range r.db.badges {
		if row.UserID == userID {
			n++
		}
	}
	return n, nil
}

// CertificateRepository

type CertificateRepository struct{ db *DB }

func NewCertificateRepository(db *DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]model.Certificate, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	var rows []model.Certificate
	for _, row := range r.db.certificates {
		if row.UserID == userID {
			rows = append(rows, row)
		}
	}
	r.db.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].EarnedDate.Before(rows[j].EarnedDate) })
	return repository.DecodeCertificateRows(rows), nil
}

func (r *CertificateRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, row := range r.db.certificates {
		if row.UserID == userID && row.CourseID == courseID {
			cert := row
			return &cert, nil
		}
	}
	return nil, util.ErrNotFound
}

func (r *CertificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	if err := done(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.certificates {
		if existing.UserID == cert.UserID && existing.CourseID == cert.CourseID {
			return fmt.Errorf("create certificate: %w", util.ErrDuplicate)
		}
	}
	stamp(&cert.UUIDBase)
	r.db.certificates = append(r.db.certificates, *cert)
	return nil
}

// CourseRepository

type CourseRepository struct{ db *DB }

func NewCourseRepository(db *DB) *CourseRepository { return &CourseRepository{db: db} }

func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	courses := append([]model.Course(nil), r.db.courses...)
	r.db.mu.RUnlock()

	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses, nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, c := range r.db.courses {
		if c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, util.ErrNotFound
}

// ProfileRepository

type ProfileRepository struct{ db *DB }

func NewProfileRepository(db *DB) *ProfileRepository { return &ProfileRepository{db: db} }

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.profiles {
		if p.ID == id {
			profile := p
			return &profile, nil
		}
	}
	return nil, util.ErrNotFound
}

func (r *ProfileRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []repository.LeaderboardRow
	for _, p := range r.db.profiles {
		if len(rows) == limit {
			break
		}
		row := repository.LeaderboardRow{
			ID:       p.ID,
			Username: sql.NullString{String: p.Username, Valid: p.Username != ""},
		}
		var badges, points int64
		for _, b := range r.db.badges {
			if b.UserID == p.ID {
				badges++
			}
		}
		row.BadgeCount = sql.NullInt64{Int64: badges, Valid: true}
		hasProgress := false
		for _, cp := range r.db.progress {
			if cp.UserID == p.ID {
				points += int64(cp.ProgressPercentage)
				hasProgress = true
			}
		}
		row.Points = sql.NullInt64{Int64: points, Valid: hasProgress}
		rows = append(rows, row)
	}
	return repository.DecodeLeaderboardRows(rows), nil
}

// CommunityRepository

type CommunityRepository struct{ db *DB }

func NewCommunityRepository(db *DB) *CommunityRepository { return &CommunityRepository{db: db} }

func (r *CommunityRepository) ListDiscussions(ctx context.Context) ([]model.DiscussionSummary, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	summaries := make([]model.DiscussionSummary, 0, len(r.db.discussions))
	for _, d := range r.db.discussions {
		s := model.DiscussionSummary{ForumDiscussion: d}
		for _, p := range r.db.profiles {
			if p.ID == d.UserID {
				s.AuthorUsername = p.Username
				s.AuthorAvatarURL = p.AvatarURL
				break
			}
		}
		for _, reply := range r.db.replies {
			if reply.DiscussionID == d.ID {
				s.ReplyCount++
			}
		}
		summaries = append(summaries, s)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (r *CommunityRepository) CreateDiscussion(ctx context.Context, d *model.ForumDiscussion) error {
	if err := done(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stamp(&d.UUIDBase)
	r.db.discussions = append(r.db.discussions, *d)
	return nil
}

func (r *CommunityRepository) ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	var events []model.Event
	for _, e := range r.db.events {
		if !e.StartDate.Before(from) {
			events = append(events, e)
		}
	}
	r.db.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
	return events, nil
}

func (r *CommunityRepository) FindEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := done(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, e := range r.db.events {
		if e.ID == id {
			event := e
			return &event, nil
		}
	}
	return nil, util.ErrNotFound
}

func (r *CommunityRepository) AddParticipant(ctx context.Context, p *model.EventParticipant) error {
	if err := done(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.participants {
		if existing.EventID == p.EventID && existing.UserID == p.UserID {
			return fmt.Errorf("join event: %w", util.ErrDuplicate)
		}
	}
	stamp(&p.UUIDBase)
	r.db.participants = append(r.db.participants, *p)
	return nil
}
