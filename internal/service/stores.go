package service

import (
	"context"
	"learnboard_backend/internal/model"
	"time"
)

// Store interfaces are satisfied by both the gorm repositories and the
// in-memory store.

type ProgressStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error)
	ListCompleted(ctx context.Context, userID string) ([]model.ProgressRecord, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.ProgressRecord, error)
	// Upsert returns the stored record, which may carry a higher percentage
	// than rec.
	Upsert(ctx context.Context, rec *model.ProgressRecord) (*model.ProgressRecord, error)
}

type BadgeStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Badge, error)
	FindBySource(ctx context.Context, userID, sourceType, sourceID string) (*model.Badge, error)
	Create(ctx context.Context, userID string, b *model.Badge) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type CertificateStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Certificate, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Certificate, error)
	Create(ctx context.Context, cert *model.Certificate) error
}

type CourseStore interface {
	List(ctx context.Context) ([]model.Course, error)
	FindByID(ctx context.Context, id string) (*model.Course, error)
}

type ProfileStore interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type CommunityStore interface {
	ListDiscussions(ctx context.Context) ([]model.DiscussionSummary, error)
	CreateDiscussion(ctx context.Context, d *model.ForumDiscussion) error
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error)
	FindEvent(ctx context.Context, id string) (*model.Event, error)
	AddParticipant(ctx context.Context, p *model.EventParticipant) error
}
