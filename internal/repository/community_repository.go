package repository

import (
	"context"
	"learnboard_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository {
	return &CommunityRepository{DB: db}
}

// ListDiscussions returns discussions newest first with author and reply count.
func (r *CommunityRepository) ListDiscussions(ctx context.Context) ([]model.DiscussionSummary, error) {
	var rows []model.DiscussionSummary
	err := r.DB.WithContext(ctx).
		Table("forum_discussions AS d").
		Select(`d.*,
			COALESCE(p.username, '') AS author_username,
			COALESCE(p.avatar_url, '') AS author_avatar_url,
			(SELECT COUNT(*) FROM forum_replies fr WHERE fr.discussion_id = d.id) AS reply_count`).
		Joins("LEFT JOIN profiles p ON p.id = d.user_id").
		Order("d.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("list discussions", err)
	}
	return rows, nil
}

func (r *CommunityRepository) CreateDiscussion(ctx context.Context, d *model.ForumDiscussion) error {
	return storeError("create discussion", r.DB.WithContext(ctx).Create(d).Error)
}

func (r *CommunityRepository) ListUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.DB.WithContext(ctx).
		Where("start_date >= ?", from).
		Order("start_date").
		Find(&events).Error
	if err != nil {
		return nil, storeError("list events", err)
	}
	return events, nil
}

func (r *CommunityRepository) FindEvent(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, storeError("find event", err)
	}
	return &event, nil
}

func (r *CommunityRepository) AddParticipant(ctx context.Context, p *model.EventParticipant) error {
	return storeError("join event", r.DB.WithContext(ctx).Create(p).Error)
}
