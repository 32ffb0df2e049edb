package repository

import (
	"context"
	"learnboard_backend/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, storeError("find profile", err)
	}
	return &profile, nil
}

// Leaderboard reads profiles with their badge count and summed progress.
// Rows keep the store's default order; nothing is re-sorted here.
func (r *ProfileRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var rows []LeaderboardRow
	err := r.DB.WithContext(ctx).
		Table("profiles AS p").
		Select(`p.id AS id,
			p.username AS username,
			(SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = p.id) AS badge_count,
			(SELECT SUM(cp.progress_percentage) FROM course_progress cp WHERE cp.user_id = p.id) AS points`).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("leaderboard", err)
	}
	return DecodeLeaderboardRows(rows), nil
}
