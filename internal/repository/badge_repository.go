package repository

import (
	"context"
	"learnboard_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) ListByUser(ctx context.Context, userID string) ([]model.Badge, error) {
	var rows []model.UserBadge
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list badges", err)
	}
	return DecodeBadgeRows(rows), nil
}

func (r *BadgeRepository) FindBySource(ctx context.Context, userID, sourceType, sourceID string) (*model.Badge, error) {
	var row model.UserBadge
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND source_type = ? AND source_id = ?", userID, sourceType, sourceID).
		First(&row).Error
	if err != nil {
		return nil, storeError("find badge", err)
	}
	b, ok := DecodeBadge(&row)
	if !ok {
		// The grant exists even if it is unreadable; report it so the
		// source is not awarded twice.
		b = model.Badge{ID: row.ID, SourceType: row.SourceType, SourceID: row.SourceID}
	}
	return &b, nil
}

// Create inserts a grant. The unique index on (user_id, source_type,
// source_id) turns a concurrent second grant into util.ErrDuplicate.
func (r *BadgeRepository) Create(ctx context.Context, userID string, b *model.Badge) error {
	row := EncodeBadge(userID, b)
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return storeError("create badge", err)
	}
	b.ID = row.ID
	return nil
}

func (r *BadgeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, storeError("count badges", err)
	}
	return int(count), nil
}
