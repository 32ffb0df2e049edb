package repository

import (
	"context"
	"learnboard_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	var rows []model.CourseProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list progress", err)
	}
	return DecodeProgressRows(rows), nil
}

// ListCompleted returns the user's rows at or above 100%.
func (r *ProgressRepository) ListCompleted(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	var rows []model.CourseProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND progress_percentage >= ?", userID, model.MaxProgress).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list completed progress", err)
	}
	return DecodeProgressRows(rows), nil
}

func (r *ProgressRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.ProgressRecord, error) {
	var row model.CourseProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&row).Error
	if err != nil {
		return nil, storeError("find progress", err)
	}
	rec, ok := DecodeProgress(&row)
	if !ok {
		return nil, storeError("find progress", gorm.ErrRecordNotFound)
	}
	return &rec, nil
}

// Upsert creates or updates the row keyed by (user_id, course_id) and returns
// the stored row. The stored percentage is the greater of the stored and the
// written one, decided inside the statement so concurrent writers cannot
// lower it.
func (r *ProgressRepository) Upsert(ctx context.Context, rec *model.ProgressRecord) (*model.ProgressRecord, error) {
	row := EncodeProgress(rec)
	var stored model.CourseProgress
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(progressUpsert(tx.Dialector.Name())).Create(row).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND course_id = ?", row.UserID, row.CourseID).First(&stored).Error
	})
	if err != nil {
		return nil, storeError("upsert progress", err)
	}
	out, ok := DecodeProgress(&stored)
	if !ok {
		return nil, storeError("upsert progress", gorm.ErrRecordNotFound)
	}
	return &out, nil
}

// progressUpsert builds the conflict clause for dialect. completed comes first:
// mysql applies assignments left to right, so it must still see the old
// percentage.
func progressUpsert(dialect string) clause.OnConflict {
	greatest := "GREATEST(course_progress.progress_percentage, EXCLUDED.progress_percentage)"
	if dialect == "mysql" {
		greatest = "GREATEST(progress_percentage, VALUES(progress_percentage))"
	}
	set := clause.Set{
		{Column: clause.Column{Name: "completed"}, Value: gorm.Expr(greatest+" >= ?", model.MaxProgress)},
		{Column: clause.Column{Name: "progress_percentage"}, Value: gorm.Expr(greatest)},
	}
	set = append(set, clause.AssignmentColumns([]string{
		"last_accessed",
		"current_lesson_index",
		"updated_at",
	})...)
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: set,
	}
}
