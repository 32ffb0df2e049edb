package repository

import (
	"database/sql"
	"learnboard_backend/internal/model"
	"learnboard_backend/pkg/logger"
	"learnboard_backend/pkg/monitoring"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Rows come from a store without a compile-time schema, so every row passes
// through a decode step before it reaches the services. Rows missing required
// fields are dropped; out-of-range values are replaced with safe defaults.
// Neither case is reported to the caller.

var rowValidator = validator.New()

func anomaly(entity, field, id string, value interface{}) {
	monitoring.DecodeAnomalies.WithLabelValues(entity, field).Inc()
	logger.Log.Warn("decode anomaly, substituted default",
		zap.String("entity", entity),
		zap.String("field", field),
		zap.String("id", id),
		zap.Any("value", value),
	)
}

func validRow(entity, id string, row interface{}) bool {
	if err := rowValidator.Struct(row); err != nil {
		monitoring.DecodeAnomalies.WithLabelValues(entity, "required").Inc()
		logger.Log.Warn("decode anomaly, row dropped",
			zap.String("entity", entity),
			zap.String("id", id),
			zap.Error(err),
		)
		return false
	}
	return true
}

// DecodeProgress converts a stored row, clamping the percentage into 0..100
// and deriving Completed from it.
func DecodeProgress(row *model.CourseProgress) (model.ProgressRecord, bool) {
	if !validRow("course_progress", row.ID, row) {
		return model.ProgressRecord{}, false
	}

	pct := row.ProgressPercentage
	if pct < 0 || pct > model.MaxProgress {
		anomaly("course_progress", "progress_percentage", row.ID, pct)
		pct = min(max(pct, 0), model.MaxProgress)
	}
	completed := pct == model.MaxProgress
	if completed != row.Completed {
		anomaly("course_progress", "completed", row.ID, row.Completed)
	}

	lesson := 0
	if row.CurrentLessonIndex != nil {
		lesson = *row.CurrentLessonIndex
		if lesson < 0 {
			anomaly("course_progress", "current_lesson_index", row.ID, lesson)
			lesson = 0
		}
	}

	return model.ProgressRecord{
		UserID:             row.UserID,
		CourseID:           row.CourseID,
		ProgressPercentage: pct,
		Completed:          completed,
		LastAccessedAt:     row.LastAccessed,
		CurrentLessonIndex: lesson,
	}, true
}

// EncodeProgress builds the row written by an upsert.
func EncodeProgress(rec *model.ProgressRecord) *model.CourseProgress {
	lesson := rec.CurrentLessonIndex
	return &model.CourseProgress{
		UserID:             rec.UserID,
		CourseID:           rec.CourseID,
		ProgressPercentage: rec.ProgressPercentage,
		Completed:          rec.ProgressPercentage == model.MaxProgress,
		LastAccessed:       rec.LastAccessedAt,
		CurrentLessonIndex: &lesson,
	}
}

func DecodeProgressRows(rows []model.CourseProgress) []model.ProgressRecord {
	records := make([]model.ProgressRecord, 0, len(rows))
	for i := range rows {
		if rec, ok := DecodeProgress(&rows[i]); ok {
			records = append(records, rec)
		}
	}
	return records
}

// DecodeBadge normalises tier and category; unknown values become bronze and
// achievement.
func DecodeBadge(row *model.UserBadge) (model.Badge, bool) {
	if !validRow("user_badges", row.ID, row) {
		return model.Badge{}, false
	}

	tier, ok := model.NormalizeTier(row.Tier)
	if !ok {
		anomaly("user_badges", "tier", row.ID, row.Tier)
	}
	category, ok := model.NormalizeCategory(row.Category)
	if !ok {
		anomaly("user_badges", "category", row.ID, row.Category)
	}

	return model.Badge{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ImageURL:    row.ImageURL,
		Tier:        tier,
		Category:    category,
		SourceType:  row.SourceType,
		SourceID:    row.SourceID,
		EarnedAt:    row.EarnedAt,
	}, true
}

func EncodeBadge(userID string, b *model.Badge) *model.UserBadge {
	return &model.UserBadge{
		UUIDBase:    model.UUIDBase{ID: b.ID},
		UserID:      userID,
		Name:        b.Name,
		Description: b.Description,
		ImageURL:    b.ImageURL,
		Tier:        string(b.Tier),
		Category:    string(b.Category),
		SourceType:  b.SourceType,
		SourceID:    b.SourceID,
		EarnedAt:    b.EarnedAt,
	}
}

func DecodeBadgeRows(rows []model.UserBadge) []model.Badge {
	badges := make([]model.Badge, 0, len(rows))
	for i := range rows {
		if b, ok := DecodeBadge(&rows[i]); ok {
			badges = append(badges, b)
		}
	}
	return badges
}

func DecodeCertificateRows(rows []model.Certificate) []model.Certificate {
	certs := make([]model.Certificate, 0, len(rows))
	for i := range rows {
		if validRow("certificates", rows[i].ID, &rows[i]) {
			certs = append(certs, rows[i])
		}
	}
	return certs
}

// LeaderboardRow is one profile with its store-side aggregates. Aggregates are
// NULL when the profile has no badges or progress rows.
type LeaderboardRow struct {
	ID         string
	Username   sql.NullString
	BadgeCount sql.NullInt64
	Points     sql.NullInt64
}

func DecodeLeaderboardRow(row LeaderboardRow) model.LeaderboardEntry {
	entry := model.LeaderboardEntry{
		UserID:     row.ID,
		Username:   "Anonymous",
		BadgeCount: int(row.BadgeCount.Int64),
		Points:     int(row.Points.Int64),
	}
	if row.Username.Valid && row.Username.String != "" {
		entry.Username = row.Username.String
	}
	return entry
}

func DecodeLeaderboardRows(rows []LeaderboardRow) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = DecodeLeaderboardRow(row)
		entries[i].Rank = i + 1
	}
	return entries
}
