package model

import (
	"strings"
	"time"
)

type BadgeTier string

const (
	TierBronze BadgeTier = "bronze"
	TierSilver BadgeTier = "silver"
	TierGold   BadgeTier = "gold"
)

type BadgeCategory string

const (
	CategoryCourse      BadgeCategory = "course"
	CategoryAchievement BadgeCategory = "achievement"
	CategoryStreak      BadgeCategory = "streak"
	CategoryMilestone   BadgeCategory = "milestone"
)

// SourceCourse is the source type of badges granted for completing a course.
const SourceCourse = "course"

// NormalizeTier maps a stored tier onto the enum. ok is false when the value
// was outside it and the bronze default was substituted.
func NormalizeTier(s string) (tier BadgeTier, ok bool) {
	switch t := BadgeTier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierBronze, TierSilver, TierGold:
		return t, true
	default:
		return TierBronze, false
	}
}

// NormalizeCategory is NormalizeTier for categories, defaulting to achievement.
func NormalizeCategory(s string) (category BadgeCategory, ok bool) {
	switch c := BadgeCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryCourse, CategoryAchievement, CategoryStreak, CategoryMilestone:
		return c, true
	default:
		return CategoryAchievement, false
	}
}

// UserBadge is a granted badge row. The badge definition is stored alongside
// the grant; (user, source type, source id) is unique so a source can award
// at most one badge per user.
type UserBadge struct {
	UUIDBase
	UserID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge_source,priority:1" validate:"required"`
	Name        string    `gorm:"size:200;not null" validate:"required"`
	Description string    `gorm:"type:text"`
	ImageURL    string    `gorm:"size:255"`
	Tier        string    `gorm:"size:20;not null"`
	Category    string    `gorm:"size:20;not null"`
	SourceType  string    `gorm:"size:50;not null;uniqueIndex:idx_user_badge_source,priority:2"`
	SourceID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge_source,priority:3"`
	EarnedAt    time.Time `gorm:"not null"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

// Badge is the decoded presentation form of a UserBadge.
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ImageURL    string        `json:"imageUrl"`
	Tier        BadgeTier     `json:"tier"`
	Category    BadgeCategory `json:"category"`
	SourceType  string        `json:"sourceType"`
	SourceID    string        `json:"sourceId"`
	EarnedAt    time.Time     `json:"earnedAt"`
}
