package model

import "time"

// CourseProgress is the stored row for one (user, course) pair. It is created
// on enrollment at 0% and only ever replaced, never deleted.
type CourseProgress struct {
	UUIDBase
	UserID             string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_course,priority:1" validate:"required"`
	CourseID           string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_course,priority:2" validate:"required"`
	ProgressPercentage int       `gorm:"not null;default:0;index"`
	Completed          bool      `gorm:"not null;default:false"`
	LastAccessed       time.Time `gorm:"not null"`
	CurrentLessonIndex *int
	UpdatedAt          time.Time
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// ProgressRecord is the decoded, invariant-checked view of a CourseProgress row.
type ProgressRecord struct {
	UserID             string    `json:"userId"`
	CourseID           string    `json:"courseId"`
	ProgressPercentage int       `json:"progressPercentage"`
	Completed          bool      `json:"completed"`
	LastAccessedAt     time.Time `json:"lastAccessedAt"`
	CurrentLessonIndex int       `json:"currentLessonIndex"`
}

const MaxProgress = 100
