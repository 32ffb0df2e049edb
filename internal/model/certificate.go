package model

import "time"

// Certificate is issued once per completed course, alongside the course badge.
type Certificate struct {
	UUIDBase
	UserID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_certificate_user_course,priority:1" json:"userId" validate:"required"`
	CourseID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_certificate_user_course,priority:2" json:"courseId" validate:"required"`
	Name        string    `gorm:"size:200;not null" json:"name" validate:"required"`
	Description string    `gorm:"type:text" json:"description"`
	EarnedDate  time.Time `gorm:"not null" json:"earnedDate"`
	DownloadURL string    `gorm:"size:255" json:"downloadUrl"`
}

func (Certificate) TableName() string {
	return "certificates"
}
