package model

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// ParseUserRole falls back to student for unknown roles.
func ParseUserRole(s string) UserRole {
	switch r := UserRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return r
	default:
		return RoleStudent
	}
}

// Session is the authenticated caller of a request.
type Session struct {
	UserID string
	Email  string
	Role   UserRole
}

// Profile is the public part of a user account.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string    `gorm:"size:100" json:"username"`
	FullName  string    `gorm:"size:200" json:"fullName"`
	AvatarURL string    `gorm:"size:255" json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Profile) TableName() string {
	return "profiles"
}
