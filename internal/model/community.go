package model

import "time"

type ForumDiscussion struct {
	UUIDBase
	UserID  string `gorm:"type:varchar(36);not null;index" json:"userId"`
	Title   string `gorm:"size:200;not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`
}

func (ForumDiscussion) TableName() string {
	return "forum_discussions"
}

type ForumReply struct {
	UUIDBase
	DiscussionID string `gorm:"type:varchar(36);not null;index" json:"discussionId"`
	UserID       string `gorm:"type:varchar(36);not null" json:"userId"`
	Content      string `gorm:"type:text" json:"content"`
}

func (ForumReply) TableName() string {
	return "forum_replies"
}

// DiscussionSummary is a discussion with its author and reply count.
type DiscussionSummary struct {
	ForumDiscussion
	AuthorUsername  string `json:"authorUsername"`
	AuthorAvatarURL string `json:"authorAvatarUrl"`
	ReplyCount      int    `json:"replyCount"`
}

type Event struct {
	UUIDBase
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:200" json:"location"`
	StartDate   time.Time `gorm:"not null;index" json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

func (Event) TableName() string {
	return "events"
}

type EventParticipant struct {
	UUIDBase
	EventID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_event_participant,priority:1" json:"eventId"`
	UserID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_event_participant,priority:2" json:"userId"`
}

func (EventParticipant) TableName() string {
	return "event_participants"
}
