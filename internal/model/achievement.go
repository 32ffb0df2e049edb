package model

// UserAchievements is the achievements read model. It is recomputed on every
// request from badges, certificates and progress and never stored.
type UserAchievements struct {
	Badges           []Badge       `json:"badges"`
	Certificates     []Certificate `json:"certificates"`
	CoursesCompleted int           `json:"coursesCompleted"`
	StreakDays       int           `json:"streakDays"`
	TotalPoints      int           `json:"totalPoints"`
	Contributions    int           `json:"contributions"`
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	BadgeCount int    `json:"badgeCount"`
	Points     int    `json:"points"`
}

type WeeklyBucket struct {
	Week     string  `json:"week"`
	Progress float64 `json:"progress"`
}

// DashboardSummary is the header block of the learner dashboard.
type DashboardSummary struct {
	Name           string   `json:"name"`
	Role           UserRole `json:"role"`
	LearningStreak int      `json:"learningStreak"`
	XPGained       int      `json:"xpGained"`
	GoalsCompleted int      `json:"goalsCompleted"`
	Achievements   int      `json:"achievements"`
}
