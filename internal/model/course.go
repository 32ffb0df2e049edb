package model

// Course is a catalog entry. Courses are authored elsewhere and only read here.
type Course struct {
	UUIDBase
	Title        string `gorm:"size:200;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Field        string `gorm:"size:100" json:"field"`
	Level        string `gorm:"size:50" json:"level"`
	LessonsCount int    `gorm:"default:0" json:"lessonsCount"`
	ImageURL     string `gorm:"size:255" json:"imageUrl"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseDetail is a course together with the caller's state in it.
type CourseDetail struct {
	Course      *Course         `json:"course"`
	Progress    *ProgressRecord `json:"progress,omitempty"`
	Certificate *Certificate    `json:"certificate,omitempty"`
	Enrolled    bool            `json:"enrolled"`
}
