package app

import (
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/repository/memstore"
	"time"
)

// seedCatalog fills the in-memory store with a small catalog so the memory
// driver is usable without a database.
func seedCatalog(db *memstore.DB) {
	courses := []model.Course{
		{Title: "Intro to Biology", Field: "Science", Level: "Beginner", LessonsCount: 8,
			Description: "Cells, genetics and ecosystems."},
		{Title: "Linear Algebra", Field: "Mathematics", Level: "Intermediate", LessonsCount: 12,
			Description: "Vectors, matrices and linear maps."},
		{Title: "Web Development Basics", Field: "Computer Science", Level: "Beginner", LessonsCount: 10,
			Description: "HTML, CSS and a little JavaScript."},
	}
	for _, c := range courses {
		db.PutCourse(c)
	}

	now := time.Now()
	db.PutEvent(model.Event{
		Title:     "Study Group: Biology",
		Location:  "Online",
		StartDate: now.Add(72 * time.Hour),
		EndDate:   now.Add(74 * time.Hour),
	})
}
