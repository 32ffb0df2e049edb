package service

import (
	"fmt"
	"learnboard_backend/internal/model"
	"time"
)

const (
	MaxStreakDays = 30
	WeeklyBuckets = 7
	week          = 7 * 24 * time.Hour
)

// Streak approximates the learning streak by the number of progress records,
// capped at 30. It does not look at access dates.
func Streak(records []model.ProgressRecord) int {
	return min(len(records), MaxStreakDays)
}

// ExperiencePoints is the sum of progress percentages.
func ExperiencePoints(records []model.ProgressRecord) int {
	total := 0
	for _, r := range records {
		total += r.ProgressPercentage
	}
	return total
}

func CompletedCount(records []model.ProgressRecord) int {
	n := 0
	for _, r := range records {
		if r.Completed {
			n++
		}
	}
	return n
}

// WeeklyProgress returns 7 cumulative buckets. Bucket i averages over all
// records, counting only those accessed within the last i+1 weeks, so later
// buckets are never smaller than earlier ones. Empty input gives all zeros.
func WeeklyProgress(records []model.ProgressRecord, now time.Time) []model.WeeklyBucket {
	buckets := make([]model.WeeklyBucket, WeeklyBuckets)
	for i := range buckets {
		buckets[i].Week = fmt.Sprintf("Week %d", i+1)
		if len(records) == 0 {
			continue
		}
		window := time.Duration(i+1) * week
		sum := 0
		for _, r := range records {
			if now.Sub(r.LastAccessedAt) <= window {
				sum += r.ProgressPercentage
			}
		}
		buckets[i].Progress = float64(sum) / float64(len(records))
	}
	return buckets
}
