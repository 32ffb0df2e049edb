package service

import (
	"context"
	"testing"
	"time"

	"learnboard_backend/internal/model"
	"learnboard_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertProgressCreatesAndReplaces(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.progress)
	ctx := sessionCtx("u1")

	rec, err := svc.UpsertProgress(ctx, "c1", 40, nil)
	require.NoError(t, err)
	assert.False(t, rec.Completed)

	lesson := 9
	rec, err = svc.UpsertProgress(ctx, "c1", 100, &lesson)
	require.NoError(t, err)
	assert.True(t, rec.Completed)

	all, err := svc.GetProgress(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 100, all[0].ProgressPercentage)
	assert.True(t, all[0].Completed)
	assert.Equal(t, 9, all[0].CurrentLessonIndex)
}

func TestUpsertProgressStaleWriterCannotUncomplete(t *testing.T) {
	f := newFixture(t)
	f.putProgress("u1", "c1", 20, time.Now())
	stale := &staleProgress{
		ProgressStore: f.progress,
		snapshot:      model.ProgressRecord{UserID: "u1", CourseID: "c1", ProgressPercentage: 20},
	}
	svc := NewProgressService(stale)
	ctx := sessionCtx("u1")

	// both writers read 20%; the 100% write lands first
	rec, err := svc.UpsertProgress(ctx, "c1", 100, nil)
	require.NoError(t, err)
	assert.True(t, rec.Completed)

	rec, err = svc.UpsertProgress(ctx, "c1", 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.ProgressPercentage)
	assert.True(t, rec.Completed)

	stored, err := f.progress.FindByUserAndCourse(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.ProgressPercentage)
	assert.True(t, stored.Completed)
}

func TestUpsertProgressNeverDecreases(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.progress)
	ctx := sessionCtx("u1")

	_, err := svc.UpsertProgress(ctx, "c1", 70, nil)
	require.NoError(t, err)
	rec, err := svc.UpsertProgress(ctx, "c1", 30, nil)
	require.NoError(t, err)
	assert.Equal(t, 70, rec.ProgressPercentage)

	stored, err := svc.GetCourseProgress(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 70, stored.ProgressPercentage)
}

func TestUpsertProgressValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.progress)
	ctx := sessionCtx("u1")

	_, err := svc.UpsertProgress(ctx, "c1", 101, nil)
	assert.ErrorIs(t, err, util.ErrInvalidProgress)
	_, err = svc.UpsertProgress(ctx, "c1", -1, nil)
	assert.ErrorIs(t, err, util.ErrInvalidProgress)
	bad := -2
	_, err = svc.UpsertProgress(ctx, "c1", 10, &bad)
	assert.ErrorIs(t, err, util.ErrInvalidLesson)
}

func TestProgressRequiresSessionBeforeStore(t *testing.T) {
	f := newFixture(t)
	counting := &countingProgress{ProgressStore: f.progress}
	svc := NewProgressService(counting)

	_, err := svc.GetProgress(context.Background())
	assert.ErrorIs(t, err, util.ErrNotAuthenticated)
	_, err = svc.UpsertProgress(context.Background(), "c1", 10, nil)
	assert.ErrorIs(t, err, util.ErrNotAuthenticated)
	assert.Zero(t, counting.calls)
}

func TestGetCourseProgressNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := NewProgressService(f.progress).GetCourseProgress(sessionCtx("u1"), "nope")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestEnrollIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.progress)
	ctx := sessionCtx("u1")

	rec, err := svc.Enroll(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, rec.ProgressPercentage)

	_, err = svc.UpsertProgress(ctx, "c1", 50, nil)
	require.NoError(t, err)
	rec, err = svc.Enroll(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 50, rec.ProgressPercentage)
}

func TestOnCompletedFiresOnce(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.progress)
	var fired []string
	svc.OnCompleted = func(userID, courseID string) {
		fired = append(fired, userID+"/"+courseID)
	}
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := sessionCtx("u1")

	_, err := svc.UpsertProgress(ctx, "c1", 90, nil)
	require.NoError(t, err)
	_, err = svc.UpsertProgress(ctx, "c1", 100, nil)
	require.NoError(t, err)
	_, err = svc.UpsertProgress(ctx, "c1", 100, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"u1/c1"}, fired)
}
