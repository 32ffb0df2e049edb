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

func TestDetectFindsCompletedCoursesWithoutBadge(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.putProgress("u1", "A", 100, now)
	f.putProgress("u1", "B", 60, now)
	f.putProgress("u2", "C", 100, now)

	d := NewCompletionDetector(f.progress, f.badges, f.certs)
	wl, err := d.Detect(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, wl.Awards, 1)
	assert.Equal(t, "A", wl.Awards[0].CourseID)
	assert.Empty(t, wl.CertificateRepairs)
}

func TestDetectSkipsAwardedAndFindsRepairs(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.putProgress("u1", "A", 100, now)
	f.putProgress("u1", "B", 100, now)

	ctx := context.Background()
	for _, course := range []string{"A", "B"} {
		require.NoError(t, f.badges.Create(ctx, "u1", &model.Badge{
			Name: course, Tier: model.TierGold, Category: model.CategoryCourse,
			SourceType: model.SourceCourse, SourceID: course, EarnedAt: now,
		}))
	}
	require.NoError(t, f.certs.Create(ctx, &model.Certificate{UserID: "u1", CourseID: "A", Name: "A", EarnedDate: now}))

	wl, err := NewCompletionDetector(f.progress, f.badges, f.certs).Detect(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, wl.Awards)
	require.Len(t, wl.CertificateRepairs, 1)
	assert.Equal(t, "B", wl.CertificateRepairs[0].CourseID)
	assert.False(t, wl.Empty())
}

func TestDetectStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	d := NewCompletionDetector(unavailableProgress{f.progress}, f.badges, f.certs)

	wl, err := d.Detect(context.Background(), "u1")
	assert.ErrorIs(t, err, util.ErrStoreUnavailable)
	assert.True(t, wl.Empty())
}
