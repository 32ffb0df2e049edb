package service

import (
	"context"
	"testing"
	"time"

	"learnboard_backend/internal/model"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListDiscussions(t *testing.T) {
	f := newFixture(t)
	f.db.PutProfile(model.Profile{ID: "u1", Username: "ada", AvatarURL: "https://img/ada.png"})
	svc := NewCommunityService(f.community, f.publisher)
	ctx := sessionCtx("u1")

	first, err := svc.CreateDiscussion(ctx, DiscussionRequest{Title: " First ", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "First", first.Title)
	time.Sleep(time.Millisecond)
	second, err := svc.CreateDiscussion(ctx, DiscussionRequest{Title: "Second", Content: "again"})
	require.NoError(t, err)
	f.db.PutReply(model.ForumReply{DiscussionID: first.ID, UserID: "u2", Content: "hi"})

	list, err := svc.ListDiscussions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "ada", list[1].AuthorUsername)
	assert.Equal(t, 1, list[1].ReplyCount)

	require.Equal(t, 2, f.publisher.count())
	assert.Equal(t, realtime.ChannelDiscussions, f.publisher.channels[0])
	assert.Equal(t, "forum_discussions", f.publisher.events[0].Table)
}

func TestCreateDiscussionRequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := NewCommunityService(f.community, f.publisher).CreateDiscussion(context.Background(), DiscussionRequest{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, util.ErrNotAuthenticated)
	assert.Zero(t, f.publisher.count())
}

func TestUpcomingEvents(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.db.PutEvent(model.Event{Title: "later", StartDate: now.Add(48 * time.Hour)})
	f.db.PutEvent(model.Event{Title: "past", StartDate: now.Add(-time.Hour)})
	f.db.PutEvent(model.Event{Title: "soon", StartDate: now.Add(time.Hour)})

	svc := NewCommunityService(f.community, f.publisher)
	svc.now = func() time.Time { return now }

	events, err := svc.ListUpcomingEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "soon", events[0].Title)
	assert.Equal(t, "later", events[1].Title)
}

func TestJoinEvent(t *testing.T) {
	f := newFixture(t)
	ev := f.db.PutEvent(model.Event{Title: "meetup", StartDate: time.Now().Add(time.Hour)})
	svc := NewCommunityService(f.community, f.publisher)
	ctx := sessionCtx("u1")

	p, err := svc.JoinEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, realtime.ChannelEvents, f.publisher.channels[0])

	_, err = svc.JoinEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyRegistered)

	_, err = svc.JoinEvent(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrEventNotFound)
}
