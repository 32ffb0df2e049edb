package service

import (
	"context"
	"errors"
	"learnboard_backend/internal/model"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/util"
	"learnboard_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
)

type CommunityService struct {
	CommunityRepo CommunityStore
	Publisher     realtime.Publisher
	now           func() time.Time
}

type DiscussionRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
}

func NewCommunityService(communityRepo CommunityStore, publisher realtime.Publisher) *CommunityService {
	return &CommunityService{
		CommunityRepo: communityRepo,
		Publisher:     publisher,
		now:           time.Now,
	}
}

// ListDiscussions returns discussions newest first.
func (s *CommunityService) ListDiscussions(ctx context.Context) ([]model.DiscussionSummary, error) {
	discussions, err := s.CommunityRepo.ListDiscussions(ctx)
	if err != nil {
		return nil, err
	}
	if discussions == nil {
		discussions = []model.DiscussionSummary{}
	}
	return discussions, nil
}

func (s *CommunityService) CreateDiscussion(ctx context.Context, req DiscussionRequest) (*model.ForumDiscussion, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	d := &model.ForumDiscussion{
		UserID:  session.UserID,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
	}
	if err := s.CommunityRepo.CreateDiscussion(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.ChannelDiscussions, d.TableName(), d)
	return d, nil
}

// ListUpcomingEvents returns events that have not started yet, soonest first.
func (s *CommunityService) ListUpcomingEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.CommunityRepo.ListUpcomingEvents(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

func (s *CommunityService) JoinEvent(ctx context.Context, eventID string) (*model.EventParticipant, error) {
	session, err := util.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.CommunityRepo.FindEvent(ctx, eventID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrEventNotFound
		}
		return nil, err
	}

	p := &model.EventParticipant{EventID: eventID, UserID: session.UserID}
	if err := s.CommunityRepo.AddParticipant(ctx, p); err != nil {
		if errors.Is(err, util.ErrDuplicate) {
			return nil, util.ErrAlreadyRegistered
		}
		return nil, err
	}
	s.publish(ctx, realtime.ChannelEvents, p.TableName(), p)
	return p, nil
}

func (s *CommunityService) publish(ctx context.Context, channel, table string, record interface{}) {
	if s.Publisher == nil {
		return
	}
	ev, err := realtime.NewEvent(table, realtime.TypeInsert, "", record)
	if err == nil {
		err = s.Publisher.Publish(ctx, channel, ev)
	}
	if err != nil {
		logger.Log.Warn("Failed to publish change event", zap.String("channel", channel), zap.Error(err))
	}
}
