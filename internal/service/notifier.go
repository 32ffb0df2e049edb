package service

import (
	"context"
	"errors"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/pkg/logger"

	"go.uber.org/zap"
)

// Notification is a user-facing message, shown by the client as a toast.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	CourseID string `json:"courseId,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification) error
}

// PublishNotifier delivers notifications on the user's realtime channel.
type PublishNotifier struct {
	Publisher realtime.Publisher
}

func NewPublishNotifier(p realtime.Publisher) *PublishNotifier {
	return &PublishNotifier{Publisher: p}
}

func (n *PublishNotifier) Notify(ctx context.Context, userID string, msg Notification) error {
	ev, err := realtime.NewEvent("notifications", realtime.TypeNotify, userID, msg)
	if err != nil {
		return err
	}
	return n.Publisher.Publish(ctx, realtime.NotificationsChannel(userID), ev)
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID string, n Notification) error {
	logger.Log.Info("notification",
		zap.String("userId", userID),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	)
	return nil
}

// MultiNotifier notifies every target and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, userID string, n Notification) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, userID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
