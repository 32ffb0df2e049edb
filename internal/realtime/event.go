// Package realtime carries change notifications over redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"learnboard_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	ChannelDiscussions = "public:forum_discussions"
	ChannelEvents      = "public:events"

	publicPattern = "public:*"
	userPattern   = "user:*"
)

// Event types.
const (
	TypeInsert     = "INSERT"
	TypeUpdate     = "UPDATE"
	TypeInvalidate = "INVALIDATE"
	TypeNotify     = "NOTIFY"
)

func AchievementsChannel(userID string) string {
	return "user:" + userID + ":achievements"
}

func NotificationsChannel(userID string) string {
	return "user:" + userID + ":notifications"
}

// Event is the message published on every channel. UserID is set for
// per-user channels and empty for public ones.
type Event struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	UserID string          `json:"userId,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
	At     time.Time       `json:"at"`
}

func NewEvent(table, typ, userID string, record interface{}) (Event, error) {
	ev := Event{Table: table, Type: typ, UserID: userID, At: time.Now()}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return Event{}, err
		}
		ev.Record = raw
	}
	return ev, nil
}

type Publisher interface {
	Publish(ctx context.Context, channel string, ev Event) error
}

type RedisPublisher struct {
	Client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{Client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, channel, data).Err()
}

// LogPublisher is used when redis is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, channel string, ev Event) error {
	logger.Log.Debug("realtime event",
		zap.String("channel", channel),
		zap.String("table", ev.Table),
		zap.String("type", ev.Type),
		zap.String("userId", ev.UserID),
	)
	return nil
}
