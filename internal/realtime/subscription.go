package realtime

import (
	"context"
	"encoding/json"
	"learnboard_backend/pkg/logger"
	"learnboard_backend/pkg/monitoring"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Subscription is one redis pattern subscription decoded into Events. It is
// created explicitly and must be closed by its owner.
type Subscription struct {
	pubsub    *redis.PubSub
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func Subscribe(ctx context.Context, client *redis.Client, patterns ...string) (*Subscription, error) {
	ps := client.PSubscribe(ctx, patterns...)
	// wait for the subscription confirmation so errors surface here
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	s := &Subscription{
		pubsub: ps,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *Subscription) run() {
	defer s.wg.Done()
	defer close(s.events)

	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Log.Warn("Dropping malformed realtime message",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			monitoring.RealtimeEvents.WithLabelValues(ev.Table, ev.Type).Inc()
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Events is closed after Close or when the connection is lost.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
		s.wg.Wait()
	})
	return err
}
