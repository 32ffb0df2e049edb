package realtime

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

const listenerBuffer = 16

// Hub fans one Subscription out to per-user listeners. Public events go to
// every listener, per-user events only to that user's listeners.
type Hub struct {
	source    <-chan Event
	closer    func() error
	mu        sync.Mutex
	listeners map[string]map[chan Event]struct{}
	closed    bool
	wg        sync.WaitGroup
}

// NewHub subscribes to the public and per-user channels.
func NewHub(ctx context.Context, client *redis.Client) (*Hub, error) {
	sub, err := Subscribe(ctx, client, publicPattern, userPattern)
	if err != nil {
		return nil, err
	}
	return newHub(sub.Events(), sub.Close), nil
}

func newHub(source <-chan Event, closer func() error) *Hub {
	h := &Hub{
		source:    source,
		closer:    closer,
		listeners: make(map[string]map[chan Event]struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Hub) run() {
	defer h.wg.Done()
	for ev := range h.source {
		h.dispatch(ev)
	}
	h.closeListeners()
}

func (h *Hub) dispatch(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.listeners {
		if ev.UserID != "" && ev.UserID != userID {
			continue
		}
		for ch := range set {
			select {
			case ch <- ev:
			default:
				// slow listener, drop
			}
		}
	}
}

// Listen registers a listener for userID. The returned cancel func must be
// called when the listener goes away.
func (h *Hub) Listen(userID string) (<-chan Event, func()) {
	ch := make(chan Event, listenerBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.listeners[userID] == nil {
		h.listeners[userID] = make(map[chan Event]struct{})
	}
	h.listeners[userID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.listeners[userID][ch]; !ok {
				return
			}
			delete(h.listeners[userID], ch)
			if len(h.listeners[userID]) == 0 {
				delete(h.listeners, userID)
			}
			close(ch)
		})
	}
}

func (h *Hub) closeListeners() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.listeners {
		for ch := range set {
			close(ch)
		}
	}
	h.listeners = nil
}

// Close ends the subscription and closes every listener channel.
func (h *Hub) Close() error {
	err := h.closer()
	h.wg.Wait()
	return err
}
