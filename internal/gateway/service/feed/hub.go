package feed

import (
	"context"
	"sync"
	"time"
)

const EventAccumulated = "accumulated"

// Event is one accumulation pushed to live subscribers.
type Event struct {
	Type         string    `json:"type"`
	Day          string    `json:"day"`
	Subject      string    `json:"subject"`
	SavedMinutes int64     `json:"saved_minutes"`
	NewFocus     int64     `json:"new_focus"`
	At           time.Time `json:"at"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	buffer int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event), buffer: 16}
}

// Subscribe returns a channel that receives events until ctx is done.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many subscriptions are live.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
