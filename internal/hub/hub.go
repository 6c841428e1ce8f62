package hub

import "sync"

// Event statuses as they appear on the wire.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Event is one progress update for a job. Events are ephemeral: delivered to
// whoever is subscribed at publish time and then gone.
type Event struct {
	JobID      string `json:"jobId"`
	Percentage int    `json:"percentage"`
	Detail     string `json:"detail,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Terminal reports whether no further events follow for the job.
func (e Event) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusError
}

// Hub broadcasts progress events from running conversions to every connected
// subscriber. Delivery is at-most-once with no replay: a subscriber that
// connects after an event was published never sees it. Publishing never
// blocks; a subscriber whose buffer is full loses the event instead of
// stalling the publishing job or its peers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	bufSize int
	closed  bool
}

// Subscriber is one live feed of all jobs' events. Consumers filter by job id.
type Subscriber struct {
	ch   chan Event
	hub  *Hub
	once sync.Once
}

// New creates a hub whose subscribers buffer up to bufSize pending events.
func New(bufSize int) *Hub {
	if bufSize < 1 {
		bufSize = 1
	}
	return &Hub{subs: make(map[*Subscriber]struct{}), bufSize: bufSize}
}

// Subscribe attaches a new live feed. The caller must Close it when done.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, h.bufSize), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers the event to every currently connected subscriber,
// dropping it for any subscriber that cannot keep up.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for s := range h.subs {
		select {
		case s.ch <- e:
		default:
		}
	}
}

// Close tears down the hub and every open subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Events returns the subscriber's feed. The channel is closed when the
// subscription or the hub shuts down.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscriber from the hub and closes its feed.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if _, ok := s.hub.subs[s]; ok {
			delete(s.hub.subs, s)
			close(s.ch)
		}
	})
}
