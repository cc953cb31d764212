package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Handler receives a single new-notification event.
type Handler func(NotificationEvent)

// Registry fans events from the one physical connection out to any number
// of application subscribers. Subscriptions are keyed by a registration
// token rather than callback identity, so registering the same function
// twice yields two independently revocable subscriptions.
type Registry struct {
	logger *zap.Logger

	mu          sync.Mutex
	nextToken   uint64
	subscribers map[uint64]Handler
}

// NewRegistry creates an empty fan-out registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:      logger,
		subscribers: make(map[uint64]Handler),
	}
}

// Subscribe registers a handler for new-notification events and returns a
// function that removes exactly this registration and no other.
func (r *Registry) Subscribe(h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextToken++
	token := r.nextToken
	r.subscribers[token] = h

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, token)
	}
}

// Dispatch delivers the event to every current subscriber. A panicking
// subscriber is isolated and logged; delivery continues with the rest.
// No ordering across subscribers is guaranteed.
func (r *Registry) Dispatch(ev NotificationEvent) {
	r.mu.Lock()
	handlers := make([]Handler, 0, len(r.subscribers))
	for _, h := range r.subscribers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		r.invoke(h, ev)
	}
}

// invoke runs one handler with panic isolation.
func (r *Registry) invoke(h Handler, ev NotificationEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("notification subscriber panicked",
				zap.Any("panic", rec),
				zap.String("notification_id", ev.ID),
			)
		}
	}()
	h(ev)
}

// Clear drops every subscriber. Called when the connection is torn down so
// no stale registrations leak across reconnects.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = make(map[uint64]Handler)
}

// Len returns the current number of subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}
