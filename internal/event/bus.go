package event

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/keystorm-sourceview/internal/event/topic"
)

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityHigh is for host handlers that must observe events first.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority for plugins.
	PriorityNormal Priority = 200

	// PriorityLow is for logging handlers that run last.
	PriorityLow Priority = 300
)

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event.
	// The event parameter is type-erased; handlers should type-assert.
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// TypedHandlerFunc handles events of a single payload type.
type TypedHandlerFunc[T any] func(ctx context.Context, event Event[T]) error

// AsHandler converts a TypedHandlerFunc to a generic Handler.
// Events of other payload types are skipped silently.
func AsHandler[T any](fn TypedHandlerFunc[T]) Handler {
	return HandlerFunc(func(ctx context.Context, event any) error {
		if e, ok := event.(Event[T]); ok {
			return fn(ctx, e)
		}
		return nil
	})
}

// Subscription is a handle returned by Subscribe.
type Subscription struct {
	id       string
	pattern  topic.Topic
	priority Priority
	seq      uint64
	handler  Handler
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() topic.Topic { return s.pattern }

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// Bus delivers events synchronously on the publisher's goroutine.
//
// The editor runs every handler on its single UI loop, so delivery is
// in-order and handlers may safely touch workspace state. Work that must run
// after the current event settles is handed to the loop package instead.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
	seq  uint64

	published atomic.Uint64
	delivered atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*Subscription)}
}

// Subscribe registers handler for every event whose topic matches pattern.
func (b *Bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		pattern:  pattern,
		priority: PriorityNormal,
		handler:  handler,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	b.seq++
	sub.seq = b.seq
	b.subs[sub.id] = sub
	b.mu.Unlock()

	return sub, nil
}

// SubscribeFunc is a convenience wrapper around Subscribe.
func (b *Bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(b.subs, sub.id)
	return nil
}

// Publish delivers event to all matching handlers in priority order, then
// subscription order. Every handler runs even when an earlier one fails; the
// failures are joined into the returned error.
func (b *Bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok {
		return ErrInvalidEvent
	}
	t := tp.EventTopic()
	if !t.IsValid() || t.IsWildcard() {
		return ErrInvalidTopic
	}

	b.published.Add(1)

	var errs []error
	for _, sub := range b.match(t) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := b.deliver(ctx, sub, t, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) match(t topic.Topic) []*Subscription {
	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if t.Matches(sub.pattern) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority < matched[j].priority
		}
		return matched[i].seq < matched[j].seq
	})
	return matched
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, t topic.Topic, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{SubscriptionID: sub.id, Topic: t.String(), Value: r}
		}
	}()

	b.delivered.Add(1)
	if herr := sub.handler.Handle(ctx, event); herr != nil {
		return &HandlerError{SubscriptionID: sub.id, Topic: t.String(), Err: herr}
	}
	return nil
}

// Stats contains event bus counters.
type Stats struct {
	Subscriptions   int
	EventsPublished uint64
	EventsDelivered uint64
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Subscriptions:   n,
		EventsPublished: b.published.Load(),
		EventsDelivered: b.delivered.Load(),
	}
}
