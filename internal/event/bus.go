// Package event fans committed engine events out to in-process subscribers.
package event

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// QueueSize is the buffer of each channel subscription.
const QueueSize = 64

// AllTypes subscribes to every event type.
const AllTypes types.EventType = "*"

// SubscriberID identifies a subscription.
type SubscriberID int

// HandlerFunc consumes events delivered by SubscribeFunc.
type HandlerFunc func(types.Event)

// Subscriber receives events. Close must be idempotent.
type Subscriber interface {
	Deliver(types.Event) error
	Close()
}

// Bus is a typed publish/subscribe hub. Delivery is synchronous; a
// subscriber that fails or panics is dropped.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType]map[SubscriberID]Subscriber
	lastID      SubscriberID
	metrics     *metrics
	logger      *slog.Logger
	wg          sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

// WithRegisterer registers the bus metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(b *Bus) {
		if reg != nil {
			b.metrics = newMetrics(reg)
		}
	}
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// NewBus returns an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[types.EventType]map[SubscriberID]Subscriber),
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// chanSubscriber delivers into a buffered channel. Close waits for in-flight
// sends before closing the channel.
type chanSubscriber struct {
	ch     chan types.Event
	mu     sync.RWMutex
	closed bool
}

func (c *chanSubscriber) Deliver(evt types.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	c.ch <- evt
	return nil
}

func (c *chanSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

func subscriberKind(s Subscriber) string {
	if _, ok := s.(*chanSubscriber); ok {
		return "channel"
	}
	return "custom"
}

// Register adds sub for eventType (or AllTypes) and returns its id.
func (b *Bus) Register(eventType types.EventType, sub Subscriber) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastID++
	id := b.lastID
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[SubscriberID]Subscriber)
	}
	b.subscribers[eventType][id] = sub
	if b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(string(eventType), subscriberKind(sub)).Inc()
	}
	return id
}

// Subscribe returns a channel receiving events of eventType.
func (b *Bus) Subscribe(eventType types.EventType) (SubscriberID, <-chan types.Event) {
	sub := &chanSubscriber{ch: make(chan types.Event, QueueSize)}
	return b.Register(eventType, sub), sub.ch
}

// SubscribeFunc calls fn for every event of eventType on a dedicated
// goroutine. The goroutine exits on Unsubscribe or Stop.
func (b *Bus) SubscribeFunc(eventType types.EventType, fn HandlerFunc) SubscriberID {
	id, ch := b.Subscribe(eventType)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for evt := range ch {
			fn(evt)
		}
	}()
	return id
}

// Unsubscribe removes and closes a subscription.
func (b *Bus) Unsubscribe(eventType types.EventType, id SubscriberID) {
	b.mu.Lock()
	sub, ok := b.subscribers[eventType][id]
	if ok {
		delete(b.subscribers[eventType], id)
		if len(b.subscribers[eventType]) == 0 {
			delete(b.subscribers, eventType)
		}
		if b.metrics != nil {
			b.metrics.subscribers.WithLabelValues(string(eventType), subscriberKind(sub)).Dec()
		}
	}
	b.mu.Unlock()

	if ok {
		sub.Close()
	}
}

type target struct {
	key types.EventType
	id  SubscriberID
	sub Subscriber
}

// Publish delivers evt to the subscribers of its type and of AllTypes.
func (b *Bus) Publish(evt types.Event) {
	b.mu.RLock()
	var targets []target
	for _, key := range []types.EventType{evt.Type, AllTypes} {
		for id, sub := range b.subscribers[key] {
			targets = append(targets, target{key: key, id: id, sub: sub})
		}
	}
	b.mu.RUnlock()

	for _, t := range targets {
		if err := deliver(t.sub, evt); err != nil {
			b.Unsubscribe(t.key, t.id)
			if b.metrics != nil {
				b.metrics.deliveryErrors.WithLabelValues(string(evt.Type), subscriberKind(t.sub)).Inc()
			}
			b.logger.Warn("event delivery failed",
				"component", "event",
				"type", string(evt.Type),
				"err", err,
			)
		}
	}
	if b.metrics != nil {
		b.metrics.eventsTotal.WithLabelValues(string(evt.Type)).Inc()
	}
}

// PublishAll publishes events in order.
func (b *Bus) PublishAll(events []types.Event) {
	for _, evt := range events {
		b.Publish(evt)
	}
}

func deliver(sub Subscriber, evt types.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return sub.Deliver(evt)
}

// Stop closes every subscription and waits for SubscribeFunc goroutines to
// drain. The bus stays usable afterwards.
func (b *Bus) Stop() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[types.EventType]map[SubscriberID]Subscriber)
	b.mu.Unlock()

	for _, byID := range subs {
		for _, sub := range byID {
			sub.Close()
		}
	}
	if b.metrics != nil {
		b.metrics.subscribers.Reset()
	}
	b.wg.Wait()
}
