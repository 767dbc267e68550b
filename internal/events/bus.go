package events

import (
	"context"
	"sync"
	"time"

	"autoparts/internal/domain"

	"go.uber.org/zap"
)

// Type names a domain event
type Type string

const (
	OrderCreated Type = "order.created"
	OrderUpdated Type = "order.updated"
)

// Event carries a snapshot of the order after the change.
// PreviousStatus and PreviousPaymentStatus are set for updates only.
type Event struct {
	Type                  Type
	Order                 domain.Order
	PreviousStatus        domain.OrderStatus
	PreviousPaymentStatus domain.PaymentStatus
	OccurredAt            time.Time
}

// Handler consumes events on its subscription's goroutine
type Handler func(ctx context.Context, event Event)

// DropObserver is told when a full subscriber buffer forces an event to be dropped
type DropObserver interface {
	EventDropped(subscriber string)
}

const defaultBuffer = 64

// Bus is an in-process publish/subscribe hub. Publish never blocks: each
// subscriber owns a buffered channel and events beyond its capacity are dropped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool

	logger  *zap.Logger
	dropped DropObserver
	wg      sync.WaitGroup
}

type subscriber struct {
	name  string
	types map[Type]struct{}
	ch    chan Event
}

// Subscription is the handle returned by Subscribe
type Subscription struct {
	bus  *Bus
	id   uint64
	once sync.Once
}

// NewBus creates an empty bus. dropped may be nil.
func NewBus(logger *zap.Logger, dropped DropObserver) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:    make(map[uint64]*subscriber),
		logger:  logger,
		dropped: dropped,
	}
}

// Subscribe registers h for the given event types; no types means all of them
func (b *Bus) Subscribe(name string, h Handler, types ...Type) *Subscription {
	sub := &subscriber{
		name:  name,
		types: make(map[Type]struct{}, len(types)),
		ch:    make(chan Event, defaultBuffer),
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return &Subscription{bus: b}
	}

	b.nextID++
	id := b.nextID
	b.subs[id] = sub

	b.wg.Add(1)
	go b.run(sub, h)

	return &Subscription{bus: b, id: id}
}

func (b *Bus) run(sub *subscriber, h Handler) {
	defer b.wg.Done()
	for event := range sub.ch {
		b.deliver(sub, h, event)
	}
}

func (b *Bus) deliver(sub *subscriber, h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("subscriber", sub.name),
				zap.String("event", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	h(context.Background(), event)
}

// Publish fans the event out to every interested subscriber
func (b *Bus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if len(sub.types) > 0 {
			if _, ok := sub.types[event.Type]; !ok {
				continue
			}
		}

		select {
		case sub.ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				zap.String("subscriber", sub.name),
				zap.String("event", string(event.Type)),
				zap.String("order_id", event.Order.OrderID),
			)
			if b.dropped != nil {
				b.dropped.EventDropped(sub.name)
			}
		}
	}
}

// Unsubscribe stops delivery; events already queued are still handled
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil || s.id == 0 {
		return
	}
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if sub, ok := s.bus.subs[s.id]; ok {
			delete(s.bus.subs, s.id)
			close(sub.ch)
		}
	})
}

// Close stops accepting events and waits for queued ones to be handled
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
