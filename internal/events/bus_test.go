package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"autoparts/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestProperty_EverySubscriberSeesEveryEvent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("events published before Close are all delivered", prop.ForAll(
		func(subscribers int, published int) bool {
			bus := NewBus(zap.NewNop(), nil)
			cols := make([]*collector, subscribers)
			for i := range cols {
				cols[i] = &collector{}
				bus.Subscribe("c", cols[i].handle)
			}

			for i := 0; i < published; i++ {
				bus.Publish(Event{Type: OrderCreated})
			}
			bus.Close()

			for _, c := range cols {
				if c.len() != published {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.IntRange(0, defaultBuffer),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSubscribeFiltersTypes(t *testing.T) {
	bus := NewBus(zap.NewNop(), nil)
	created := &collector{}
	bus.Subscribe("created", created.handle, OrderCreated)

	bus.Publish(Event{Type: OrderUpdated})
	bus.Publish(Event{Type: OrderCreated})
	bus.Close()

	require.Equal(t, 1, created.len())
	assert.Equal(t, OrderCreated, created.events[0].Type)
	assert.False(t, created.events[0].OccurredAt.IsZero())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop(), nil)
	c := &collector{}
	sub := bus.Subscribe("c", c.handle)

	bus.Publish(Event{Type: OrderCreated})
	sub.Unsubscribe()
	sub.Unsubscribe()
	bus.Publish(Event{Type: OrderCreated})
	bus.Close()

	assert.Equal(t, 1, c.len())
}

type dropCounter struct {
	mu    sync.Mutex
	drops map[string]int
}

func (d *dropCounter) EventDropped(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drops[name]++
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	drops := &dropCounter{drops: map[string]int{}}
	bus := NewBus(zap.NewNop(), drops)

	release := make(chan struct{})
	bus.Subscribe("slow", func(context.Context, Event) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer+10; i++ {
			bus.Publish(Event{Type: OrderCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	close(release)
	bus.Close()

	drops.mu.Lock()
	defer drops.mu.Unlock()
	assert.GreaterOrEqual(t, drops.drops["slow"], 9)
}

func TestHandlerPanicIsContained(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewBus(zap.New(core), nil)
	c := &collector{}
	bus.Subscribe("boom", func(context.Context, Event) { panic("boom") })
	bus.Subscribe("ok", c.handle)

	bus.Publish(Event{Type: OrderCreated})
	bus.Close()

	assert.Equal(t, 1, c.len())
	assert.Equal(t, 1, logs.FilterMessage("Event handler panicked").Len())
}

type orderMetricsStub struct {
	mu      sync.Mutex
	created map[string]decimal.Decimal
	changes []string
}

func (s *orderMetricsStub) OrderCreated(source string, total decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[source] = s.created[source].Add(total)
}

func (s *orderMetricsStub) OrderStatusChanged(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, from+">"+to)
}

func TestMetricsAndAuditSubscribers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := NewBus(zap.NewNop(), nil)
	stub := &orderMetricsStub{created: map[string]decimal.Decimal{}}
	SubscribeMetrics(bus, stub)
	SubscribeAudit(bus, zap.New(core))

	order := domain.Order{OrderID: "ORD-20260101-ABCDEFGH", Source: domain.SourceWeb, Total: decimal.RequireFromString("42.50"),
		Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending}
	bus.Publish(Event{Type: OrderCreated, Order: order})

	order.Status = domain.OrderStatusCancelled
	bus.Publish(Event{Type: OrderUpdated, Order: order, PreviousStatus: domain.OrderStatusPending})
	bus.Close()

	assert.True(t, stub.created[domain.SourceWeb].Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, []string{"pending>cancelled"}, stub.changes)
	assert.Equal(t, 1, logs.FilterMessage("Order event").Len())
	assert.Equal(t, 1, logs.FilterMessage("Order cancelled").Len())
}
