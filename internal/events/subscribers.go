package events

import (
	"context"

	"autoparts/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderMetrics is the slice of the metrics collector fed by order events
type OrderMetrics interface {
	OrderCreated(source string, total decimal.Decimal)
	OrderStatusChanged(from, to string)
}

// SubscribeMetrics keeps order counters current
func SubscribeMetrics(bus *Bus, m OrderMetrics) *Subscription {
	return bus.Subscribe("metrics", func(_ context.Context, e Event) {
		switch e.Type {
		case OrderCreated:
			m.OrderCreated(e.Order.Source, e.Order.Total)
		case OrderUpdated:
			m.OrderStatusChanged(string(e.PreviousStatus), string(e.Order.Status))
		}
	}, OrderCreated, OrderUpdated)
}

// SubscribeAudit writes one structured log line per order change
func SubscribeAudit(bus *Bus, logger *zap.Logger) *Subscription {
	logger = logger.Named("audit")
	return bus.Subscribe("audit", func(_ context.Context, e Event) {
		fields := []zap.Field{
			zap.String("event", string(e.Type)),
			zap.String("order_id", e.Order.OrderID),
			zap.String("source", e.Order.Source),
			zap.String("status", string(e.Order.Status)),
			zap.String("payment_status", string(e.Order.PaymentStatus)),
			zap.Time("occurred_at", e.OccurredAt),
		}
		if e.Type == OrderCreated {
			fields = append(fields, zap.String("total", e.Order.Total.StringFixed(2)), zap.Int("items", len(e.Order.Items)))
		}
		if e.Type == OrderUpdated {
			fields = append(fields,
				zap.String("previous_status", string(e.PreviousStatus)),
				zap.String("previous_payment_status", string(e.PreviousPaymentStatus)),
			)
			if e.Order.Status == domain.OrderStatusCancelled {
				logger.Warn("Order cancelled", fields...)
				return
			}
		}
		logger.Info("Order event", fields...)
	})
}
