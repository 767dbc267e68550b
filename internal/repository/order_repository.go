package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"autoparts/internal/database"
	"autoparts/internal/domain"

	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

type orderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *database.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_id, customer_name, customer_email, customer_phone, items, total,
	shipping_address, payment_method, source, external_order_id, notes, status, payment_status,
	created_at, updated_at`

// Create inserts an order with its item and address snapshots serialized as JSON
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	var address sql.NullString
	if order.ShippingAddress != nil {
		raw, err := json.Marshal(order.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to encode shipping address: %w", err)
		}
		address = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO orders (order_id, customer_name, customer_email, customer_phone, items, total,
			shipping_address, payment_method, source, external_order_id, notes, status,
			payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err = r.db.Get(
		ctx,
		query,
		order.OrderID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		string(items),
		order.Total,
		address,
		order.PaymentMethod,
		order.Source,
		order.ExternalOrderID,
		order.Notes,
		order.Status,
		order.PaymentStatus,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrOrderTokenTaken
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// FindByOrderID retrieves an order by its public token
func (r *orderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, orderID)
}

// FindByID retrieves an order by its internal numeric ID
func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Order, error) {
	order, err := scanOrder(r.db.Get(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

// List returns orders matching the filter. From is inclusive and To exclusive.
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.PaymentStatus != nil {
		where = append(where, "payment_status = ?")
		args = append(args, *filter.PaymentStatus)
	}
	if filter.Source != nil {
		where = append(where, "source = ?")
		args = append(args, *filter.Source)
	}
	if filter.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where = append(where, "created_at < ?")
		args = append(args, filter.To.UTC())
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Ascending {
		query += " ORDER BY created_at ASC, id ASC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}

	rows, err := r.db.All(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus persists the mutable fields: status, payment status and notes
func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = ?, payment_status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Run(ctx, query, order.Status, order.PaymentStatus, order.Notes, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return expectAffected(result, ErrOrderNotFound)
}

// Stats aggregates order counts and paid revenue. Product and subscriber
// totals are filled in by the caller.
func (r *orderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{
		OrdersByStatus: make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
		OrdersBySource: make(map[string]int, len(domain.OrderSources)),
	}
	for _, status := range domain.OrderStatuses {
		stats.OrdersByStatus[status] = 0
	}
	for _, source := range domain.OrderSources {
		stats.OrdersBySource[source] = 0
	}

	if err := r.db.Get(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var revenue decimal.NullDecimal
	err := r.db.Get(ctx, `SELECT SUM(total) FROM orders WHERE payment_status = ?`, domain.PaymentStatusPaid).Scan(&revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.TotalRevenue = domain.Money(revenue.Decimal)

	if err := r.countBy(ctx, "status", func(key string, n int) {
		stats.OrdersByStatus[domain.OrderStatus(key)] = n
	}); err != nil {
		return nil, err
	}

	if err := r.countBy(ctx, "source", func(key string, n int) {
		stats.OrdersBySource[key] = n
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

// countBy groups orders by a fixed column name
func (r *orderRepository) countBy(ctx context.Context, column string, set func(key string, n int)) error {
	rows, err := r.db.All(ctx, `SELECT `+column+`, COUNT(*) FROM orders GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("failed to count orders by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan order count: %w", err)
		}
		set(key, n)
	}

	return rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order   domain.Order
		items   string
		address sql.NullString
	)

	err := row.Scan(
		&order.ID,
		&order.OrderID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&items,
		&order.Total,
		&address,
		&order.PaymentMethod,
		&order.Source,
		&order.ExternalOrderID,
		&order.Notes,
		&order.Status,
		&order.PaymentStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	if address.Valid && address.String != "" {
		order.ShippingAddress = &domain.ShippingAddress{}
		if err := json.Unmarshal([]byte(address.String), order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to decode shipping address: %w", err)
		}
	}

	return &order, nil
}
