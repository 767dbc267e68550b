package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks fulfillment
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every fulfillment status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known fulfillment status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further fulfillment change is expected
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// strictTransitions is the allowed-transition table used when strict mode is on.
var strictTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusPending, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusPending, OrderStatusPaid, OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether from -> to is allowed. Outside strict mode any
// known status may follow any other, which admins rely on for manual fixes.
func CanTransition(from, to OrderStatus, strict bool) bool {
	if !to.Valid() {
		return false
	}
	if !strict || from == to {
		return true
	}
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentStatus tracks whether the bank transfer was received
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

const (
	SourceWeb          = "web"
	SourceMercadoLibre = "mercadolibre"
	SourceMarketplace  = "marketplace"

	PaymentMethodBankTransfer = "bank_transfer"
	DefaultCountry            = "Venezuela"
)

// OrderSources lists the provenance tags reported in statistics
var OrderSources = []string{SourceWeb, SourceMercadoLibre, SourceMarketplace}

// OrderItem is the denormalized line snapshot stored with an order
type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	SaleType    SaleType        `json:"sale_type"`
}

// Subtotal returns price times quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is stored as a JSON blob on the order
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

// CustomerInfo identifies who placed an order
type CustomerInfo struct {
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

// Order is an immutable purchase record; only the status fields and notes change
type Order struct {
	ID              int64            `json:"id" db:"id"`
	OrderID         string           `json:"order_id" db:"order_id"`
	CustomerName    string           `json:"customer_name" db:"customer_name"`
	CustomerEmail   string           `json:"customer_email" db:"customer_email"`
	CustomerPhone   string           `json:"customer_phone" db:"customer_phone"`
	Items           []OrderItem      `json:"items" db:"items"`
	Total           decimal.Decimal  `json:"total" db:"total"`
	ShippingAddress *ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentMethod   string           `json:"payment_method" db:"payment_method"`
	Source          string           `json:"source" db:"source"`
	ExternalOrderID string           `json:"external_order_id,omitempty" db:"external_order_id"`
	Notes           string           `json:"notes" db:"notes"`
	Status          OrderStatus      `json:"status" db:"status"`
	PaymentStatus   PaymentStatus    `json:"payment_status" db:"payment_status"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
	Source        *string
	From          *time.Time
	To            *time.Time
	Ascending     bool
}

// OrderPatch carries the mutable order fields; nil means unchanged
type OrderPatch struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
	Notes         *string
}

// Empty reports whether the patch changes nothing
func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.Notes == nil
}

// OrderStats is the admin dashboard summary
type OrderStats struct {
	TotalProducts    int                 `json:"total_products"`
	TotalOrders      int                 `json:"total_orders"`
	TotalSubscribers int                 `json:"total_subscribers"`
	TotalRevenue     decimal.Decimal     `json:"total_revenue"`
	OrdersByStatus   map[OrderStatus]int `json:"orders_by_status"`
	OrdersBySource   map[string]int      `json:"orders_by_source"`
}

// SalesReport summarizes orders in a date range
type SalesReport struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalOrders   int             `json:"total_orders"`
	PaidOrders    int             `json:"paid_orders"`
	PendingOrders int             `json:"pending_orders"`
	Orders        []*Order        `json:"orders"`
}
