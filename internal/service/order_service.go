package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/events"
	"autoparts/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	orderTokenLength   = 8
	orderTokenAttempts = 5
	orderTokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// EventPublisher receives order lifecycle events
type EventPublisher interface {
	Publish(event events.Event)
}

// DocumentRenderer turns an order into printable PDF bytes
type DocumentRenderer interface {
	Render(kind domain.DocumentKind, order *domain.Order, company *domain.CompanyConfig, bank *domain.BankConfig) ([]byte, error)
}

// CreateOrderInput is a web order as submitted by the storefront
type CreateOrderInput struct {
	Customer        domain.CustomerInfo
	Items           []domain.OrderItem
	Total           *decimal.Decimal
	ShippingAddress *domain.ShippingAddress
	PaymentMethod   string
	Source          string
	Notes           string
}

// ExternalOrderInput is an order imported from a marketplace
type ExternalOrderInput struct {
	Platform        string
	ExternalOrderID string
	Customer        domain.CustomerInfo
	Items           []domain.OrderItem
	Total           *decimal.Decimal
	ShippingAddress *domain.ShippingAddress
	Notes           string
}

// OrderService defines the order lifecycle operations
type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	CreateExternal(ctx context.Context, in ExternalOrderInput) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
	SalesReport(ctx context.Context, from, to *time.Time) (*domain.SalesReport, error)
	Document(ctx context.Context, id string, kind domain.DocumentKind) (*domain.OrderDocument, error)
}

type orderService struct {
	orders      repository.OrderRepository
	products    repository.ProductRepository
	subscribers repository.SubscriberRepository
	settings    repository.SettingsRepository
	renderer    DocumentRenderer
	publisher   EventPublisher
	strict      bool

	now         func() time.Time
	tokenSuffix func() string
}

// NewOrderService creates a new instance of OrderService. With strict set,
// delivered and cancelled orders can no longer change status.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	subscribers repository.SubscriberRepository,
	settings repository.SettingsRepository,
	renderer DocumentRenderer,
	publisher EventPublisher,
	strict bool,
) OrderService {
	return &orderService{
		orders:      orders,
		products:    products,
		subscribers: subscribers,
		settings:    settings,
		renderer:    renderer,
		publisher:   publisher,
		strict:      strict,
		now:         func() time.Time { return time.Now().UTC() },
		tokenSuffix: randomTokenSuffix,
	}
}

func (s *orderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	verr := &domain.ValidationError{}
	validateCustomer(verr, in.Customer, true)
	items := normalizeItems(verr, in.Items)
	validateTotal(verr, in.Total)
	if in.ShippingAddress == nil {
		verr.Add("shipping_address", "shipping address is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = domain.SourceWeb
	}
	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodBankTransfer
	}

	order := &domain.Order{
		CustomerName:    strings.TrimSpace(in.Customer.Name),
		CustomerEmail:   strings.TrimSpace(in.Customer.Email),
		CustomerPhone:   strings.TrimSpace(in.Customer.Phone),
		Items:           items,
		Total:           domain.Money(*in.Total),
		ShippingAddress: normalizeAddress(in.ShippingAddress),
		PaymentMethod:   paymentMethod,
		Source:          source,
		Notes:           in.Notes,
	}

	return s.insert(ctx, "ORD", order)
}

func (s *orderService) CreateExternal(ctx context.Context, in ExternalOrderInput) (*domain.Order, error) {
	verr := &domain.ValidationError{}
	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	if platform == "" {
		verr.Add("platform", "platform is required")
	}
	if strings.TrimSpace(in.ExternalOrderID) == "" {
		verr.Add("external_order_id", "external order id is required")
	}
	validateCustomer(verr, in.Customer, false)
	items := normalizeItems(verr, in.Items)
	validateTotal(verr, in.Total)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerName:    strings.TrimSpace(in.Customer.Name),
		CustomerEmail:   strings.TrimSpace(in.Customer.Email),
		CustomerPhone:   strings.TrimSpace(in.Customer.Phone),
		Items:           items,
		Total:           domain.Money(*in.Total),
		ShippingAddress: normalizeAddress(in.ShippingAddress),
		PaymentMethod:   domain.PaymentMethodBankTransfer,
		Source:          platform,
		ExternalOrderID: strings.TrimSpace(in.ExternalOrderID),
		Notes:           in.Notes,
	}

	return s.insert(ctx, externalPrefix(platform), order)
}

// insert assigns a fresh public token, retrying when it collides
func (s *orderService) insert(ctx context.Context, prefix string, order *domain.Order) (*domain.Order, error) {
	now := s.now()
	order.Status = domain.OrderStatusPending
	order.PaymentStatus = domain.PaymentStatusPending
	order.CreatedAt = now
	order.UpdatedAt = now

	var err error
	for attempt := 0; attempt < orderTokenAttempts; attempt++ {
		order.OrderID = fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), s.tokenSuffix())
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, repository.ErrOrderTokenTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Type: events.OrderCreated, Order: *order, OccurredAt: now})
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	return s.orders.List(ctx, filter)
}

// Get looks the order up by public token, then by numeric id
func (s *orderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	order, err := s.orders.FindByOrderID(ctx, id)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return order, err
	}

	numeric, convErr := strconv.ParseInt(id, 10, 64)
	if convErr != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, numeric)
}

func (s *orderService) Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	if patch.Empty() {
		return nil, domain.NewValidationError("status", "at least one of status, payment_status or notes is required")
	}

	verr := &domain.ValidationError{}
	if patch.Status != nil && !patch.Status.Valid() {
		verr.Add("status", fmt.Sprintf("unknown status %q", *patch.Status))
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		verr.Add("payment_status", fmt.Sprintf("unknown payment status %q", *patch.PaymentStatus))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := order.Status
	previousPayment := order.PaymentStatus

	if patch.Status != nil {
		if !domain.CanTransition(order.Status, *patch.Status, s.strict) {
			return nil, domain.NewValidationError("status",
				fmt.Sprintf("cannot change status from %s to %s", order.Status, *patch.Status))
		}
		order.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.Notes != nil {
		order.Notes = *patch.Notes
	}
	order.UpdatedAt = s.now()

	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		return nil, err
	}

	s.publish(events.Event{
		Type:                  events.OrderUpdated,
		Order:                 *order,
		PreviousStatus:        previousStatus,
		PreviousPaymentStatus: previousPayment,
		OccurredAt:            order.UpdatedAt,
	})
	return order, nil
}

// Stats builds the dashboard summary
func (s *orderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if stats.TotalProducts, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalSubscribers, err = s.subscribers.CountActive(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

// SalesReport totals the orders created in [from, to). Sales count paid orders only.
func (s *orderService) SalesReport(ctx context.Context, from, to *time.Time) (*domain.SalesReport, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.NewValidationError("end_date", "end_date must not be before start_date")
	}

	orders, err := s.orders.List(ctx, domain.OrderFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	report := &domain.SalesReport{
		TotalSales:  decimal.Zero,
		TotalOrders: len(orders),
		Orders:      orders,
	}
	for _, o := range orders {
		switch o.PaymentStatus {
		case domain.PaymentStatusPaid:
			report.PaidOrders++
			report.TotalSales = report.TotalSales.Add(o.Total)
		case domain.PaymentStatusPending:
			report.PendingOrders++
		}
	}
	report.TotalSales = domain.Money(report.TotalSales)

	return report, nil
}

// Document renders the order ticket or delivery note
func (s *orderService) Document(ctx context.Context, id string, kind domain.DocumentKind) (*domain.OrderDocument, error) {
	if kind == "" {
		kind = domain.DocumentTicket
	}
	if !kind.Valid() {
		return nil, domain.NewValidationError("doc_type", "doc_type must be ticket or delivery")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	company, err := s.settings.GetCompany(ctx)
	if err != nil {
		return nil, err
	}
	bank, err := s.settings.GetBank(ctx)
	if err != nil {
		return nil, err
	}

	content, err := s.renderer.Render(kind, order, company, bank)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s for order %s: %w", kind, order.OrderID, err)
	}

	return &domain.OrderDocument{
		Filename: fmt.Sprintf("%s_%s.pdf", kind, order.OrderID),
		Content:  content,
	}, nil
}

func (s *orderService) publish(event events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func externalPrefix(platform string) string {
	if platform == domain.SourceMercadoLibre {
		return "ML"
	}
	return "MP"
}

// randomTokenSuffix draws each character uniformly from orderTokenAlphabet.
// Bytes at or above the largest multiple of the alphabet size are discarded.
func randomTokenSuffix() string {
	const limit = 256 - 256%len(orderTokenAlphabet)

	out := make([]byte, 0, orderTokenLength)
	buf := make([]byte, 2*orderTokenLength)
	for len(out) < orderTokenLength {
		_, _ = rand.Read(buf)
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			out = append(out, orderTokenAlphabet[int(c)%len(orderTokenAlphabet)])
			if len(out) == orderTokenLength {
				break
			}
		}
	}
	return string(out)
}

func validateCustomer(verr *domain.ValidationError, c domain.CustomerInfo, emailRequired bool) {
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("customer_name", "customer name is required")
	}
	if emailRequired && strings.TrimSpace(c.Email) == "" {
		verr.Add("customer_email", "customer email is required")
	}
}

func validateTotal(verr *domain.ValidationError, total *decimal.Decimal) {
	switch {
	case total == nil:
		verr.Add("total", "total is required")
	case total.IsNegative():
		verr.Add("total", "total must not be negative")
	}
}

// normalizeItems validates the line snapshots and fills in the retail default
func normalizeItems(verr *domain.ValidationError, items []domain.OrderItem) []domain.OrderItem {
	if len(items) == 0 {
		verr.Add("items", "at least one item is required")
		return nil
	}

	out := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.SaleType == "" {
			item.SaleType = domain.SaleTypeRetail
		}
		if strings.TrimSpace(item.ProductName) == "" {
			verr.Add(field+".product_name", "product name is required")
		}
		if item.Quantity < 1 {
			verr.Add(field+".quantity", "quantity must be at least 1")
		}
		if item.Price.IsNegative() {
			verr.Add(field+".price", "price must not be negative")
		}
		if !item.SaleType.ValidForLine() {
			verr.Add(field+".sale_type", "sale_type must be detal or mayor")
		}
		item.Price = domain.Money(item.Price)
		out = append(out, item)
	}
	return out
}

func normalizeAddress(addr *domain.ShippingAddress) *domain.ShippingAddress {
	if addr == nil {
		return nil
	}
	normalized := *addr
	if strings.TrimSpace(normalized.Country) == "" {
		normalized.Country = domain.DefaultCountry
	}
	return &normalized
}
