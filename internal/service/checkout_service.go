package service

import (
	"context"
	"fmt"

	"autoparts/internal/config"
	"autoparts/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const checkoutSubscriberSource = "checkout"

// CheckoutPricing holds the order total rules
type CheckoutPricing struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

// ParseCheckoutPricing reads the pricing rules from configuration
func ParseCheckoutPricing(cfg config.CheckoutConfig) (CheckoutPricing, error) {
	var (
		p   CheckoutPricing
		err error
	)
	if p.ShippingFee, err = decimal.NewFromString(cfg.ShippingFee); err != nil {
		return p, fmt.Errorf("invalid CHECKOUT_SHIPPING_FEE %q: %w", cfg.ShippingFee, err)
	}
	if p.FreeShippingThreshold, err = decimal.NewFromString(cfg.FreeShippingThreshold); err != nil {
		return p, fmt.Errorf("invalid CHECKOUT_FREE_SHIPPING_THRESHOLD %q: %w", cfg.FreeShippingThreshold, err)
	}
	if p.TaxRate, err = decimal.NewFromString(cfg.TaxRate); err != nil {
		return p, fmt.Errorf("invalid CHECKOUT_TAX_RATE %q: %w", cfg.TaxRate, err)
	}
	if p.ShippingFee.IsNegative() || p.FreeShippingThreshold.IsNegative() || p.TaxRate.IsNegative() {
		return p, fmt.Errorf("checkout pricing values must not be negative")
	}
	return p, nil
}

// CheckoutQuote is the cart total breakdown
type CheckoutQuote struct {
	Items    []*domain.CartLine `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Shipping decimal.Decimal    `json:"shipping"`
	Tax      decimal.Decimal    `json:"tax"`
	Total    decimal.Decimal    `json:"total"`
}

// CheckoutInput is what the storefront submits at checkout
type CheckoutInput struct {
	SessionID       string
	Customer        domain.CustomerInfo
	ShippingAddress *domain.ShippingAddress
	PaymentMethod   string
	Notes           string
	Subscribe       bool
}

// CheckoutResult reports the created order and the best-effort side effects
type CheckoutResult struct {
	Order       *domain.Order  `json:"order"`
	Quote       *CheckoutQuote `json:"quote"`
	CartCleared bool           `json:"cart_cleared"`
	Subscribed  bool           `json:"subscribed"`
}

// CheckoutService turns a session cart into an order
type CheckoutService interface {
	Quote(ctx context.Context, sessionID string) (*CheckoutQuote, error)
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	carts       CartService
	orders      OrderService
	subscribers SubscriberService
	pricing     CheckoutPricing
	logger      *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(carts CartService, orders OrderService, subscribers SubscriberService, pricing CheckoutPricing, logger *zap.Logger) CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &checkoutService{
		carts:       carts,
		orders:      orders,
		subscribers: subscribers,
		pricing:     pricing,
		logger:      logger,
	}
}

// Totals applies the pricing rules to a set of cart lines
func (p CheckoutPricing) Totals(lines []*domain.CartLine) *CheckoutQuote {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	subtotal = domain.Money(subtotal)

	shipping := decimal.Zero
	if len(lines) > 0 && subtotal.LessThanOrEqual(p.FreeShippingThreshold) {
		shipping = p.ShippingFee
	}
	tax := domain.Money(subtotal.Mul(p.TaxRate))

	return &CheckoutQuote{
		Items:    lines,
		Subtotal: subtotal,
		Shipping: domain.Money(shipping),
		Tax:      tax,
		Total:    domain.Money(subtotal.Add(shipping).Add(tax)),
	}
}

func (s *checkoutService) Quote(ctx context.Context, sessionID string) (*CheckoutQuote, error) {
	lines, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.pricing.Totals(lines), nil
}

// Checkout creates the order from the live cart, then clears the cart and
// optionally subscribes the customer. Failures after the order exists are
// logged and do not fail the checkout.
func (s *checkoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	quote, err := s.Quote(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 {
		return nil, domain.NewValidationError("items", "cart is empty")
	}

	items := make([]domain.OrderItem, 0, len(quote.Items))
	for _, line := range quote.Items {
		items = append(items, line.OrderItem())
	}

	order, err := s.orders.Create(ctx, CreateOrderInput{
		Customer:        in.Customer,
		Items:           items,
		Total:           &quote.Total,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Source:          domain.SourceWeb,
		Notes:           in.Notes,
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: order, Quote: quote}

	if _, err := s.carts.Clear(ctx, in.SessionID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("order_id", order.OrderID),
			zap.String("session_id", in.SessionID),
			zap.Error(err),
		)
	} else {
		result.CartCleared = true
	}

	if in.Subscribe && in.Customer.Email != "" {
		if _, err := s.subscribers.Subscribe(ctx, SubscribeInput{Email: in.Customer.Email, Source: checkoutSubscriberSource}); err != nil {
			s.logger.Warn("Failed to subscribe customer at checkout",
				zap.String("order_id", order.OrderID),
				zap.Error(err),
			)
		} else {
			result.Subscribed = true
		}
	}

	return result, nil
}
