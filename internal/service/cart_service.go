package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/repository"
)

// CartObserver is notified of cart mutations, e.g. for metrics
type CartObserver interface {
	CartOperation(operation string)
}

// AddToCartInput describes a cart addition; zero Quantity means 1 and an
// empty SaleType means retail.
type AddToCartInput struct {
	SessionID string
	ProductID int64
	Quantity  int
	SaleType  domain.SaleType
}

// CartService defines the session cart operations
type CartService interface {
	Get(ctx context.Context, sessionID string) ([]*domain.CartLine, error)
	Add(ctx context.Context, in AddToCartInput) (*domain.CartLine, error)
	// UpdateQuantity sets a line's quantity. Zero or less removes the line,
	// in which case the returned line is nil.
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*domain.CartLine, error)
	Remove(ctx context.Context, lineID int64) error
	Clear(ctx context.Context, sessionID string) (int64, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	observer CartObserver
}

// NewCartService creates a new instance of CartService. observer may be nil.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, observer CartObserver) CartService {
	return &cartService{carts: carts, products: products, observer: observer}
}

func (s *cartService) Get(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.NewValidationError("session_id", "session_id is required")
	}
	return s.carts.ListBySession(ctx, sessionID)
}

// Add snapshots the product into the session cart. A line with the same
// product and sale type is incremented instead of duplicated.
func (s *cartService) Add(ctx context.Context, in AddToCartInput) (*domain.CartLine, error) {
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.SaleType == "" {
		in.SaleType = domain.SaleTypeRetail
	}

	verr := &domain.ValidationError{}
	if in.SessionID == "" {
		verr.Add("session_id", "session_id is required")
	}
	if in.ProductID <= 0 {
		verr.Add("product_id", "product_id is required")
	}
	if in.Quantity < 1 {
		verr.Add("quantity", "quantity must be at least 1")
	}
	if !in.SaleType.ValidForLine() {
		verr.Add("sale_type", "sale_type must be detal or mayor")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Sells(in.SaleType) {
		return nil, domain.NewValidationError("sale_type", "product is not sold as "+string(in.SaleType))
	}

	existing, err := s.carts.FindLine(ctx, in.SessionID, in.ProductID, in.SaleType)
	switch {
	case err == nil:
		if err := s.carts.UpdateQuantity(ctx, existing.ID, existing.Quantity+in.Quantity); err != nil {
			return nil, err
		}
		s.observe("merge")
		return s.carts.FindByID(ctx, existing.ID)
	case !errors.Is(err, repository.ErrCartLineNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	line := &domain.CartLine{
		SessionID:    in.SessionID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.ImageURL,
		ProductPrice: product.PriceFor(in.SaleType),
		SaleType:     in.SaleType,
		Quantity:     in.Quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.carts.Create(ctx, line); err != nil {
		return nil, err
	}

	s.observe("add")
	return line, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		if err := s.Remove(ctx, lineID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.carts.UpdateQuantity(ctx, lineID, quantity); err != nil {
		return nil, err
	}

	s.observe("update")
	return s.carts.FindByID(ctx, lineID)
}

func (s *cartService) Remove(ctx context.Context, lineID int64) error {
	if err := s.carts.Delete(ctx, lineID); err != nil {
		return err
	}
	s.observe("remove")
	return nil
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (int64, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, domain.NewValidationError("session_id", "session_id is required")
	}

	removed, err := s.carts.DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	s.observe("clear")
	return removed, nil
}

func (s *cartService) observe(op string) {
	if s.observer != nil {
		s.observer.CartOperation(op)
	}
}
