package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductInput carries the writable product fields. Nil or empty values
// fall back to the catalogue defaults, so an update is a full overwrite.
type ProductInput struct {
	Name            string
	Description     string
	Price           *decimal.Decimal
	PriceWholesale  *decimal.Decimal
	ImageURL        string
	Category        string
	Inventory       *int
	Featured        bool
	SaleType        string
	MinWholesaleQty *int
}

// CatalogService defines the product catalogue operations
type CatalogService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type catalogService struct {
	products repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository) CatalogService {
	return &catalogService{products: products}
}

func (s *catalogService) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	return s.products.List(ctx, filter)
}

func (s *catalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *catalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	product := &domain.Product{}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product together with every cart line that references it
func (s *catalogService) Delete(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}

// applyProductInput validates in and overwrites every writable field of p
func applyProductInput(p *domain.Product, in ProductInput) error {
	verr := &domain.ValidationError{}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "name is required")
	}

	switch {
	case in.Price == nil:
		verr.Add("price", "price is required")
	case in.Price.IsNegative():
		verr.Add("price", "price must not be negative")
	}

	wholesale := decimal.NullDecimal{}
	if in.PriceWholesale != nil {
		wholesale = decimal.NewNullDecimal(domain.Money(*in.PriceWholesale))
		switch {
		case in.PriceWholesale.IsNegative():
			verr.Add("price_wholesale", "wholesale price must not be negative")
		case in.Price != nil && in.PriceWholesale.GreaterThan(*in.Price):
			verr.Add("price_wholesale", "wholesale price must not exceed the retail price")
		}
	}

	category := domain.CategoryEngine
	if in.Category != "" {
		category = domain.Category(in.Category)
		if !category.Valid() {
			verr.Add("category", fmt.Sprintf("unknown category %q", in.Category))
		}
	}

	saleType := domain.SaleTypeBoth
	if in.SaleType != "" {
		saleType = domain.SaleType(in.SaleType)
		if !saleType.Valid() {
			verr.Add("sale_type", fmt.Sprintf("unknown sale type %q", in.SaleType))
		}
	}

	inventory := 0
	if in.Inventory != nil {
		inventory = *in.Inventory
		if inventory < 0 {
			verr.Add("inventory", "inventory must not be negative")
		}
	}

	minQty := domain.DefaultMinWholesaleQty
	if in.MinWholesaleQty != nil {
		minQty = *in.MinWholesaleQty
		if minQty < 1 {
			verr.Add("min_wholesale_qty", "minimum wholesale quantity must be at least 1")
		}
	}

	if err := verr.OrNil(); err != nil {
		return err
	}

	p.Name = name
	p.Description = in.Description
	p.Price = domain.Money(*in.Price)
	p.PriceWholesale = wholesale
	p.ImageURL = in.ImageURL
	p.Category = category
	p.Inventory = inventory
	p.Featured = in.Featured
	p.SaleType = saleType
	p.MinWholesaleQty = minQty
	return nil
}
