package service

import (
	"context"
	"errors"
	"testing"

	"autoparts/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func seedProduct(t *testing.T, repo *mockProductRepository, saleType domain.SaleType, price, wholesale string) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:            "Pastillas de freno",
		ImageURL:        "https://img.example.com/brakes.jpg",
		Price:           decimal.RequireFromString(price),
		Category:        domain.CategoryBrakes,
		SaleType:        saleType,
		MinWholesaleQty: domain.DefaultMinWholesaleQty,
	}
	if wholesale != "" {
		product.PriceWholesale = decimal.NewNullDecimal(decimal.RequireFromString(wholesale))
	}
	if err := repo.Create(context.Background(), product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestCartAddSnapshotsProduct(t *testing.T) {
	products := newMockProductRepository()
	observer := newCountingObserver()
	service := NewCartService(newMockCartRepository(), products, observer)
	product := seedProduct(t, products, domain.SaleTypeBoth, "45.00", "38.50")
	ctx := context.Background()

	retail, err := service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: product.ID})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if retail.Quantity != 1 || retail.SaleType != domain.SaleTypeRetail {
		t.Errorf("defaults = %d/%s, want 1/detal", retail.Quantity, retail.SaleType)
	}
	if !retail.ProductPrice.Equal(decimal.RequireFromString("45.00")) || retail.ProductName != product.Name {
		t.Errorf("snapshot = %s %s", retail.ProductName, retail.ProductPrice)
	}

	wholesale, err := service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: product.ID, Quantity: 10, SaleType: domain.SaleTypeWholesale})
	if err != nil {
		t.Fatalf("Add() wholesale error = %v", err)
	}
	if !wholesale.ProductPrice.Equal(decimal.RequireFromString("38.50")) {
		t.Errorf("wholesale price = %s, want 38.50", wholesale.ProductPrice)
	}
	if wholesale.ID == retail.ID {
		t.Errorf("retail and wholesale lines should be separate")
	}

	// the snapshot survives later catalogue edits
	product.Price = decimal.RequireFromString("99.00")
	lines, err := service.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	for _, line := range lines {
		if line.ProductPrice.Equal(product.Price) {
			t.Errorf("line %d follows the live price", line.ID)
		}
	}

	if observer.cart["add"] != 2 {
		t.Errorf("add observations = %d, want 2", observer.cart["add"])
	}
}

func TestCartAddMergesSameProductAndSaleType(t *testing.T) {
	products := newMockProductRepository()
	carts := newMockCartRepository()
	service := NewCartService(carts, products, nil)
	product := seedProduct(t, products, domain.SaleTypeRetail, "10.00", "")
	ctx := context.Background()

	first, err := service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	second, err := service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if second.ID != first.ID || second.Quantity != 5 {
		t.Errorf("merged line = id %d qty %d, want id %d qty 5", second.ID, second.Quantity, first.ID)
	}
	if len(carts.lines) != 1 {
		t.Errorf("lines = %d, want 1", len(carts.lines))
	}
}

func TestCartAddRejects(t *testing.T) {
	products := newMockProductRepository()
	service := NewCartService(newMockCartRepository(), products, nil)
	retailOnly := seedProduct(t, products, domain.SaleTypeRetail, "10.00", "")
	ctx := context.Background()

	_, err := service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: retailOnly.ID, SaleType: domain.SaleTypeWholesale})
	if !domain.IsValidationError(err) {
		t.Errorf("wholesale on retail-only product error = %v", err)
	}
	_, err = service.Add(ctx, AddToCartInput{SessionID: "", ProductID: retailOnly.ID})
	if !domain.IsValidationError(err) {
		t.Errorf("missing session error = %v", err)
	}
	_, err = service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: retailOnly.ID, Quantity: -2})
	if !domain.IsValidationError(err) {
		t.Errorf("negative quantity error = %v", err)
	}
	_, err = service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: 404})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing product error = %v", err)
	}
}

func TestCartUpdateQuantity(t *testing.T) {
	products := newMockProductRepository()
	carts := newMockCartRepository()
	service := NewCartService(carts, products, nil)
	product := seedProduct(t, products, domain.SaleTypeBoth, "10.00", "")
	ctx := context.Background()

	line, err := service.Add(ctx, AddToCartInput{SessionID: "s1", ProductID: product.ID})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	updated, err := service.UpdateQuantity(ctx, line.ID, 7)
	if err != nil || updated.Quantity != 7 {
		t.Fatalf("UpdateQuantity(7) = %v, %v", updated, err)
	}

	removed, err := service.UpdateQuantity(ctx, line.ID, 0)
	if err != nil || removed != nil {
		t.Fatalf("UpdateQuantity(0) = %v, %v", removed, err)
	}
	if len(carts.lines) != 0 {
		t.Errorf("line should be removed")
	}

	if _, err := service.UpdateQuantity(ctx, line.ID, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateQuantity() on removed line error = %v", err)
	}
	if err := service.Remove(ctx, line.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Remove() on removed line error = %v", err)
	}
}

func TestProperty_ClearSessionOnlyTouchesThatSession(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("clear removes every line of the session and no other", prop.ForAll(
		func(mine int, theirs int) bool {
			products := newMockProductRepository()
			carts := newMockCartRepository()
			service := NewCartService(carts, products, nil)
			ctx := context.Background()

			for i := 0; i < mine+theirs; i++ {
				product := &domain.Product{Name: "p", Price: decimal.NewFromInt(1), SaleType: domain.SaleTypeBoth}
				_ = products.Create(ctx, product)
				session := "mine"
				if i >= mine {
					session = "theirs"
				}
				if _, err := service.Add(ctx, AddToCartInput{SessionID: session, ProductID: product.ID}); err != nil {
					return false
				}
			}

			removed, err := service.Clear(ctx, "mine")
			if err != nil || removed != int64(mine) {
				return false
			}

			left, _ := service.Get(ctx, "mine")
			others, _ := service.Get(ctx, "theirs")
			return len(left) == 0 && len(others) == theirs
		},
		gen.IntRange(0, 8),
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
