package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"autoparts/internal/database"
	"autoparts/internal/domain"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	Count(ctx context.Context) (int, error)
}

type productRepository struct {
	db *database.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *database.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, price_wholesale, image_url, category,
	inventory, featured, sale_type, min_wholesale_qty, created_at, updated_at`

// Create inserts a product and assigns its generated ID
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, price_wholesale, image_url, category,
			inventory, featured, sale_type, min_wholesale_qty, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.Get(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.PriceWholesale,
		product.ImageURL,
		product.Category,
		product.Inventory,
		product.Featured,
		product.SaleType,
		product.MinWholesaleQty,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, price_wholesale = ?, image_url = ?,
		    category = ?, inventory = ?, featured = ?, sale_type = ?, min_wholesale_qty = ?,
		    updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Run(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.PriceWholesale,
		product.ImageURL,
		product.Category,
		product.Inventory,
		product.Featured,
		product.SaleType,
		product.MinWholesaleQty,
		product.UpdatedAt,
		product.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectAffected(result, ErrProductNotFound)
}

// Delete removes the cart lines that reference the product, then the product itself
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	return r.db.InTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.Run(ctx, `DELETE FROM cart_items WHERE product_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete cart items for product: %w", err)
		}

		result, err := tx.Run(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		return expectAffected(result, ErrProductNotFound)
	})
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := scanProduct(r.db.Get(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// List returns products matching the filter, newest first.
// A sale type filter also matches products sold both ways.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.Category != nil {
		where = append(where, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.SaleType != nil {
		where = append(where, "(sale_type = ? OR sale_type = ?)")
		args = append(args, *filter.SaleType, domain.SaleTypeBoth)
	}
	if filter.Featured != nil {
		where = append(where, "featured = ?")
		args = append(args, *filter.Featured)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.All(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Count returns the number of catalogue entries
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.Get(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.PriceWholesale,
		&product.ImageURL,
		&product.Category,
		&product.Inventory,
		&product.Featured,
		&product.SaleType,
		&product.MinWholesaleQty,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
