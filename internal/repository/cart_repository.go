package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"autoparts/internal/database"
	"autoparts/internal/domain"
)

// CartRepository stores anonymous session cart lines. It never merges or
// auto-deletes lines; those rules live in the cart service.
type CartRepository interface {
	Create(ctx context.Context, line *domain.CartLine) error
	FindByID(ctx context.Context, id int64) (*domain.CartLine, error)
	FindLine(ctx context.Context, sessionID string, productID int64, saleType domain.SaleType) (*domain.CartLine, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.CartLine, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

type cartRepository struct {
	db *database.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *database.DB) CartRepository {
	return &cartRepository{db: db}
}

const cartColumns = `id, session_id, product_id, product_name, product_image, product_price,
	sale_type, quantity, created_at, updated_at`

func (r *cartRepository) Create(ctx context.Context, line *domain.CartLine) error {
	query := `
		INSERT INTO cart_items (session_id, product_id, product_name, product_image, product_price,
			sale_type, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.Get(
		ctx,
		query,
		line.SessionID,
		line.ProductID,
		line.ProductName,
		line.ProductImage,
		line.ProductPrice,
		line.SaleType,
		line.Quantity,
		line.CreatedAt,
		line.UpdatedAt,
	).Scan(&line.ID)

	if err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) FindByID(ctx context.Context, id int64) (*domain.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE id = ?`

	line, err := scanCartLine(r.db.Get(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return line, nil
}

// FindLine returns the line for a session, product and sale type
func (r *cartRepository) FindLine(ctx context.Context, sessionID string, productID int64, saleType domain.SaleType) (*domain.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items
		WHERE session_id = ? AND product_id = ? AND sale_type = ?
		ORDER BY id ASC
		LIMIT 1`

	line, err := scanCartLine(r.db.Get(ctx, query, sessionID, productID, saleType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}

	return line, nil
}

// ListBySession returns the session's lines, newest first
func (r *cartRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.All(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	lines := []*domain.CartLine{}
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	query := `UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Run(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	return expectAffected(result, ErrCartLineNotFound)
}

func (r *cartRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Run(ctx, `DELETE FROM cart_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	return expectAffected(result, ErrCartLineNotFound)
}

// DeleteBySession removes every line of a session and reports how many went
func (r *cartRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.Run(ctx, `DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return removed, nil
}

func scanCartLine(row rowScanner) (*domain.CartLine, error) {
	line := &domain.CartLine{}
	err := row.Scan(
		&line.ID,
		&line.SessionID,
		&line.ProductID,
		&line.ProductName,
		&line.ProductImage,
		&line.ProductPrice,
		&line.SaleType,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return line, nil
}
