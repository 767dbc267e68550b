package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a product snapshot held in an anonymous session cart
type CartLine struct {
	ID           int64           `json:"id" db:"id"`
	SessionID    string          `json:"session_id" db:"session_id"`
	ProductID    int64           `json:"product_id" db:"product_id"`
	ProductName  string          `json:"product_name" db:"product_name"`
	ProductImage string          `json:"product_image" db:"product_image"`
	ProductPrice decimal.Decimal `json:"product_price" db:"product_price"`
	SaleType     SaleType        `json:"sale_type" db:"sale_type"`
	Quantity     int             `json:"quantity" db:"quantity"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Subtotal returns price times quantity
func (l *CartLine) Subtotal() decimal.Decimal {
	return l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderItem converts the line into an order snapshot item
func (l *CartLine) OrderItem() OrderItem {
	return OrderItem{
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		Quantity:    l.Quantity,
		Price:       l.ProductPrice,
		SaleType:    l.SaleType,
	}
}
