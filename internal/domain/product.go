package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed catalogue sections
type Category string

const (
	CategoryEngine     Category = "engine"
	CategoryBrakes     Category = "brakes"
	CategorySuspension Category = "suspension"
	CategoryElectrical Category = "electrical"
	CategoryTires      Category = "tires"
	CategoryTools      Category = "tools"
)

// Categories lists every valid category
var Categories = []Category{
	CategoryEngine,
	CategoryBrakes,
	CategorySuspension,
	CategoryElectrical,
	CategoryTires,
	CategoryTools,
}

// Valid reports whether c belongs to the closed category set
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// SaleType tags retail (detal) or wholesale (mayor) pricing
type SaleType string

const (
	SaleTypeRetail    SaleType = "detal"
	SaleTypeWholesale SaleType = "mayor"
	SaleTypeBoth      SaleType = "both"
)

// Valid reports whether s is a known product sale type
func (s SaleType) Valid() bool {
	return s == SaleTypeRetail || s == SaleTypeWholesale || s == SaleTypeBoth
}

// ValidForLine reports whether s can be used on a cart or order line
func (s SaleType) ValidForLine() bool {
	return s == SaleTypeRetail || s == SaleTypeWholesale
}

const DefaultMinWholesaleQty = 10

// Product represents a product in the catalog
type Product struct {
	ID              int64               `json:"id" db:"id"`
	Name            string              `json:"name" db:"name"`
	Description     string              `json:"description" db:"description"`
	Price           decimal.Decimal     `json:"price" db:"price"`
	PriceWholesale  decimal.NullDecimal `json:"price_wholesale" db:"price_wholesale"`
	ImageURL        string              `json:"image_url" db:"image_url"`
	Category        Category            `json:"category" db:"category"`
	Inventory       int                 `json:"inventory" db:"inventory"`
	Featured        bool                `json:"featured" db:"featured"`
	SaleType        SaleType            `json:"sale_type" db:"sale_type"`
	MinWholesaleQty int                 `json:"min_wholesale_qty" db:"min_wholesale_qty"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// Sells reports whether the product may be sold under the given line sale type
func (p *Product) Sells(saleType SaleType) bool {
	switch p.SaleType {
	case SaleTypeBoth:
		return saleType.ValidForLine()
	default:
		return p.SaleType == saleType
	}
}

// PriceFor returns the unit price for a line of the given sale type.
// Wholesale lines fall back to the retail price when no wholesale price is set.
func (p *Product) PriceFor(saleType SaleType) decimal.Decimal {
	if saleType == SaleTypeWholesale && p.PriceWholesale.Valid {
		return p.PriceWholesale.Decimal
	}
	return p.Price
}

// ProductFilter narrows a catalogue listing
type ProductFilter struct {
	Category *Category
	SaleType *SaleType
	Featured *bool
}
