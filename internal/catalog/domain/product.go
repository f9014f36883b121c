package domain

import (
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID             string
	Name           string
	Description    string
	Category       string
	PriceCents     int64
	OnSale         bool
	SalePriceCents int64
	Stock          int
	WeightGrams    int
	ImageURLs      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EffectivePriceCents is the sale price when the product is on sale with a
// positive sale price, the base price otherwise.
func (p Product) EffectivePriceCents() int64 {
	if p.OnSale && p.SalePriceCents > 0 {
		return p.SalePriceCents
	}
	return p.PriceCents
}

func (p Product) Thumbnail() string {
	if len(p.ImageURLs) > 0 {
		return p.ImageURLs[0]
	}
	return ""
}

// StockRequest asks whether Quantity units of ProductID are available.
type StockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockShortage reports a line that cannot be served from current stock.
type StockShortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}
