package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

// Line is one stored cart line, unique per (user, product).
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricedLine is a cart line priced against the current catalog.
type PricedLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	LineTotal float64   `json:"line_total"`
}

// Totals is the result of pricing a cart after read-repair.
type Totals struct {
	Lines    []PricedLine `json:"lines"`
	Subtotal float64      `json:"subtotal"`
	Tax      float64      `json:"tax"`
	Total    float64      `json:"total"`
}
