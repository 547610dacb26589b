package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Product struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	Stock        int        `json:"stock"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	IsBestseller bool       `json:"is_bestseller"`
	IsFeatured   bool       `json:"is_featured"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
