package models

import "time"

type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"is_active"`
	ImageKey    string    `json:"image_key,omitempty"` // object storage key
	ImageURL    string    `json:"image_url,omitempty"`
	// Duration window in days (e.g. seed effectiveness / crop cycle)
	DurationFrom int       `json:"duration_from"`
	DurationTo   int       `json:"duration_to"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Stock        int     `json:"stock"`
	DurationFrom int     `json:"duration_from"`
	DurationTo   int     `json:"duration_to"`
	// Image is an optional base64/data-URL payload uploaded to object storage
	Image string `json:"image,omitempty"`
}

// UpdateProductRequest represents the request body for updating a product.
// Pointer fields distinguish "not sent" from zero values.
type UpdateProductRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Stock        *int     `json:"stock,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
	DurationFrom *int     `json:"duration_from,omitempty"`
	DurationTo   *int     `json:"duration_to,omitempty"`
	Image        string   `json:"image,omitempty"`
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Category string
	Search   string
	Active   *bool
}
