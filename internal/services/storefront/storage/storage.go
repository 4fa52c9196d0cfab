// Package storage defines persistence contracts for storefront catalog state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/product"
)

var (
	// ErrNotFound indicates a requested catalog record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// ProductRecord stores one catalog product.
type ProductRecord struct {
	Product   product.Product
	UpdatedAt time.Time
}

// SectionRecord stores one content section and its raw rich text.
type SectionRecord struct {
	ID            string
	Kind          string
	ProductHandle string
	Position      int
	Richtext      json.RawMessage
	UpdatedAt     time.Time
}

// ProductStore persists catalog products keyed by handle.
type ProductStore interface {
	PutProduct(ctx context.Context, record ProductRecord) error
	GetProduct(ctx context.Context, handle string) (ProductRecord, error)
}

// SectionStore persists content sections.
type SectionStore interface {
	PutSection(ctx context.Context, record SectionRecord) error
	GetSection(ctx context.Context, id string) (SectionRecord, error)
	ListProductSections(ctx context.Context, handle string) ([]SectionRecord, error)
}

// Store is the full catalog persistence surface.
type Store interface {
	ProductStore
	SectionStore
}
