// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"safeswipe/internal/model"
)

// ScanRepository defines data access for scans using SQL queries only.
// No business logic here — strictly persistence operations.
type ScanRepository interface {
	// Create inserts a new scan record and returns the stored row.
	Create(ctx context.Context, scan *model.Scan) (*model.Scan, error)

	// FindByID returns a scan by its ID.
	FindByID(ctx context.Context, id string) (*model.Scan, error)

	// List returns a paginated list of scans and the total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Scan], error)

	// Delete removes a scan by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
