package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGraphBoundsExceeded indicates that graph traversal exceeded bounds.
	ErrGraphBoundsExceeded = errors.New("graph bounds exceeded")

	// ErrDimensionMismatch indicates an embedding model/dimension mismatch
	// against the vector store's recorded meta (spec §4.2 model-identity
	// guard).
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// PaginatedResult represents a paginated result set with type safety using
// generics.
type PaginatedResult[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// ListOptions provides pagination and filtering options for list
// operations over nodes.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string

	// Labels restricts results to nodes carrying any of these labels
	// (empty = no filter).
	Labels []string

	// Author filters to nodes whose author property contains this
	// substring, case-insensitively. Empty means no filter.
	Author string

	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// Normalize applies defaults and validates the ListOptions.
func (o *ListOptions) Normalize() {
	allowedSortFields := map[string]bool{
		"created_at":    true,
		"last_accessed": true,
		"strength":      true,
		"id":            true,
	}
	if !allowedSortFields[o.SortBy] {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 20
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
}

// Offset calculates the offset for SQL queries based on page and limit.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// GraphBounds prevents combinatorial explosion during graph traversal /
// spreading activation (spec §5 "Ingestion caps").
type GraphBounds struct {
	MaxHops  int
	MaxNodes int
	MaxEdges int
	Timeout  time.Duration
}

// Normalize applies defaults and caps to GraphBounds.
func (g *GraphBounds) Normalize() {
	if g.MaxHops < 1 {
		g.MaxHops = 2
	}
	if g.MaxHops > 10 {
		g.MaxHops = 10
	}
	if g.MaxNodes < 1 {
		g.MaxNodes = 100
	}
	if g.MaxNodes > 1000 {
		g.MaxNodes = 1000
	}
	if g.MaxEdges < 1 {
		g.MaxEdges = 500
	}
	if g.MaxEdges > 5000 {
		g.MaxEdges = 5000
	}
	if g.Timeout == 0 {
		g.Timeout = 30 * time.Second
	}
	if g.Timeout > 5*time.Minute {
		g.Timeout = 5 * time.Minute
	}
}
