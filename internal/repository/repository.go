package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no row matches the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with an existing row")
)

// Repository is the data-access contract shared by every entity type.
// Insert and Update are committed before they return; there is no
// batching across calls and no delete.
type Repository[T any] interface {
	Init(ctx context.Context) error
	// GetAll returns every stored row. Each expansion names a relation
	// declared on T that is loaded alongside the rows.
	GetAll(ctx context.Context, expansions ...string) ([]T, error)
	GetByID(ctx context.Context, id any) (*T, error)
	Insert(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
}
