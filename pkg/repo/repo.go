// Package repo provides a generic Neo4j-backed record repository.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is a generic CRUD interface over a record collection.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id ID) error
}

// ListOpts controls pagination for List operations. A Limit of zero
// or less returns the whole collection.
type ListOpts struct {
	Offset int
	Limit  int
}
