// Package trends persists trend records and orchestrates the
// scrape → generate → store flow behind the REST handlers.
package trends

import (
	"context"

	"github.com/TrendDeskAI/trenddesk/engine/domain"
)

// Store is the persistence boundary. One implementation is chosen at
// process start (Neo4j when configured, CSV file otherwise) and the
// rest of the service never branches on which backend is active.
type Store interface {
	List(ctx context.Context) ([]domain.TrendRecord, error)
	Get(ctx context.Context, id string) (domain.TrendRecord, error)
	// Create assigns a fresh opaque id and returns the stored record.
	Create(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error)
	// Update replaces the full record identified by rec.ID.
	Update(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error)
	Delete(ctx context.Context, id string) error
}
