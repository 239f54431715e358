package driven

import (
	"context"
	"time"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// SourceStore persists archive sources.
type SourceStore interface {
	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by code.
	// Returns domain.ErrNotFound if the source does not exist.
	Get(ctx context.Context, code string) (*domain.Source, error)

	// List returns all sources ordered by code.
	List(ctx context.Context) ([]domain.Source, error)

	// UpdateHealth records the result of a health check.
	// This is the only source mutation the pipeline performs.
	UpdateHealth(ctx context.Context, code, status string, checkedAt time.Time) error
}
