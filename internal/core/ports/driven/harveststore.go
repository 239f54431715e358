package driven

import (
	"context"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// HarvestLogStore persists harvest progress.
// At most one log exists per (source, set) pair.
type HarvestLogStore interface {
	// Get retrieves the log for a (source, set) pair.
	// Returns domain.ErrNotFound if no harvest was ever started.
	Get(ctx context.Context, sourceCode, setSpec string) (*domain.HarvestLog, error)

	// Save inserts or updates the log for its (source, set) pair.
	Save(ctx context.Context, log domain.HarvestLog) error

	// List returns the logs of a source ordered by set.
	// An empty sourceCode returns every log ordered by source and set.
	List(ctx context.Context, sourceCode string) ([]domain.HarvestLog, error)
}
