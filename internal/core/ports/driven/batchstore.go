package driven

import (
	"context"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// BatchStore holds raw OAI-PMH response pages.
// Batches are write-once: a written batch is never modified.
type BatchStore interface {
	// Write stores a page under the next sequence for (source, set).
	Write(ctx context.Context, sourceCode, setSpec string, data []byte) (domain.BatchRef, error)

	// List returns batches ordered by source, set and sequence.
	// Empty sourceCode or setSpec selects all.
	List(ctx context.Context, sourceCode, setSpec string) ([]domain.BatchRef, error)

	// Read returns the content of a batch.
	Read(ctx context.Context, ref domain.BatchRef) ([]byte, error)

	// Resolve turns a user-supplied file name or key into a BatchRef.
	// Returns domain.ErrNotFound if it does not exist.
	Resolve(ctx context.Context, name string) (domain.BatchRef, error)

	// Watch emits batches as they are written.
	// Returns domain.ErrNotImplemented for backends without notifications.
	Watch(ctx context.Context) (<-chan domain.BatchRef, <-chan error, error)
}
