package driving

import (
	"context"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// SourceService manages the archive registry.
type SourceService interface {
	// Import creates or updates sources in bulk.
	// Returns the number of sources written.
	Import(ctx context.Context, sources []domain.Source) (int, error)

	// Get retrieves a source by code.
	Get(ctx context.Context, code string) (*domain.Source, error)

	// List returns all registered sources.
	List(ctx context.Context) ([]domain.Source, error)

	// Identify issues an Identify request and records the source's health.
	Identify(ctx context.Context, code string) (*driven.OAIIdentity, error)

	// Sets lists the OAI-PMH sets of a source.
	Sets(ctx context.Context, code string) ([]driven.OAISet, error)

	// Stats returns record and person counts per source.
	Stats(ctx context.Context) ([]domain.SourceStats, error)
}
