package driving

import (
	"context"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// Harvester drives OAI-PMH pagination for one (source, set) pair.
type Harvester interface {
	// Harvest fetches pages until the server is exhausted, the limit is
	// reached, or an unrecoverable error occurs. A failed page is recorded
	// in the log and reported through HarvestResult, not the error return.
	// The error return is reserved for top-level failures such as an
	// unknown or inactive source.
	Harvest(ctx context.Context, req HarvestRequest) (*HarvestResult, error)

	// Status returns the harvest log for a (source, set) pair.
	Status(ctx context.Context, sourceCode, setSpec string) (*domain.HarvestLog, error)

	// StatusAll returns every harvest log of a source.
	StatusAll(ctx context.Context, sourceCode string) ([]domain.HarvestLog, error)
}

// HarvestRequest selects what to harvest.
type HarvestRequest struct {
	SourceCode string
	SetSpec    string

	// Limit stops the harvest once this many records were fetched.
	// Zero means no limit.
	Limit int

	// Resume continues a FAILED log from its stored token.
	// PAUSED logs always continue from their token.
	Resume bool

	// From and Until restrict a fresh harvest by datestamp.
	From  string
	Until string
}

// HarvestResult summarises one Harvest call.
type HarvestResult struct {
	Log domain.HarvestLog

	// Pages is the number of pages fetched in this call.
	Pages int

	// Resumed is true when the first request used a stored token.
	Resumed bool

	// Err is the unrecoverable page error, if the harvest FAILED.
	Err error
}
