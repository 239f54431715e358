package driving

import "context"

// Processor turns stored raw batches into records and persons.
type Processor interface {
	// Process parses and persists every batch matching the request.
	// Per-file and per-batch failures are counted in the stats; the error
	// return is reserved for top-level failures such as a missing file.
	Process(ctx context.Context, req ProcessRequest) (*ProcessStats, error)

	// Watch processes the stored backlog, then every batch written later,
	// until ctx is done. onBacklog receives the backlog stats once and
	// onBatch the stats of each later batch. req.File is ignored.
	Watch(ctx context.Context, req ProcessRequest, onBacklog, onBatch func(*ProcessStats)) error
}

// ProcessRequest selects which batches to process.
// Empty fields select all.
type ProcessRequest struct {
	SourceCode string
	SetSpec    string

	// File names a single batch and overrides SourceCode and SetSpec.
	File string

	// DryRun parses and counts without writing.
	DryRun bool
}

// ProcessStats is the aggregate outcome of a processing run.
type ProcessStats struct {
	// Files is the number of batch files visited.
	Files int

	// Processed counts records handed to a parser.
	Processed int

	// Saved counts records committed (or that would be, in dry-run).
	Saved int

	// Skipped counts deleted records.
	Skipped int

	// Errors counts unreadable files, unresolved parsers and unparseable records.
	Errors int

	// FailedBatches counts persistence transactions that rolled back.
	FailedBatches int
}

// Add accumulates other into s.
func (s *ProcessStats) Add(other ProcessStats) {
	s.Files += other.Files
	s.Processed += other.Processed
	s.Saved += other.Saved
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	s.FailedBatches += other.FailedBatches
}
