package domain

import (
	"fmt"
	"time"
)

// HarvestStatus is the state of a (source, set) harvest.
type HarvestStatus string

// Harvest states.
const (
	// HarvestInProgress marks an active or resumed harvest.
	HarvestInProgress HarvestStatus = "IN_PROGRESS"

	// HarvestPaused marks a harvest stopped by a limit with a token remaining.
	HarvestPaused HarvestStatus = "PAUSED"

	// HarvestCompleted marks a harvest whose server reported no further token.
	HarvestCompleted HarvestStatus = "COMPLETED"

	// HarvestFailed marks a harvest stopped by an unrecoverable error.
	// The stored token still allows resumption.
	HarvestFailed HarvestStatus = "FAILED"
)

// IsValid returns true if the status is recognised.
func (s HarvestStatus) IsValid() bool {
	switch s {
	case HarvestInProgress, HarvestPaused, HarvestCompleted, HarvestFailed:
		return true
	default:
		return false
	}
}

// HarvestLog tracks harvesting progress for one (source, set) pair.
// There is at most one log per pair.
type HarvestLog struct {
	// ID is the unique identifier of the log row.
	ID string

	// SourceCode identifies the harvested Source.
	SourceCode string

	// SetSpec is the OAI-PMH set being harvested.
	SetSpec string

	// Status is the current state.
	Status HarvestStatus

	// ResumptionToken is the continuation cursor, empty when none.
	ResumptionToken string

	// RecordsHarvested counts records seen across all pages of this run.
	RecordsHarvested int

	// FilesCreated counts raw batch files written in this run.
	FilesCreated int

	// LastError is the message of the last failure.
	LastError string

	// StartedAt is when the current run started.
	StartedAt time.Time

	// CompletedAt is set when the harvest reaches COMPLETED.
	CompletedAt *time.Time
}

// CanResume reports whether the log holds a token to continue from.
func (l *HarvestLog) CanResume() bool {
	return (l.Status == HarvestPaused || l.Status == HarvestFailed) && l.ResumptionToken != ""
}

// BatchRef identifies one raw batch file.
type BatchRef struct {
	// SourceCode is the owning source.
	SourceCode string

	// SetSpec is the set the page was harvested from.
	SetSpec string

	// Sequence increases monotonically per (source, set).
	Sequence int

	// Key is the backend-specific location (file path or object key).
	Key string
}

// String returns a readable name for logs.
func (b BatchRef) String() string {
	if b.Key != "" {
		return b.Key
	}
	return fmt.Sprintf("%s/%s/%06d", b.SourceCode, b.SetSpec, b.Sequence)
}
