package driven

import (
	"context"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// RecordStore persists normalised records and their persons.
type RecordStore interface {
	// WithTx runs fn inside one atomic transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx RecordTx) error) error

	// GetRecord retrieves a stored record by key.
	// Returns domain.ErrNotFound if the record does not exist.
	GetRecord(ctx context.Context, key domain.RecordKey) (*domain.StoredRecord, error)

	// ListPersons returns the persons of a record in insertion order.
	ListPersons(ctx context.Context, key domain.RecordKey) ([]domain.StoredPerson, error)

	// Stats returns record and person counts per source.
	Stats(ctx context.Context) ([]domain.SourceStats, error)
}

// RecordTx exposes the write primitives available inside a transaction.
type RecordTx interface {
	// UpsertRecord creates the record on first sight, or updates its raw
	// data, date and place fields when the key already exists.
	UpsertRecord(ctx context.Context, rec *domain.ParsedRecord) error

	// DeletePersons removes all persons owned by a record.
	DeletePersons(ctx context.Context, key domain.RecordKey) (int64, error)

	// InsertPersons bulk-inserts persons for a record, preserving order.
	InsertPersons(ctx context.Context, key domain.RecordKey, persons []domain.ParsedPerson) error
}
