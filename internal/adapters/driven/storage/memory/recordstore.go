package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
// Transactions work on a copy of the data and replace it on commit.
type RecordStore struct {
	mu      sync.RWMutex
	records map[domain.RecordKey]domain.StoredRecord
	persons map[domain.RecordKey][]domain.StoredPerson
	nextID  int64
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[domain.RecordKey]domain.StoredRecord),
		persons: make(map[domain.RecordKey][]domain.StoredPerson),
	}
}

// WithTx runs fn against a snapshot and commits it when fn returns nil.
func (s *RecordStore) WithTx(ctx context.Context, fn func(tx driven.RecordTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &recordTx{
		records: make(map[domain.RecordKey]domain.StoredRecord, len(s.records)),
		persons: make(map[domain.RecordKey][]domain.StoredPerson, len(s.persons)),
		nextID:  s.nextID,
	}
	for k, v := range s.records {
		tx.records[k] = v
	}
	for k, v := range s.persons {
		tx.persons[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.records = tx.records
	s.persons = tx.persons
	s.nextID = tx.nextID
	return nil
}

// GetRecord retrieves a stored record by key.
func (s *RecordStore) GetRecord(_ context.Context, key domain.RecordKey) (*domain.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListPersons returns the persons of a record in insertion order.
func (s *RecordStore) ListPersons(_ context.Context, key domain.RecordKey) ([]domain.StoredPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	persons := s.persons[key]
	out := make([]domain.StoredPerson, len(persons))
	copy(out, persons)
	return out, nil
}

// Stats returns record and person counts per source.
func (s *RecordStore) Stats(_ context.Context) ([]domain.SourceStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySource := make(map[string]*domain.SourceStats)
	for key, rec := range s.records {
		st, ok := bySource[rec.SourceCode]
		if !ok {
			st = &domain.SourceStats{SourceCode: rec.SourceCode}
			bySource[rec.SourceCode] = st
		}
		st.Records++
		st.Persons += len(s.persons[key])
	}

	result := make([]domain.SourceStats, 0, len(bySource))
	for _, st := range bySource {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SourceCode < result[j].SourceCode })
	return result, nil
}

// recordTx implements driven.RecordTx over a private copy of the store.
type recordTx struct {
	records map[domain.RecordKey]domain.StoredRecord
	persons map[domain.RecordKey][]domain.StoredPerson
	nextID  int64
}

func (t *recordTx) UpsertRecord(_ context.Context, rec *domain.ParsedRecord) error {
	key := rec.Key()
	now := time.Now()
	stored, ok := t.records[key]
	if !ok {
		stored = domain.StoredRecord{
			Key:        key,
			SourceCode: rec.SourceCode,
			SetSpec:    rec.SetSpec,
			RecordType: rec.RecordType,
			CreatedAt:  now,
		}
	}
	stored.EventDate = rec.EventDate
	stored.EventPlace = rec.EventPlace
	stored.RawData = append([]byte(nil), rec.RawData...)
	stored.UpdatedAt = now
	t.records[key] = stored
	return nil
}

func (t *recordTx) DeletePersons(_ context.Context, key domain.RecordKey) (int64, error) {
	n := int64(len(t.persons[key]))
	delete(t.persons, key)
	return n, nil
}

func (t *recordTx) InsertPersons(_ context.Context, key domain.RecordKey, persons []domain.ParsedPerson) error {
	if _, ok := t.records[key]; !ok {
		return domain.ErrNotFound
	}
	existing := t.persons[key]
	out := make([]domain.StoredPerson, 0, len(existing)+len(persons))
	out = append(out, existing...)
	for _, p := range persons {
		t.nextID++
		out = append(out, domain.StoredPerson{
			ID:           t.nextID,
			RecordKey:    key,
			Position:     len(out),
			BirthYear:    p.BirthYear(key.EventYear),
			ParsedPerson: p,
		})
	}
	t.persons[key] = out
	return nil
}
