package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[string]domain.Source
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources: make(map[string]domain.Source),
	}
}

// Save stores or updates a source.
func (s *SourceStore) Save(_ context.Context, source domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source.Code = domain.NormaliseSourceCode(source.Code)
	now := time.Now()
	if existing, ok := s.sources[source.Code]; ok {
		source.CreatedAt = existing.CreatedAt
	} else if source.CreatedAt.IsZero() {
		source.CreatedAt = now
	}
	source.UpdatedAt = now
	s.sources[source.Code] = source
	return nil
}

// Get retrieves a source by code.
func (s *SourceStore) Get(_ context.Context, code string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[domain.NormaliseSourceCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// List returns all sources ordered by code.
func (s *SourceStore) List(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Source, 0, len(s.sources))
	for _, source := range s.sources {
		result = append(result, source)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// UpdateHealth records the result of a health check.
func (s *SourceStore) UpdateHealth(_ context.Context, code, status string, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = domain.NormaliseSourceCode(code)
	source, ok := s.sources[code]
	if !ok {
		return domain.ErrNotFound
	}
	source.OverallStatus = status
	source.LastHealthCheck = checkedAt
	s.sources[code] = source
	return nil
}
