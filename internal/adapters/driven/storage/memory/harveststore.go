package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Ensure HarvestLogStore implements the interface.
var _ driven.HarvestLogStore = (*HarvestLogStore)(nil)

type harvestKey struct {
	source string
	set    string
}

// HarvestLogStore is an in-memory implementation of driven.HarvestLogStore.
type HarvestLogStore struct {
	mu   sync.RWMutex
	logs map[harvestKey]domain.HarvestLog
}

// NewHarvestLogStore creates a new in-memory harvest log store.
func NewHarvestLogStore() *HarvestLogStore {
	return &HarvestLogStore{
		logs: make(map[harvestKey]domain.HarvestLog),
	}
}

// Get retrieves the log for a (source, set) pair.
func (s *HarvestLogStore) Get(_ context.Context, sourceCode, setSpec string) (*domain.HarvestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[harvestKey{source: sourceCode, set: setSpec}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &log, nil
}

// Save inserts or updates the log for its (source, set) pair.
// The first ID stored for a pair is kept.
func (s *HarvestLogStore) Save(_ context.Context, log domain.HarvestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := harvestKey{source: log.SourceCode, set: log.SetSpec}
	if existing, ok := s.logs[key]; ok {
		log.ID = existing.ID
	}
	s.logs[key] = log
	return nil
}

// List returns all logs for a source, ordered by set.
func (s *HarvestLogStore) List(_ context.Context, sourceCode string) ([]domain.HarvestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.HarvestLog
	for key, log := range s.logs {
		if sourceCode == "" || key.source == sourceCode {
			result = append(result, log)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SourceCode != result[j].SourceCode {
			return result[i].SourceCode < result[j].SourceCode
		}
		return result[i].SetSpec < result[j].SetSpec
	})
	return result, nil
}
