package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Ensure BatchStore implements the interface.
var _ driven.BatchStore = (*BatchStore)(nil)

// BatchStore is an in-memory implementation of driven.BatchStore.
type BatchStore struct {
	mu       sync.RWMutex
	batches  map[string][]byte
	refs     map[string]domain.BatchRef
	next     map[harvestKey]int
	watchers []chan domain.BatchRef
}

// NewBatchStore creates a new in-memory batch store.
func NewBatchStore() *BatchStore {
	return &BatchStore{
		batches: make(map[string][]byte),
		refs:    make(map[string]domain.BatchRef),
		next:    make(map[harvestKey]int),
	}
}

// Write stores a page under the next sequence for (source, set).
func (s *BatchStore) Write(_ context.Context, sourceCode, setSpec string, data []byte) (domain.BatchRef, error) {
	s.mu.Lock()
	key := harvestKey{source: sourceCode, set: setSpec}
	s.next[key]++
	ref := domain.BatchRef{
		SourceCode: sourceCode,
		SetSpec:    setSpec,
		Sequence:   s.next[key],
	}
	ref.Key = fmt.Sprintf("%s/%s/batch_%06d.xml", sourceCode, setSpec, ref.Sequence)
	s.batches[ref.Key] = append([]byte(nil), data...)
	s.refs[ref.Key] = ref
	watchers := append([]chan domain.BatchRef(nil), s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		select {
		case w <- ref:
		default:
		}
	}
	return ref, nil
}

// List returns batches ordered by source, set and sequence.
func (s *BatchStore) List(_ context.Context, sourceCode, setSpec string) ([]domain.BatchRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.BatchRef
	for _, ref := range s.refs {
		if sourceCode != "" && ref.SourceCode != sourceCode {
			continue
		}
		if setSpec != "" && ref.SetSpec != setSpec {
			continue
		}
		result = append(result, ref)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.SourceCode != b.SourceCode {
			return a.SourceCode < b.SourceCode
		}
		if a.SetSpec != b.SetSpec {
			return a.SetSpec < b.SetSpec
		}
		return a.Sequence < b.Sequence
	})
	return result, nil
}

// Read returns the content of a batch.
func (s *BatchStore) Read(_ context.Context, ref domain.BatchRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.batches[ref.Key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

// Resolve looks a batch up by key.
func (s *BatchStore) Resolve(_ context.Context, name string) (domain.BatchRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[name]
	if !ok {
		return domain.BatchRef{}, domain.ErrNotFound
	}
	return ref, nil
}

// Watch emits batches written after the call until ctx is done.
func (s *BatchStore) Watch(ctx context.Context) (<-chan domain.BatchRef, <-chan error, error) {
	ch := make(chan domain.BatchRef, 64)
	errs := make(chan error)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	out := make(chan domain.BatchRef)
	go func() {
		defer close(out)
		defer close(errs)
		defer s.unwatch(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ref := <-ch:
				select {
				case out <- ref:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, errs, nil
}

func (s *BatchStore) unwatch(ch chan domain.BatchRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}
