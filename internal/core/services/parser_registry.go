package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// ParserRegistry maps parser type identifiers to parser factories.
// It is populated once at startup and read by the BatchProcessor.
type ParserRegistry struct {
	mu        sync.RWMutex
	factories map[string]driven.ParserFactory
}

// NewParserRegistry creates an empty parser registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		factories: make(map[string]driven.ParserFactory),
	}
}

// Register adds a parser factory under a type identifier.
// Registering the same type twice replaces the earlier factory.
func (r *ParserRegistry) Register(typ string, factory driven.ParserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normaliseParserType(typ)] = factory
}

// Resolve builds a parser for the given type, injected with the source's
// parser config. Unknown types yield (nil, nil); callers decide whether
// that is fatal. An error is returned only when the factory rejects the config.
func (r *ParserRegistry) Resolve(typ string, config map[string]any) (driven.RecordParser, error) {
	r.mu.RLock()
	factory, ok := r.factories[normaliseParserType(typ)]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	parser, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("build parser %s: %w", typ, err)
	}
	return parser, nil
}

// Has returns true if a parser type is registered.
func (r *ParserRegistry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normaliseParserType(typ)]
	return ok
}

// Types returns all registered parser types, sorted.
func (r *ParserRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for typ := range r.factories {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

func normaliseParserType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}
