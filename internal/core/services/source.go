package services

import (
	"context"
	"fmt"
	"time"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
	"github.com/activemonkeys/geneax/internal/logger"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService manages the archive registry.
type SourceService struct {
	sourceStore driven.SourceStore
	recordStore driven.RecordStore
	client      driven.OAIClient
}

// NewSourceService creates a new source service.
func NewSourceService(
	sourceStore driven.SourceStore,
	recordStore driven.RecordStore,
	client driven.OAIClient,
) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		recordStore: recordStore,
		client:      client,
	}
}

// Import validates every source before writing any of them.
// Codes are normalised; health fields of existing sources are kept.
func (s *SourceService) Import(ctx context.Context, sources []domain.Source) (int, error) {
	seen := make(map[string]bool, len(sources))
	prepared := make([]domain.Source, 0, len(sources))
	for i, src := range sources {
		src.Code = domain.NormaliseSourceCode(src.Code)
		if err := src.Validate(); err != nil {
			return 0, fmt.Errorf("source %d: %w", i+1, err)
		}
		if seen[src.Code] {
			return 0, fmt.Errorf("%w: duplicate source code %s", domain.ErrInvalidInput, src.Code)
		}
		seen[src.Code] = true
		prepared = append(prepared, src)
	}

	for i := range prepared {
		src := &prepared[i]
		if existing, err := s.sourceStore.Get(ctx, src.Code); err == nil {
			src.OverallStatus = existing.OverallStatus
			src.LastHealthCheck = existing.LastHealthCheck
		}
		if src.OverallStatus == "" {
			src.OverallStatus = domain.SourceStatusUnknown
		}
		if err := s.sourceStore.Save(ctx, *src); err != nil {
			return i, fmt.Errorf("save source %s: %w", src.Code, err)
		}
	}
	logger.Info("Imported %d sources", len(prepared))
	return len(prepared), nil
}

// Get retrieves a source by code.
func (s *SourceService) Get(ctx context.Context, code string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, domain.NormaliseSourceCode(code))
}

// List returns all registered sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}

// Identify checks that a source answers and records the outcome as its health.
func (s *SourceService) Identify(ctx context.Context, code string) (*driven.OAIIdentity, error) {
	source, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	identity, idErr := s.client.Identify(ctx, source.OAIURL)
	status := domain.SourceStatusOnline
	if idErr != nil {
		status = domain.SourceStatusOffline
	}
	if err := s.sourceStore.UpdateHealth(context.WithoutCancel(ctx), source.Code, status, time.Now()); err != nil {
		logger.Warn("Could not record health of %s: %v", source.Code, err)
	}
	if idErr != nil {
		return nil, fmt.Errorf("identify %s: %w", source.Code, idErr)
	}
	return identity, nil
}

// Sets lists the OAI-PMH sets of a source.
func (s *SourceService) Sets(ctx context.Context, code string) ([]driven.OAISet, error) {
	source, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	sets, err := s.client.ListSets(ctx, source.OAIURL)
	if err != nil {
		return nil, fmt.Errorf("list sets of %s: %w", source.Code, err)
	}
	return sets, nil
}

// Stats returns record and person counts per source.
func (s *SourceService) Stats(ctx context.Context) ([]domain.SourceStats, error) {
	return s.recordStore.Stats(ctx)
}
