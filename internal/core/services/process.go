package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
	"github.com/activemonkeys/geneax/internal/logger"
)

// Ensure BatchProcessor implements the interface.
var _ driving.Processor = (*BatchProcessor)(nil)

// ProcessConfig tunes the batch processor.
type ProcessConfig struct {
	// BatchSize is the number of records persisted per transaction.
	BatchSize int

	// Workers is the number of sources processed concurrently.
	Workers int
}

// BatchProcessor parses stored raw batches and persists the records.
// Sources are processed concurrently, the files of one source in order.
type BatchProcessor struct {
	sources  driven.SourceStore
	batches  driven.BatchStore
	records  driven.RecordStore
	decoder  driven.BatchDecoder
	registry *ParserRegistry
	cfg      ProcessConfig
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(
	sources driven.SourceStore,
	batches driven.BatchStore,
	records driven.RecordStore,
	decoder driven.BatchDecoder,
	registry *ParserRegistry,
	cfg ProcessConfig,
) *BatchProcessor {
	defaults := domain.DefaultSettings().Processor
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	return &BatchProcessor{
		sources:  sources,
		batches:  batches,
		records:  records,
		decoder:  decoder,
		registry: registry,
		cfg:      cfg,
	}
}

// Process parses and persists every batch selected by req.
func (p *BatchProcessor) Process(ctx context.Context, req driving.ProcessRequest) (*driving.ProcessStats, error) {
	refs, err := p.selectBatches(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		logger.Info("No batch files found")
		return &driving.ProcessStats{}, nil
	}

	logger.Info("Found %d batch files", len(refs))
	stats := p.run(ctx, refs, req.DryRun, newParserCache(p.sources, p.registry))
	return stats, nil
}

// Watch processes the backlog and then batches as the store reports them,
// until ctx is done. The store watch is installed before the backlog is
// listed; a batch reported by both is processed once.
func (p *BatchProcessor) Watch(ctx context.Context, req driving.ProcessRequest, onBacklog, onBatch func(*driving.ProcessStats)) error {
	refs, errs, err := p.batches.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch batches: %w", err)
	}

	code := domain.NormaliseSourceCode(req.SourceCode)
	backlog, err := p.batches.List(ctx, code, req.SetSpec)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	seen := make(map[string]bool, len(backlog))
	for _, ref := range backlog {
		seen[ref.Key] = true
	}

	cache := newParserCache(p.sources, p.registry)
	stats := &driving.ProcessStats{}
	if len(backlog) > 0 {
		logger.Info("Found %d batch files", len(backlog))
		stats = p.run(ctx, backlog, req.DryRun, cache)
	}
	if onBacklog != nil {
		onBacklog(stats)
	}
	logger.Info("Watching for new batches")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("Watch error: %v", err)
		case ref, ok := <-refs:
			if !ok {
				return nil
			}
			if code != "" && ref.SourceCode != code {
				continue
			}
			if req.SetSpec != "" && ref.SetSpec != req.SetSpec {
				continue
			}
			if seen[ref.Key] {
				continue
			}
			seen[ref.Key] = true
			stats := p.run(ctx, []domain.BatchRef{ref}, req.DryRun, cache)
			if onBatch != nil {
				onBatch(stats)
			}
		}
	}
}

func (p *BatchProcessor) selectBatches(ctx context.Context, req driving.ProcessRequest) ([]domain.BatchRef, error) {
	if req.File != "" {
		ref, err := p.batches.Resolve(ctx, req.File)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", req.File, err)
		}
		return []domain.BatchRef{ref}, nil
	}

	refs, err := p.batches.List(ctx, domain.NormaliseSourceCode(req.SourceCode), req.SetSpec)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return refs, nil
}

// run fans the source groups out to the worker pool and sums their stats.
func (p *BatchProcessor) run(ctx context.Context, refs []domain.BatchRef, dryRun bool, cache *parserCache) *driving.ProcessStats {
	groups := make(map[string][]domain.BatchRef)
	for _, ref := range refs {
		groups[ref.SourceCode] = append(groups[ref.SourceCode], ref)
	}
	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	jobs := make(chan string)
	var (
		mu    sync.Mutex
		total driving.ProcessStats
		wg    sync.WaitGroup
	)

	workers := min(p.cfg.Workers, len(codes))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range jobs {
				stats := p.processSource(ctx, groups[code], dryRun, cache)
				mu.Lock()
				total.Add(stats)
				mu.Unlock()
			}
		}()
	}

	for _, code := range codes {
		jobs <- code
	}
	close(jobs)
	wg.Wait()

	return &total
}

// processSource handles the files of one source in sequence.
func (p *BatchProcessor) processSource(ctx context.Context, refs []domain.BatchRef, dryRun bool, cache *parserCache) driving.ProcessStats {
	var stats driving.ProcessStats
	for _, ref := range refs {
		if ctx.Err() != nil {
			logger.Warn("Processing interrupted before %s", ref)
			break
		}
		stats.Add(p.processFile(ctx, ref, dryRun, cache))
	}
	return stats
}

// processFile parses one batch and persists its records in transactions of
// BatchSize records. A failed transaction is counted and the next one runs.
func (p *BatchProcessor) processFile(ctx context.Context, ref domain.BatchRef, dryRun bool, cache *parserCache) driving.ProcessStats {
	stats := driving.ProcessStats{Files: 1}

	parser, err := cache.get(ctx, ref.SourceCode)
	if err != nil {
		logger.Error("Skipping %s: %v", ref, err)
		stats.Errors++
		return stats
	}

	raw, err := p.batches.Read(ctx, ref)
	if err != nil {
		logger.Error("Read %s: %v", ref, err)
		stats.Errors++
		return stats
	}
	page, err := p.decoder.DecodeBatch(raw)
	if err != nil {
		logger.Error("Decode %s: %v", ref, err)
		stats.Errors++
		return stats
	}

	parsed := make([]*domain.ParsedRecord, 0, len(page.Records))
	for _, rec := range page.Records {
		if rec.Deleted || rec.Identifier == "" {
			stats.Skipped++
			continue
		}

		stats.Processed++
		pr, err := parser.Parse(rec.Metadata, driven.ParseContext{
			SourceCode: ref.SourceCode,
			SetSpec:    ref.SetSpec,
			ExternalID: rec.Identifier,
		})
		switch {
		case err != nil:
			logger.Debug("Parse %s: %v", rec.Identifier, err)
			stats.Errors++
			continue
		case pr == nil:
			logger.Debug("No source descriptor in %s", rec.Identifier)
			stats.Errors++
			continue
		}
		pr.ApplyFallbackYear()
		parsed = append(parsed, pr)
	}

	if dryRun {
		stats.Saved += len(parsed)
		logger.Info("Dry run: parsed %d records from %s", len(parsed), ref)
		return stats
	}

	for start := 0; start < len(parsed); start += p.cfg.BatchSize {
		if ctx.Err() != nil {
			logger.Warn("Processing of %s interrupted", ref)
			break
		}
		end := min(start+p.cfg.BatchSize, len(parsed))
		batch := parsed[start:end]
		if err := p.persist(ctx, batch); err != nil {
			logger.Error("Batch %d-%d of %s rolled back: %v", start, end, ref, err)
			stats.FailedBatches++
			continue
		}
		stats.Saved += len(batch)
		logger.Progress("%s: saved %d/%d", ref, end, len(parsed))
	}
	logger.ProgressDone()
	logger.Info("%s: %d processed, %d saved, %d errors", ref, stats.Processed, stats.Saved, stats.Errors)
	return stats
}

// persist upserts each record and replaces its persons in one transaction.
func (p *BatchProcessor) persist(ctx context.Context, batch []*domain.ParsedRecord) error {
	return p.records.WithTx(ctx, func(tx driven.RecordTx) error {
		for _, rec := range batch {
			key := rec.Key()
			if err := tx.UpsertRecord(ctx, rec); err != nil {
				return fmt.Errorf("upsert %s/%d: %w", key.ExternalID, key.EventYear, err)
			}
			if _, err := tx.DeletePersons(ctx, key); err != nil {
				return fmt.Errorf("delete persons of %s/%d: %w", key.ExternalID, key.EventYear, err)
			}
			if len(rec.Persons) == 0 {
				continue
			}
			if err := tx.InsertPersons(ctx, key, rec.Persons); err != nil {
				return fmt.Errorf("insert persons of %s/%d: %w", key.ExternalID, key.EventYear, err)
			}
		}
		return nil
	})
}

// parserCache resolves each source's parser once per run.
// Lookups are serialised so a source's config is read a single time.
type parserCache struct {
	sources  driven.SourceStore
	registry *ParserRegistry

	mu      sync.Mutex
	entries map[string]parserEntry
}

type parserEntry struct {
	parser driven.RecordParser
	err    error
}

func newParserCache(sources driven.SourceStore, registry *ParserRegistry) *parserCache {
	return &parserCache{
		sources:  sources,
		registry: registry,
		entries:  make(map[string]parserEntry),
	}
}

func (c *parserCache) get(ctx context.Context, code string) (driven.RecordParser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[code]; ok {
		return e.parser, e.err
	}

	var e parserEntry
	source, err := c.sources.Get(ctx, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		e.err = fmt.Errorf("source %s is not registered: %w", code, err)
	case err != nil:
		e.err = fmt.Errorf("get source %s: %w", code, err)
	default:
		e.parser, e.err = c.registry.Resolve(source.ParserType, source.ParserConfig)
		if e.err == nil && e.parser == nil {
			e.err = fmt.Errorf("%w: parser type %q of source %s", domain.ErrUnsupportedType, source.ParserType, code)
		}
	}

	// Context errors are not cached so a later run can retry.
	if ctx.Err() == nil {
		c.entries[code] = e
	}
	return e.parser, e.err
}
