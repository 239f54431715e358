package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
	"github.com/activemonkeys/geneax/internal/logger"
)

// Ensure HarvestCoordinator implements the interface.
var _ driving.Harvester = (*HarvestCoordinator)(nil)

// errTokenRepeated is returned when a server hands back the token it was given.
var errTokenRepeated = errors.New("resumption token did not change")

// HarvestConfig tunes the coordinator.
type HarvestConfig struct {
	// MaxRetries is the number of extra attempts for transient page errors.
	MaxRetries int

	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration

	// MetadataPrefix is requested when a source does not configure one.
	MetadataPrefix string
}

// HarvestCoordinator drives the ListRecords pagination loop for one
// (source, set) pair, writing every page to the batch store and
// checkpointing the harvest log after each page.
type HarvestCoordinator struct {
	sources driven.SourceStore
	logs    driven.HarvestLogStore
	batches driven.BatchStore
	client  driven.OAIClient
	cfg     HarvestConfig

	mu     sync.Mutex
	active map[string]bool
}

// NewHarvestCoordinator creates a new harvest coordinator.
func NewHarvestCoordinator(
	sources driven.SourceStore,
	logs driven.HarvestLogStore,
	batches driven.BatchStore,
	client driven.OAIClient,
	cfg HarvestConfig,
) *HarvestCoordinator {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MetadataPrefix == "" {
		cfg.MetadataPrefix = domain.DefaultSettings().Harvest.MetadataPrefix
	}
	return &HarvestCoordinator{
		sources: sources,
		logs:    logs,
		batches: batches,
		client:  client,
		cfg:     cfg,
		active:  make(map[string]bool),
	}
}

// Harvest fetches pages for a (source, set) pair until the server reports
// no further token, the record limit is reached, or a page fails.
func (h *HarvestCoordinator) Harvest(ctx context.Context, req driving.HarvestRequest) (*driving.HarvestResult, error) {
	code := domain.NormaliseSourceCode(req.SourceCode)
	if req.SetSpec == "" {
		return nil, fmt.Errorf("%w: set spec is required", domain.ErrInvalidInput)
	}

	source, err := h.sources.Get(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", code, err)
	}
	if !source.IsActive {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceInactive, code)
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}

	release, err := h.acquire(code, req.SetSpec)
	if err != nil {
		return nil, err
	}
	defer release()

	log, resumed, err := h.begin(ctx, code, req)
	if err != nil {
		return nil, err
	}

	result := &driving.HarvestResult{Resumed: resumed}
	prefix := domain.DecodeParserConfig(source.ParserConfig).MetadataPrefix
	if prefix == "" {
		prefix = h.cfg.MetadataPrefix
	}

	logger.Section(fmt.Sprintf("Harvest %s/%s", code, req.SetSpec))
	if resumed {
		logger.Info("Resuming harvest from token %s", log.ResumptionToken)
	}
	defer logger.ProgressDone()

	for {
		if err := ctx.Err(); err != nil {
			return h.interrupt(ctx, log, result, err)
		}

		sent := log.ResumptionToken
		opts := driven.ListRecordsOptions{
			BaseURL:         source.OAIURL,
			MetadataPrefix:  prefix,
			Set:             req.SetSpec,
			From:            req.From,
			Until:           req.Until,
			ResumptionToken: sent,
		}

		page, err := h.fetch(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				return h.interrupt(ctx, log, result, ctx.Err())
			}
			return h.fail(ctx, log, result, fmt.Errorf("fetch page: %w", err))
		}

		ref, err := h.batches.Write(ctx, code, req.SetSpec, page.Raw)
		if err != nil {
			return h.fail(ctx, log, result, fmt.Errorf("write batch: %w", err))
		}

		result.Pages++
		log.RecordsHarvested += len(page.Records)
		log.FilesCreated++
		log.ResumptionToken = page.ResumptionToken
		logger.Info("Batch %d: %d records (%s)", log.FilesCreated, len(page.Records), ref)
		if page.CompleteListSize > 0 {
			logger.Progress("%s/%s: %d/%d records", code, req.SetSpec, log.RecordsHarvested, page.CompleteListSize)
		}

		switch {
		case log.ResumptionToken == "":
			now := time.Now()
			log.Status = domain.HarvestCompleted
			log.CompletedAt = &now
		case log.ResumptionToken == sent:
			return h.fail(ctx, log, result, errTokenRepeated)
		case req.Limit > 0 && log.RecordsHarvested >= req.Limit:
			logger.Info("Limit of %d records reached", req.Limit)
			log.Status = domain.HarvestPaused
		}

		if err := h.logs.Save(ctx, *log); err != nil {
			return nil, fmt.Errorf("checkpoint harvest log: %w", err)
		}
		if log.Status != domain.HarvestInProgress {
			result.Log = *log
			return result, nil
		}
	}
}

// Status returns the harvest log for a (source, set) pair.
func (h *HarvestCoordinator) Status(ctx context.Context, sourceCode, setSpec string) (*domain.HarvestLog, error) {
	return h.logs.Get(ctx, domain.NormaliseSourceCode(sourceCode), setSpec)
}

// StatusAll returns every harvest log of a source.
func (h *HarvestCoordinator) StatusAll(ctx context.Context, sourceCode string) ([]domain.HarvestLog, error) {
	return h.logs.List(ctx, domain.NormaliseSourceCode(sourceCode))
}

// begin loads or creates the log and moves it to IN_PROGRESS.
// A PAUSED log continues from its token; a FAILED one only when asked to.
func (h *HarvestCoordinator) begin(
	ctx context.Context,
	code string,
	req driving.HarvestRequest,
) (*domain.HarvestLog, bool, error) {
	log, err := h.logs.Get(ctx, code, req.SetSpec)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log = &domain.HarvestLog{
			ID:         uuid.NewString(),
			SourceCode: code,
			SetSpec:    req.SetSpec,
		}
	case err != nil:
		return nil, false, fmt.Errorf("get harvest log: %w", err)
	}

	resumed := log.CanResume() && (log.Status == domain.HarvestPaused || req.Resume)
	if req.Resume && !resumed {
		logger.Warn("No resumable harvest for %s/%s, starting from scratch", code, req.SetSpec)
	}
	if !resumed {
		log.ResumptionToken = ""
	}

	log.Status = domain.HarvestInProgress
	log.RecordsHarvested = 0
	log.FilesCreated = 0
	log.LastError = ""
	log.StartedAt = time.Now()
	log.CompletedAt = nil

	if err := h.logs.Save(ctx, *log); err != nil {
		return nil, false, fmt.Errorf("save harvest log: %w", err)
	}
	return log, resumed, nil
}

// fetch requests one page, retrying transient failures.
func (h *HarvestCoordinator) fetch(ctx context.Context, opts driven.ListRecordsOptions) (*driven.ListRecordsResult, error) {
	var lastErr error
	for attempt := 0; attempt <= h.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying page (attempt %d/%d) in %s: %v", attempt, h.cfg.MaxRetries, h.cfg.RetryDelay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.cfg.RetryDelay):
			}
		}

		page, err := h.client.ListRecords(ctx, opts)
		if err == nil {
			return page, nil
		}
		if !driven.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	if h.cfg.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("giving up after %d retries: %w", h.cfg.MaxRetries, lastErr)
}

// fail records a FAILED log, keeping the last token so the harvest can resume.
func (h *HarvestCoordinator) fail(
	ctx context.Context,
	log *domain.HarvestLog,
	result *driving.HarvestResult,
	cause error,
) (*driving.HarvestResult, error) {
	logger.Error("Harvest %s/%s failed: %v", log.SourceCode, log.SetSpec, cause)
	log.Status = domain.HarvestFailed
	log.LastError = cause.Error()
	return h.finish(ctx, log, result, cause)
}

// interrupt stops a cancelled harvest at the last checkpoint.
// With a token left the log is PAUSED, so the next run continues from it.
func (h *HarvestCoordinator) interrupt(
	ctx context.Context,
	log *domain.HarvestLog,
	result *driving.HarvestResult,
	cause error,
) (*driving.HarvestResult, error) {
	if log.ResumptionToken != "" {
		logger.Warn("Harvest %s/%s interrupted, paused at token %s", log.SourceCode, log.SetSpec, log.ResumptionToken)
		log.Status = domain.HarvestPaused
		log.LastError = ""
	} else {
		log.Status = domain.HarvestFailed
		log.LastError = cause.Error()
	}
	return h.finish(ctx, log, result, cause)
}

func (h *HarvestCoordinator) finish(
	ctx context.Context,
	log *domain.HarvestLog,
	result *driving.HarvestResult,
	cause error,
) (*driving.HarvestResult, error) {
	if err := h.logs.Save(context.WithoutCancel(ctx), *log); err != nil {
		return nil, fmt.Errorf("save harvest log: %w", err)
	}
	result.Log = *log
	result.Err = cause
	return result, nil
}

// acquire marks a (source, set) pair as owned by this coordinator.
func (h *HarvestCoordinator) acquire(code, setSpec string) (func(), error) {
	key := code + "/" + setSpec
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active[key] {
		return nil, fmt.Errorf("%w: %s", domain.ErrHarvestInProgress, key)
	}
	h.active[key] = true
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.active, key)
	}, nil
}
