// Command geneax harvests A2A genealogical records from Dutch archives over
// OAI-PMH and parses them into a local database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/activemonkeys/geneax/internal/adapters/driven/config/file"
	"github.com/activemonkeys/geneax/internal/adapters/driven/rawstore/filesystem"
	"github.com/activemonkeys/geneax/internal/adapters/driven/rawstore/objectstore"
	"github.com/activemonkeys/geneax/internal/adapters/driven/storage/sqlite"
	"github.com/activemonkeys/geneax/internal/adapters/driving/cli"
	"github.com/activemonkeys/geneax/internal/connectors/oaipmh"
	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/core/services"
	"github.com/activemonkeys/geneax/internal/parsers/a2a"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetSetup(setup)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup wires the adapters and services for a data home.
func setup(ctx context.Context, opts cli.SetupOptions) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.Home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, opts.Home)
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.Storage.Database)
	if err != nil {
		return nil, err
	}

	batches, err := openBatchStore(ctx, settings)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := oaipmh.NewClient(oaipmh.Config{
		Timeout:      settings.Harvest.Timeout,
		RequestDelay: settings.Harvest.RequestDelay,
		UserAgent:    settings.Harvest.UserAgent,
	})

	registry := services.NewParserRegistry()
	a2a.RegisterAll(registry)

	harvester := services.NewHarvestCoordinator(
		store.SourceStore(),
		store.HarvestLogStore(),
		batches,
		client,
		services.HarvestConfig{
			MaxRetries:     settings.Harvest.MaxRetries,
			RetryDelay:     settings.Harvest.RetryDelay,
			MetadataPrefix: settings.Harvest.MetadataPrefix,
		},
	)

	processor := services.NewBatchProcessor(
		store.SourceStore(),
		batches,
		store.RecordStore(),
		oaipmh.Decoder{},
		registry,
		services.ProcessConfig{
			BatchSize: settings.Processor.BatchSize,
			Workers:   settings.Processor.Workers,
		},
	)

	return &cli.Services{
		Harvester: harvester,
		Processor: processor,
		Sources:   services.NewSourceService(store.SourceStore(), store.RecordStore(), client),
		Settings:  settingsService,
		Close:     store.Close,
	}, nil
}

// openBatchStore opens the raw batch backend selected in settings.
func openBatchStore(ctx context.Context, settings *domain.Settings) (driven.BatchStore, error) {
	switch settings.Storage.RawBackend {
	case domain.RawBackendFile:
		fs, err := filesystem.New(settings.Storage.RawDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case domain.RawBackendMinIO:
		m := settings.MinIO
		bucket, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Secure:    m.Secure,
		})
		if err != nil {
			return nil, err
		}
		return bucket, nil
	default:
		return nil, fmt.Errorf("%w: unknown raw backend %q", domain.ErrInvalidInput, settings.Storage.RawBackend)
	}
}
