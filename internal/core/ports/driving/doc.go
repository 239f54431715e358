// Package driving defines interfaces that external actors (the CLI, batch
// watchers) use to interact with core services. These are the "driving"
// ports in hexagonal architecture terminology - they drive the application.
//
//   - Harvester: Paginated, resumable harvesting of one (source, set) pair
//   - Processor: Parsing of stored raw batches into records and persons
//   - SourceService: Archive registry, health checks and stored counts
//   - SettingsService: Application settings
//
// Implementations of these interfaces live in internal/core/services.
package driving
