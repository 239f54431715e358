// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SourceStore: Archive registry with parser config stored as JSON
//   - HarvestLogStore: One resumable harvest log per (source, set)
//   - RecordStore: Records keyed by (external_id, event_year) and their persons
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Persons reference their record with ON DELETE CASCADE.
//
// # Data Location
//
// By default, the database is stored at ~/.geneax/data/geneax.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, with a busy timeout so concurrent processor workers
// wait for the write lock instead of failing.
package sqlite
