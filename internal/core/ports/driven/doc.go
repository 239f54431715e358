// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - OAIClient: Issues OAI-PMH verbs against a remote archive
//   - BatchDecoder: Reads records back out of a stored response page
//   - BatchStore: Write-once raw batch storage (filesystem or MinIO)
//   - RecordParser / ParserFactory: Turn one metadata payload into a ParsedRecord
//   - SourceStore: Archive registry (read-mostly)
//   - HarvestLogStore: Resumable harvest state per (source, set)
//   - RecordStore / RecordTx: Transactional record and person persistence
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or parser package
package driven
