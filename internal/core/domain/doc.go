// Package domain defines the core business entities for Geneax.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: A configured OAI-PMH archive endpoint
//   - HarvestLog: Resumable harvest progress for one (source, set) pair
//   - BatchRef: A write-once raw response page
//   - ParsedRecord / ParsedPerson: Normalised genealogical records
//   - ParsedDate: A precision-tagged date
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
