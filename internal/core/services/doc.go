// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline has two halves that share only the batch store:
// HarvestCoordinator writes raw OAI-PMH pages, BatchProcessor reads
// them back and persists what the registered parsers extract.
package services
