// Package connectors holds clients for the remote systems geneax harvests
// from. Each subpackage implements one protocol behind a driven port.
//
//   - oaipmh: OAI-PMH 2.0 (Identify, ListSets, ListRecords, GetRecord)
package connectors
