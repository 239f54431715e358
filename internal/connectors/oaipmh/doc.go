// Package oaipmh implements an OAI-PMH 2.0 harvesting client.
//
// # Architecture
//
// The package implements [driven.OAIClient] and [driven.BatchDecoder]:
//
//   - Client: issues Identify, ListSets, ListRecords and GetRecord over HTTP GET
//   - RateLimiter: paces requests per host and honours Retry-After
//   - Decoder: parses stored ListRecords pages without network access
//
// # Errors
//
// Failures are typed so callers can choose a retry policy:
//
//   - ProtocolError: an OAI-PMH error element or an unusable envelope
//   - TimeoutError: the request exceeded its deadline
//   - HTTPStatusError: a non-2xx response
//   - NetworkError: any other transport failure
//
// A noRecordsMatch error is not a failure; it yields an empty result.
package oaipmh
