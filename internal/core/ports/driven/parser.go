package driven

import "github.com/activemonkeys/geneax/internal/core/domain"

// ParseContext carries the record-level context a parser cannot read
// from the payload itself.
type ParseContext struct {
	SourceCode string
	SetSpec    string
	ExternalID string
}

// RecordParser turns one metadata payload into a ParsedRecord.
type RecordParser interface {
	// Type returns the parser type identifier.
	Type() string

	// Parse returns nil and no error when the payload lacks the mandatory
	// source descriptor. An error is returned only for payloads that are
	// not well-formed. Missing optional fields degrade to zero values.
	Parse(payload []byte, pc ParseContext) (*domain.ParsedRecord, error)
}

// ParserFactory builds a parser injected with a source's override config.
type ParserFactory func(config map[string]any) (RecordParser, error)
