package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source health values recorded by Identify checks.
const (
	SourceStatusOnline  = "online"
	SourceStatusOffline = "offline"
	SourceStatusUnknown = "unknown"
)

// Source represents one remote OAI-PMH archive.
// Sources are created by registry bootstrap and read by the pipeline.
type Source struct {
	// Code is the stable, upper-case identifier (e.g., "ELO").
	Code string

	// Name is the human-readable archive name.
	Name string

	// OAIURL is the OAI-PMH base URL.
	OAIURL string

	// Website is the archive's public site.
	Website string

	// ParserType selects the RecordParser implementation.
	ParserType string

	// ParserConfig contains opaque per-source parser overrides.
	ParserConfig map[string]any

	// IsActive gates harvesting.
	IsActive bool

	// OverallStatus is the last observed health ("online", "offline", "unknown").
	OverallStatus string

	// LastHealthCheck is when OverallStatus was last updated.
	LastHealthCheck time.Time

	// CreatedAt is when the source was registered.
	CreatedAt time.Time

	// UpdatedAt is when the source was last modified.
	UpdatedAt time.Time
}

// NormaliseSourceCode returns the canonical upper-case form of a source code.
func NormaliseSourceCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the fields the pipeline depends on.
func (s *Source) Validate() error {
	if s.Code == "" {
		return fmt.Errorf("%w: source code is required", ErrInvalidInput)
	}
	if s.OAIURL == "" {
		return fmt.Errorf("%w: source %s has no OAI URL", ErrInvalidInput, s.Code)
	}
	if s.ParserType == "" {
		return fmt.Errorf("%w: source %s has no parser type", ErrInvalidInput, s.Code)
	}
	return nil
}

// Parser config keys understood by the A2A parsers.
const (
	ConfigKeyRecordTypeMapping = "recordTypeMapping"
	ConfigKeyPersonRoleMapping = "personRoleMapping"
	ConfigKeyNamespace         = "namespace"
	ConfigKeyMetadataPrefix    = "metadataPrefix"
)

// ParserConfig is the typed view of Source.ParserConfig.
type ParserConfig struct {
	// RecordTypeMapping maps exact source type strings to record types.
	RecordTypeMapping map[string]string

	// PersonRoleMapping maps exact relation type strings to person roles.
	PersonRoleMapping map[string]string

	// Namespace is the element prefix used by the archive (default "a2a").
	Namespace string

	// MetadataPrefix is the OAI metadataPrefix to request (default "oai_a2a").
	MetadataPrefix string
}

// DecodeParserConfig reads the known keys from an opaque config map.
// Unknown keys and values of the wrong shape are ignored.
func DecodeParserConfig(raw map[string]any) ParserConfig {
	cfg := ParserConfig{
		RecordTypeMapping: stringMap(raw[ConfigKeyRecordTypeMapping]),
		PersonRoleMapping: stringMap(raw[ConfigKeyPersonRoleMapping]),
	}
	if ns, ok := raw[ConfigKeyNamespace].(string); ok {
		cfg.Namespace = strings.TrimSuffix(strings.TrimSpace(ns), ":")
	}
	if prefix, ok := raw[ConfigKeyMetadataPrefix].(string); ok {
		cfg.MetadataPrefix = strings.TrimSpace(prefix)
	}
	return cfg
}

func stringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}
