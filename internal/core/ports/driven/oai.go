package driven

import (
	"context"
	"errors"
	"time"
)

// OAIClient issues OAI-PMH requests against a remote archive.
type OAIClient interface {
	// Identify returns the repository description.
	Identify(ctx context.Context, baseURL string) (*OAIIdentity, error)

	// ListSets returns every set the repository exposes.
	ListSets(ctx context.Context, baseURL string) ([]OAISet, error)

	// ListRecords fetches one page of records.
	ListRecords(ctx context.Context, opts ListRecordsOptions) (*ListRecordsResult, error)

	// GetRecord fetches a single record by identifier.
	GetRecord(ctx context.Context, baseURL, identifier, metadataPrefix string) (*OAIRecord, error)
}

// BatchDecoder reads records back out of a stored raw page.
type BatchDecoder interface {
	// DecodeBatch parses a ListRecords response body.
	DecodeBatch(raw []byte) (*ListRecordsResult, error)
}

// TransientError is implemented by errors worth retrying, such as
// timeouts or HTTP 503 responses.
type TransientError interface {
	error
	Transient() bool
}

// IsTransient reports whether err wraps a TransientError that asks to be
// retried.
func IsTransient(err error) bool {
	var te TransientError
	return errors.As(err, &te) && te.Transient()
}

// ListRecordsOptions selects a ListRecords page.
// When ResumptionToken is set all other selectors are ignored.
type ListRecordsOptions struct {
	BaseURL         string
	MetadataPrefix  string
	Set             string
	From            string
	Until           string
	ResumptionToken string
}

// ListRecordsResult is one page of a ListRecords response.
type ListRecordsResult struct {
	// Records holds every record on the page, deleted ones included.
	Records []OAIRecord

	// ResumptionToken is empty at the end of the list.
	ResumptionToken string

	// CompleteListSize is the server's total, or -1 when not reported.
	CompleteListSize int

	// Cursor is the server's offset, or -1 when not reported.
	Cursor int

	// Raw is the response body exactly as received.
	Raw []byte
}

// OAIRecord is one record of a ListRecords or GetRecord response.
type OAIRecord struct {
	Identifier string
	Datestamp  string
	SetSpecs   []string
	Deleted    bool

	// Metadata is the inner XML of the metadata element.
	Metadata []byte
}

// OAIIdentity is the Identify response.
type OAIIdentity struct {
	RepositoryName    string
	BaseURL           string
	ProtocolVersion   string
	AdminEmail        string
	EarliestDatestamp string
	DeletedRecord     string
	Granularity       string
	ResponseDate      time.Time
}

// OAISet is one entry of a ListSets response.
type OAISet struct {
	Spec string
	Name string
}
