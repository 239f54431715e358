package domain

import "time"

// Raw batch storage backends.
const (
	RawBackendFile  = "file"
	RawBackendMinIO = "minio"
)

// Settings holds the pipeline configuration.
type Settings struct {
	Harvest   HarvestSettings
	Processor ProcessorSettings
	Storage   StorageSettings
	MinIO     MinIOSettings
}

// HarvestSettings configures the HarvestCoordinator and OAI client.
type HarvestSettings struct {
	// RequestDelay is the pause between consecutive page requests.
	RequestDelay time.Duration

	// Timeout applies to each HTTP call.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts for transient transport errors.
	MaxRetries int

	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration

	// MetadataPrefix is requested when a source does not override it.
	MetadataPrefix string

	// UserAgent is sent with every request.
	UserAgent string
}

// ProcessorSettings configures the BatchProcessor.
type ProcessorSettings struct {
	// BatchSize is the number of records persisted per transaction.
	BatchSize int

	// Workers is the number of sources processed concurrently.
	Workers int
}

// StorageSettings locates the database and raw batches.
type StorageSettings struct {
	// Database is the SQLite database path.
	Database string

	// RawBackend selects "file" or "minio".
	RawBackend string

	// RawDir is the root directory for the file backend.
	RawDir string
}

// MinIOSettings configures the MinIO raw backend.
type MinIOSettings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// DefaultSettings returns the built-in defaults.
// Paths are left empty; callers resolve them against the data home.
func DefaultSettings() Settings {
	return Settings{
		Harvest: HarvestSettings{
			RequestDelay:   time.Second,
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			RetryDelay:     5 * time.Second,
			MetadataPrefix: "oai_a2a",
			UserAgent:      "Geneax/0.1.0",
		},
		Processor: ProcessorSettings{
			BatchSize: 500,
			Workers:   2,
		},
		Storage: StorageSettings{
			RawBackend: RawBackendFile,
		},
		MinIO: MinIOSettings{
			Bucket: "geneax-raw",
		},
	}
}
