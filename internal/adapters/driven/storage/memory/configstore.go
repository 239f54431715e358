package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps config.toml keys in memory.
//
// Values are stored the way a TOML round trip returns them: integers as
// int64 and durations as strings, so settings code sees the same types it
// gets from the file store.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values: make(map[string]any),
	}
}

// NewConfigStoreFromSettings creates a config store holding every key of s.
func NewConfigStoreFromSettings(s domain.Settings) *ConfigStore {
	store := NewConfigStore()
	for key, value := range map[string]any{
		"harvest.request_delay":   s.Harvest.RequestDelay,
		"harvest.timeout":         s.Harvest.Timeout,
		"harvest.max_retries":     s.Harvest.MaxRetries,
		"harvest.retry_delay":     s.Harvest.RetryDelay,
		"harvest.metadata_prefix": s.Harvest.MetadataPrefix,
		"harvest.user_agent":      s.Harvest.UserAgent,
		"processor.batch_size":    s.Processor.BatchSize,
		"processor.workers":       s.Processor.Workers,
		"storage.database":        s.Storage.Database,
		"storage.raw_backend":     s.Storage.RawBackend,
		"storage.raw_dir":         s.Storage.RawDir,
		"minio.endpoint":          s.MinIO.Endpoint,
		"minio.access_key":        s.MinIO.AccessKey,
		"minio.secret_key":        s.MinIO.SecretKey,
		"minio.bucket":            s.MinIO.Bucket,
		"minio.secure":            s.MinIO.Secure,
	} {
		store.values[key] = tomlValue(value)
	}
	return store
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string value, or "" when absent or not a string.
func (s *ConfigStore) GetString(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// GetInt retrieves an integer value, or 0 when absent or not a number.
func (s *ConfigStore) GetInt(key string) int {
	switch v := s.lookup(key).(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean value, or false when absent.
func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.lookup(key).(bool)
	return b
}

// Set stores a value as the file store would read it back.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = tomlValue(value)
	return nil
}

// Keys returns the stored keys, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load is a no-op.
func (s *ConfigStore) Load() error {
	return nil
}

// Path returns a placeholder path.
func (s *ConfigStore) Path() string {
	return ":memory:"
}

func (s *ConfigStore) lookup(key string) any {
	val, _ := s.Get(key)
	return val
}

func tomlValue(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case time.Duration:
		return v.String()
	default:
		return value
	}
}
