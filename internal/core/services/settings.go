package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyRequestDelay   = "harvest.request_delay"
	keyTimeout        = "harvest.timeout"
	keyMaxRetries     = "harvest.max_retries"
	keyRetryDelay     = "harvest.retry_delay"
	keyMetadataPrefix = "harvest.metadata_prefix"
	keyUserAgent      = "harvest.user_agent"
	keyBatchSize      = "processor.batch_size"
	keyWorkers        = "processor.workers"
	keyDatabase       = "storage.database"
	keyRawBackend     = "storage.raw_backend"
	keyRawDir         = "storage.raw_dir"
	keyMinIOEndpoint  = "minio.endpoint"
	keyMinIOAccessKey = "minio.access_key"
	keyMinIOSecretKey = "minio.secret_key"
	keyMinIOBucket    = "minio.bucket"
	keyMinIOSecure    = "minio.secure"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindBool
	kindDuration
)

var settingKinds = map[string]settingKind{
	keyRequestDelay:   kindDuration,
	keyTimeout:        kindDuration,
	keyMaxRetries:     kindInt,
	keyRetryDelay:     kindDuration,
	keyMetadataPrefix: kindString,
	keyUserAgent:      kindString,
	keyBatchSize:      kindInt,
	keyWorkers:        kindInt,
	keyDatabase:       kindString,
	keyRawBackend:     kindString,
	keyRawDir:         kindString,
	keyMinIOEndpoint:  kindString,
	keyMinIOAccessKey: kindString,
	keyMinIOSecretKey: kindString,
	keyMinIOBucket:    kindString,
	keyMinIOSecure:    kindBool,
}

// SettingsService reads pipeline settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	home        string
}

// NewSettingsService creates a new settings service.
// Relative and default storage paths are resolved against home.
func NewSettingsService(configStore driven.ConfigStore, home string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		home:        home,
	}
}

// Get retrieves current settings with defaults applied.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := s.GetDefaults()

	settings := &domain.Settings{
		Harvest: domain.HarvestSettings{
			RequestDelay:   s.getDuration(keyRequestDelay, defaults.Harvest.RequestDelay),
			Timeout:        s.getDuration(keyTimeout, defaults.Harvest.Timeout),
			MaxRetries:     s.getInt(keyMaxRetries, defaults.Harvest.MaxRetries),
			RetryDelay:     s.getDuration(keyRetryDelay, defaults.Harvest.RetryDelay),
			MetadataPrefix: s.getString(keyMetadataPrefix, defaults.Harvest.MetadataPrefix),
			UserAgent:      s.getString(keyUserAgent, defaults.Harvest.UserAgent),
		},
		Processor: domain.ProcessorSettings{
			BatchSize: s.getInt(keyBatchSize, defaults.Processor.BatchSize),
			Workers:   s.getInt(keyWorkers, defaults.Processor.Workers),
		},
		Storage: domain.StorageSettings{
			Database:   s.getPath(keyDatabase, defaults.Storage.Database),
			RawBackend: s.getString(keyRawBackend, defaults.Storage.RawBackend),
			RawDir:     s.getPath(keyRawDir, defaults.Storage.RawDir),
		},
		MinIO: domain.MinIOSettings{
			Endpoint:  s.configStore.GetString(keyMinIOEndpoint),
			AccessKey: s.configStore.GetString(keyMinIOAccessKey),
			SecretKey: s.configStore.GetString(keyMinIOSecretKey),
			Bucket:    s.getString(keyMinIOBucket, defaults.MinIO.Bucket),
			Secure:    s.getBool(keyMinIOSecure, defaults.MinIO.Secure),
		},
	}

	switch settings.Storage.RawBackend {
	case domain.RawBackendFile:
	case domain.RawBackendMinIO:
		if settings.MinIO.Endpoint == "" {
			return nil, fmt.Errorf("%w: %s requires %s", domain.ErrInvalidInput, keyRawBackend, keyMinIOEndpoint)
		}
	default:
		return nil, fmt.Errorf("%w: unknown raw backend %q", domain.ErrInvalidInput, settings.Storage.RawBackend)
	}

	return settings, nil
}

// Set validates and persists a single configuration key.
// Values given as strings are converted to the key's type.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(Keys(), ", "))
	}

	converted, err := convertSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetDefaults returns default settings with paths under the home directory.
func (s *SettingsService) GetDefaults() domain.Settings {
	defaults := domain.DefaultSettings()
	defaults.Storage.Database = filepath.Join(s.home, "data", "geneax.db")
	defaults.Storage.RawDir = filepath.Join(s.home, "data", "raw")
	return defaults
}

// Keys returns every known setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func convertSetting(kind settingKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindInt:
		if isString {
			return strconv.Atoi(strings.TrimSpace(str))
		}
		if _, ok := value.(int); !ok {
			return nil, fmt.Errorf("expected an integer, got %T", value)
		}
	case kindBool:
		if isString {
			return strconv.ParseBool(strings.TrimSpace(str))
		}
		if _, ok := value.(bool); !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
	case kindDuration:
		if d, ok := value.(time.Duration); ok {
			return d.String(), nil
		}
		if !isString {
			return nil, fmt.Errorf("expected a duration, got %T", value)
		}
		if _, err := time.ParseDuration(strings.TrimSpace(str)); err != nil {
			return nil, err
		}
		return strings.TrimSpace(str), nil
	case kindString:
		if !isString {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
	}
	return value, nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration accepts Go duration strings ("1500ms") or integer milliseconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if ms := s.configStore.GetInt(key); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getPath(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	if strings.HasPrefix(val, "~/") || filepath.IsAbs(val) {
		return val
	}
	return filepath.Join(s.home, val)
}
