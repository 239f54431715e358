package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activemonkeys/geneax/internal/adapters/driven/storage/memory"
	"github.com/activemonkeys/geneax/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), "/home/test/.geneax")

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Harvest, settings.Harvest)
	assert.Equal(t, defaults.Processor, settings.Processor)
	assert.Equal(t, domain.RawBackendFile, settings.Storage.RawBackend)
	assert.Equal(t, filepath.Join("/home/test/.geneax", "data", "geneax.db"), settings.Storage.Database)
	assert.Equal(t, filepath.Join("/home/test/.geneax", "data", "raw"), settings.Storage.RawDir)
	assert.Equal(t, "geneax-raw", settings.MinIO.Bucket)
	assert.False(t, settings.MinIO.Secure)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("harvest.request_delay", "250ms")
	_ = store.Set("harvest.timeout", 10000)
	_ = store.Set("harvest.max_retries", 5)
	_ = store.Set("harvest.metadata_prefix", "a2a")
	_ = store.Set("processor.batch_size", 100)
	_ = store.Set("processor.workers", 4)
	_ = store.Set("storage.raw_dir", "batches")
	_ = store.Set("storage.database", "/var/lib/geneax.db")

	settings, err := NewSettingsService(store, "/srv/geneax").Get()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, settings.Harvest.RequestDelay)
	assert.Equal(t, 10*time.Second, settings.Harvest.Timeout)
	assert.Equal(t, 5, settings.Harvest.MaxRetries)
	assert.Equal(t, "a2a", settings.Harvest.MetadataPrefix)
	assert.Equal(t, 100, settings.Processor.BatchSize)
	assert.Equal(t, 4, settings.Processor.Workers)
	assert.Equal(t, filepath.Join("/srv/geneax", "batches"), settings.Storage.RawDir)
	assert.Equal(t, "/var/lib/geneax.db", settings.Storage.Database)
}

func TestSettingsService_Get_SeededStoreRoundTrips(t *testing.T) {
	want := domain.DefaultSettings()
	want.Harvest.RequestDelay = 2 * time.Second
	want.Harvest.MaxRetries = 7
	want.Processor.Workers = 6
	want.Storage.Database = "/data/geneax.db"
	want.Storage.RawDir = "/data/raw"
	store := memory.NewConfigStoreFromSettings(want)

	got, err := NewSettingsService(store, "/home/test/.geneax").Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Equal(t, Keys(), store.Keys())
}

func TestSettingsService_Get_InvalidDurationFallsBack(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("harvest.retry_delay", "soon")

	settings, err := NewSettingsService(store, t.TempDir()).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().Harvest.RetryDelay, settings.Harvest.RetryDelay)
}

func TestSettingsService_Get_MinIOBackend(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("storage.raw_backend", "minio")

	_, err := NewSettingsService(store, t.TempDir()).Get()
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_ = store.Set("minio.endpoint", "localhost:9000")
	_ = store.Set("minio.secure", true)
	settings, err := NewSettingsService(store, t.TempDir()).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.RawBackendMinIO, settings.Storage.RawBackend)
	assert.Equal(t, "localhost:9000", settings.MinIO.Endpoint)
	assert.True(t, settings.MinIO.Secure)
}

func TestSettingsService_Get_UnknownBackend(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("storage.raw_backend", "s3")

	_, err := NewSettingsService(store, t.TempDir()).Get()
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, t.TempDir())

	require.NoError(t, service.Set("processor.workers", "8"))
	require.NoError(t, service.Set("minio.secure", "true"))
	require.NoError(t, service.Set("harvest.request_delay", "2s"))
	require.NoError(t, service.Set("harvest.retry_delay", 3*time.Second))
	require.NoError(t, service.Set("harvest.user_agent", "Test/1.0"))

	assert.Equal(t, 8, store.GetInt("processor.workers"))
	assert.True(t, store.GetBool("minio.secure"))
	assert.Equal(t, "2s", store.GetString("harvest.request_delay"))
	assert.Equal(t, "3s", store.GetString("harvest.retry_delay"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, settings.Processor.Workers)
	assert.Equal(t, 2*time.Second, settings.Harvest.RequestDelay)
	assert.Equal(t, 3*time.Second, settings.Harvest.RetryDelay)
	assert.Equal(t, "Test/1.0", settings.Harvest.UserAgent)
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), t.TempDir())

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"bad int", "processor.batch_size", "many"},
		{"bad bool", "minio.secure", "perhaps"},
		{"bad duration", "harvest.timeout", "forever"},
		{"wrong type", "harvest.user_agent", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestKeys_Sorted(t *testing.T) {
	keys := Keys()
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "storage.raw_backend")
	assert.Len(t, keys, 16)
}
