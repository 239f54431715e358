package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".geneax")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("harvest.user_agent", "Test/1.0"))
	require.NoError(t, store.Set("processor.workers", 4))
	require.NoError(t, store.Set("minio.secure", true))

	val, ok := store.Get("harvest.user_agent")
	assert.True(t, ok)
	assert.Equal(t, "Test/1.0", val)
	assert.Equal(t, 4, store.GetInt("processor.workers"))
	assert.True(t, store.GetBool("minio.secure"))
}

func TestConfigStore_MissingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.False(t, store.GetBool("nope"))
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("harvest.timeout", "30s"))

	assert.Zero(t, store.GetInt("harvest.timeout"))
	assert.False(t, store.GetBool("harvest.timeout"))
	require.NoError(t, store.Set("processor.workers", 2))
	assert.Empty(t, store.GetString("processor.workers"))
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("harvest.timeout", "45s"))
	require.NoError(t, store.Set("harvest.max_retries", 5))
	require.NoError(t, store.Set("storage.raw_backend", "minio"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[harvest]")
	assert.Contains(t, content, "[storage]")
	assert.NotContains(t, content, `"harvest.timeout"`)

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "45s", reloaded.GetString("harvest.timeout"))
	assert.Equal(t, 5, reloaded.GetInt("harvest.max_retries"))
	assert.Equal(t, "minio", reloaded.GetString("storage.raw_backend"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[harvest]
request_delay = "2s"
metadata_prefix = "a2a"

[processor]
batch_size = 250

[minio]
secure = true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "2s", store.GetString("harvest.request_delay"))
	assert.Equal(t, "a2a", store.GetString("harvest.metadata_prefix"))
	assert.Equal(t, 250, store.GetInt("processor.batch_size"))
	assert.True(t, store.GetBool("minio.secure"))
}

func TestConfigStore_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[harvest\nbroken"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_ConflictingKeyIsNotKept(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("harvest.timeout", "30s"))

	err = store.Set("harvest.timeout.extra", 1)
	require.Error(t, err)

	_, ok := store.Get("harvest.timeout.extra")
	assert.False(t, ok)
	assert.Equal(t, "30s", store.GetString("harvest.timeout"))
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	flat := map[string]any{
		"harvest.timeout":    "30s",
		"harvest.user_agent": "Geneax",
		"top":                int64(1),
	}

	nested, err := unflattenMap(flat)
	require.NoError(t, err)
	assert.Equal(t, flat, flattenMap(nested, ""))
}
