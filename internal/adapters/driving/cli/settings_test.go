package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "minio-secret-abcdef",
			expected: "mini...cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskSecret(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Storage.Database = "/data/geneax.db"
	s.Storage.RawDir = "/data/raw"
	return s
}

func TestSettingsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range settingsCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"show", "set"}, names)
}

func TestSettingsShowCmd_FileBackend(t *testing.T) {
	useSettingsService(t, &mockSettingsService{settings: testSettings()})

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Harvest]")
	assert.Contains(t, out, "Request delay: 1s")
	assert.Contains(t, out, "Max retries: 3")
	assert.Contains(t, out, "Metadata prefix: oai_a2a")
	assert.Contains(t, out, "Batch size: 500")
	assert.Contains(t, out, "Database: /data/geneax.db")
	assert.Contains(t, out, "Raw directory: /data/raw")
	assert.NotContains(t, out, "[MinIO]")
}

func TestSettingsShowCmd_MinIOBackend(t *testing.T) {
	s := testSettings()
	s.Storage.RawBackend = domain.RawBackendMinIO
	s.MinIO.Endpoint = "localhost:9000"
	s.MinIO.AccessKey = "geneax"
	s.MinIO.SecretKey = "supersecretvalue"
	useSettingsService(t, &mockSettingsService{settings: s})

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[MinIO]")
	assert.Contains(t, out, "Endpoint: localhost:9000")
	assert.Contains(t, out, "Secret key: supe...alue")
	assert.NotContains(t, out, "supersecretvalue")
	assert.NotContains(t, out, "Raw directory")
}

func TestSettingsSetCmd(t *testing.T) {
	svc := &mockSettingsService{}
	useSettingsService(t, svc)

	out, err := execute(t, "settings", "set", "harvest.request_delay", "2s")

	require.NoError(t, err)
	assert.Equal(t, "2s", svc.values["harvest.request_delay"])
	assert.Contains(t, out, "Set harvest.request_delay = 2s")
}

func TestSettingsSetCmd_MasksSecret(t *testing.T) {
	useSettingsService(t, &mockSettingsService{})

	out, err := execute(t, "settings", "set", "minio.secret_key", "supersecretvalue")

	require.NoError(t, err)
	assert.NotContains(t, out, "supersecretvalue")
}

func TestSettingsSetCmd_Error(t *testing.T) {
	useSettingsService(t, &mockSettingsService{setErr: domain.ErrInvalidInput})

	_, err := execute(t, "settings", "set", "nope", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	useSettingsService(t, nil)

	_, err := execute(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
