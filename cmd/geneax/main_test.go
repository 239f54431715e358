package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activemonkeys/geneax/internal/adapters/driving/cli"
	"github.com/activemonkeys/geneax/internal/core/domain"
)

func TestSetup_SettingsOnly(t *testing.T) {
	home := t.TempDir()

	svc, err := setup(context.Background(), cli.SetupOptions{Home: home, SettingsOnly: true})

	require.NoError(t, err)
	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Harvester)
	assert.Nil(t, svc.Close)
	_, err = os.Stat(filepath.Join(home, "data", "geneax.db"))
	assert.True(t, os.IsNotExist(err), "settings-only setup does not open the database")
}

func TestSetup_FileBackend(t *testing.T) {
	home := t.TempDir()

	svc, err := setup(context.Background(), cli.SetupOptions{Home: home})
	require.NoError(t, err)
	defer svc.Close()

	assert.NotNil(t, svc.Harvester)
	assert.NotNil(t, svc.Processor)
	assert.NotNil(t, svc.Sources)
	assert.NotNil(t, svc.Settings)
	assert.FileExists(t, filepath.Join(home, "data", "geneax.db"))
	assert.DirExists(t, filepath.Join(home, "data", "raw"))

	sources, err := svc.Sources.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestSetup_InvalidBackend(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"),
		[]byte("[storage]\nraw_backend = \"tape\"\n"), 0600))

	_, err := setup(context.Background(), cli.SetupOptions{Home: home})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpenBatchStore_UnknownBackend(t *testing.T) {
	s := domain.DefaultSettings()
	s.Storage.RawBackend = "tape"

	_, err := openBatchStore(context.Background(), &s)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
