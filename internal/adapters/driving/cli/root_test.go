package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useSetup(t *testing.T, fn SetupFunc) {
	t.Helper()
	oldSetup, oldClose := setup, closeService
	oldH, oldP, oldS, oldSet := harvester, processor, sourceService, settingsService
	setup = fn
	t.Cleanup(func() {
		setup, closeService = oldSetup, oldClose
		harvester, processor, sourceService, settingsService = oldH, oldP, oldS, oldSet
	})
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "geneax", rootCmd.Use)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"harvest", "process", "status", "identify", "sets", "source", "stats", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestResolveHome(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(HomeEnv, "/from/env")
		homeDir = "/from/flag"
		defer func() { homeDir = "" }()

		home, err := ResolveHome()
		require.NoError(t, err)
		assert.Equal(t, "/from/flag", home)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(HomeEnv, "/from/env")

		home, err := ResolveHome()
		require.NoError(t, err)
		assert.Equal(t, "/from/env", home)
	})

	t.Run("user home", func(t *testing.T) {
		t.Setenv(HomeEnv, "")
		userHome, err := os.UserHomeDir()
		require.NoError(t, err)

		home, err := ResolveHome()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(userHome, ".geneax"), home)
	})
}

func TestInitServices_WiresSetup(t *testing.T) {
	var got SetupOptions
	sources := &mockSourceService{}
	useSetup(t, func(_ context.Context, opts SetupOptions) (*Services, error) {
		got = opts
		return &Services{Sources: sources}, nil
	})

	out, err := execute(t, "--home", "/tmp/geneax-test", "stats")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/geneax-test", got.Home)
	assert.False(t, got.SettingsOnly)
	assert.Same(t, sources, sourceService)
	assert.Contains(t, out, "No records stored yet.")
}

func TestInitServices_SettingsOnly(t *testing.T) {
	var got SetupOptions
	useSetup(t, func(_ context.Context, opts SetupOptions) (*Services, error) {
		got = opts
		return &Services{Settings: &mockSettingsService{}}, nil
	})

	_, err := execute(t, "--home", t.TempDir(), "settings", "set", "harvest.timeout", "10s")

	require.NoError(t, err)
	assert.True(t, got.SettingsOnly)
}

func TestInitServices_VersionSkipsSetup(t *testing.T) {
	called := false
	useSetup(t, func(context.Context, SetupOptions) (*Services, error) {
		called = true
		return nil, errors.New("should not be called")
	})

	_, err := execute(t, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestInitServices_SetupError(t *testing.T) {
	useSetup(t, func(context.Context, SetupOptions) (*Services, error) {
		return nil, errors.New("database is locked")
	})

	_, err := execute(t, "--home", t.TempDir(), "stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialising: database is locked")
}

func TestCloseServices(t *testing.T) {
	useSetup(t, nil)
	calls := 0
	closeService = func() error {
		calls++
		return nil
	}

	require.NoError(t, closeServices())
	require.NoError(t, closeServices())
	assert.Equal(t, 1, calls)
}

func TestSetVersion(t *testing.T) {
	old := version
	defer func() { version = old }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
