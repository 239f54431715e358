// Package cli provides the geneax command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/ports/driving"
	"github.com/activemonkeys/geneax/internal/logger"
)

// HomeEnv overrides the default data home.
const HomeEnv = "GENEAX_HOME"

// Command annotations read by initServices.
const (
	// skipSetup marks commands that run without services.
	skipSetup = "geneax/skip-setup"

	// settingsOnly marks commands that need only the settings service,
	// so a broken storage setting can still be fixed.
	settingsOnly = "geneax/settings-only"
)

var (
	version = "dev"
	verbose bool
	homeDir string
)

// Services used by the commands. Set by setup, or directly in tests.
var (
	harvester       driving.Harvester
	processor       driving.Processor
	sourceService   driving.SourceService
	settingsService driving.SettingsService
)

// Services is what a SetupFunc hands to the commands.
type Services struct {
	Harvester driving.Harvester
	Processor driving.Processor
	Sources   driving.SourceService
	Settings  driving.SettingsService

	// Close releases resources opened by the setup. May be nil.
	Close func() error
}

// SetupOptions is passed to a SetupFunc.
type SetupOptions struct {
	// Home is the data home directory.
	Home string

	// SettingsOnly asks for the settings service alone.
	SettingsOnly bool
}

// SetupFunc builds the services for a command.
type SetupFunc func(ctx context.Context, opts SetupOptions) (*Services, error)

var (
	setup        SetupFunc
	closeService func() error
)

var rootCmd = &cobra.Command{
	Use:   "geneax",
	Short: "Harvest and index Dutch genealogical archives",
	Long: `Geneax harvests A2A records from Dutch archives over OAI-PMH,
keeps every response page as a raw batch, and parses the batches into
records and persons.

Data and configuration live in ~/.geneax unless --home or GENEAX_HOME
says otherwise.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug and progress logs")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data home directory (default ~/.geneax)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSetup registers the function that wires services before a command runs.
func SetSetup(fn SetupFunc) {
	setup = fn
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so long runs can checkpoint before exiting.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeServices(); closeErr != nil {
		logger.Error("Closing services: %v", closeErr)
	}
	return err
}

// ResolveHome returns the data home: --home, then GENEAX_HOME, then ~/.geneax.
func ResolveHome() (string, error) {
	if homeDir != "" {
		return homeDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(userHome, ".geneax"), nil
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if setup == nil || cmd.Annotations[skipSetup] == "true" || cmd.Name() == "help" {
		return nil
	}

	home, err := ResolveHome()
	if err != nil {
		return err
	}
	logger.Debug("Using data home %s", home)

	svc, err := setup(cmd.Context(), SetupOptions{
		Home:         home,
		SettingsOnly: cmd.Annotations[settingsOnly] == "true",
	})
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	harvester = svc.Harvester
	processor = svc.Processor
	sourceService = svc.Sources
	settingsService = svc.Settings
	closeService = svc.Close
	return nil
}

func closeServices() error {
	if closeService == nil {
		return nil
	}
	fn := closeService
	closeService = nil
	return fn()
}

// requireFlag returns an error naming a missing mandatory flag.
func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("required flag --%s not set", name)
	}
	return nil
}
