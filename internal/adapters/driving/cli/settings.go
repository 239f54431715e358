package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change harvest, processing and storage settings.

Settings are stored in config.toml in the data home.`,
	Annotations: map[string]string{settingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{settingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change a setting",
	Long: `Change a single setting. Durations accept Go syntax ("1500ms", "30s").

Keys:
  harvest.request_delay    harvest.timeout        harvest.max_retries
  harvest.retry_delay      harvest.metadata_prefix harvest.user_agent
  processor.batch_size     processor.workers
  storage.database         storage.raw_backend    storage.raw_dir
  minio.endpoint           minio.access_key       minio.secret_key
  minio.bucket             minio.secure`,
	Example: `  geneax settings set harvest.request_delay 2s
  geneax settings set storage.raw_backend minio`,
	Annotations: map[string]string{settingsOnly: "true"},
	Args:        cobra.ExactArgs(2),
	RunE:        runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Harvest]")
	cmd.Printf("  Request delay: %s\n", settings.Harvest.RequestDelay)
	cmd.Printf("  Timeout: %s\n", settings.Harvest.Timeout)
	cmd.Printf("  Max retries: %d\n", settings.Harvest.MaxRetries)
	cmd.Printf("  Retry delay: %s\n", settings.Harvest.RetryDelay)
	cmd.Printf("  Metadata prefix: %s\n", settings.Harvest.MetadataPrefix)
	cmd.Printf("  User agent: %s\n", settings.Harvest.UserAgent)
	cmd.Println()

	cmd.Println("[Processor]")
	cmd.Printf("  Batch size: %d\n", settings.Processor.BatchSize)
	cmd.Printf("  Workers: %d\n", settings.Processor.Workers)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Database: %s\n", settings.Storage.Database)
	cmd.Printf("  Raw backend: %s\n", settings.Storage.RawBackend)
	if settings.Storage.RawBackend == domain.RawBackendFile {
		cmd.Printf("  Raw directory: %s\n", settings.Storage.RawDir)
	}
	cmd.Println()

	if settings.Storage.RawBackend == domain.RawBackendMinIO {
		cmd.Println("[MinIO]")
		cmd.Printf("  Endpoint: %s\n", settings.MinIO.Endpoint)
		cmd.Printf("  Bucket: %s\n", settings.MinIO.Bucket)
		if settings.MinIO.AccessKey != "" {
			cmd.Printf("  Access key: %s\n", settings.MinIO.AccessKey)
		}
		if settings.MinIO.SecretKey != "" {
			cmd.Printf("  Secret key: %s\n", maskSecret(settings.MinIO.SecretKey))
		} else {
			cmd.Printf("  Secret key: (not set)\n")
		}
		cmd.Printf("  TLS: %t\n", settings.MinIO.Secure)
		cmd.Println()
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if key == "minio.secret_key" {
		shown = maskSecret(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
