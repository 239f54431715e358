package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

var (
	statusSource string
	statusSet    string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show harvest progress",
	Long: `Shows the harvest log of an archive set, or of every harvested set of
the archive when --set is omitted.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusSource, "source", "s", "", "archive code (required)")
	statusCmd.Flags().StringVar(&statusSet, "set", "", "OAI-PMH set spec")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if harvester == nil {
		return errors.New("harvest service not configured")
	}
	if err := requireFlag("source", statusSource); err != nil {
		return err
	}
	ctx := cmd.Context()
	code := domain.NormaliseSourceCode(statusSource)

	if statusSet != "" {
		log, err := harvester.Status(ctx, code, statusSet)
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("No harvest recorded for %s/%s.\n", code, statusSet)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		printHarvestLog(cmd, log)
		return nil
	}

	logs, err := harvester.StatusAll(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if len(logs) == 0 {
		cmd.Printf("No harvests recorded for %s.\n", code)
		return nil
	}
	for i := range logs {
		if i > 0 {
			cmd.Println()
		}
		printHarvestLog(cmd, &logs[i])
	}
	return nil
}

func printHarvestLog(cmd *cobra.Command, log *domain.HarvestLog) {
	printTitle(cmd, fmt.Sprintf("%s/%s", log.SourceCode, log.SetSpec))
	printField(cmd, "Status", harvestStatusStyle(log.Status).Render(string(log.Status)))
	printField(cmd, "Records harvested", log.RecordsHarvested)
	printField(cmd, "Files created", log.FilesCreated)
	if log.ResumptionToken != "" {
		printField(cmd, "Resumption token", log.ResumptionToken)
	}
	if !log.StartedAt.IsZero() {
		printField(cmd, "Started", log.StartedAt.Format(time.RFC3339))
	}
	if log.CompletedAt != nil {
		printField(cmd, "Completed", log.CompletedAt.Format(time.RFC3339))
	}
	if log.LastError != "" {
		printField(cmd, "Last error", errorStyle.Render(log.LastError))
	}
}
