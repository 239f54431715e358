package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
)

var (
	harvestSource string
	harvestSet    string
	harvestLimit  int
	harvestResume bool
	harvestFrom   string
	harvestUntil  string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest records from an archive",
	Long: `Fetches ListRecords pages for one set of an archive and stores every
page as a raw batch. Progress is checkpointed after each page.

A harvest stopped by --limit or an interrupt is PAUSED and continues from
its resumption token on the next run. A FAILED harvest prints its summary,
exits non-zero and starts over unless --resume is given.`,
	Example: `  geneax harvest --source ELO --set bs_geboorte
  geneax harvest --source ELO --set bs_geboorte --limit 1000
  geneax harvest --source ELO --set bs_geboorte --resume`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringVarP(&harvestSource, "source", "s", "", "archive code (required)")
	harvestCmd.Flags().StringVar(&harvestSet, "set", "", "OAI-PMH set spec (required)")
	harvestCmd.Flags().IntVarP(&harvestLimit, "limit", "n", 0, "stop after this many records (0 = no limit)")
	harvestCmd.Flags().BoolVar(&harvestResume, "resume", false, "continue a failed harvest from its stored token")
	harvestCmd.Flags().StringVar(&harvestFrom, "from", "", "only records with a datestamp on or after this date")
	harvestCmd.Flags().StringVar(&harvestUntil, "until", "", "only records with a datestamp on or before this date")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	if harvester == nil {
		return errors.New("harvest service not configured")
	}
	if err := requireFlag("source", harvestSource); err != nil {
		return err
	}
	if err := requireFlag("set", harvestSet); err != nil {
		return err
	}
	if harvestLimit < 0 {
		return errors.New("--limit must not be negative")
	}

	code := domain.NormaliseSourceCode(harvestSource)
	result, err := harvester.Harvest(cmd.Context(), driving.HarvestRequest{
		SourceCode: code,
		SetSpec:    harvestSet,
		Limit:      harvestLimit,
		Resume:     harvestResume,
		From:       harvestFrom,
		Until:      harvestUntil,
	})
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	printHarvestResult(cmd, code, harvestSet, result)
	if result.Log.Status == domain.HarvestFailed {
		cause := result.Err
		if cause == nil {
			cause = errors.New(result.Log.LastError)
		}
		return fmt.Errorf("harvest %s/%s failed: %w", code, harvestSet, cause)
	}
	return nil
}

func printHarvestResult(cmd *cobra.Command, code, setSpec string, result *driving.HarvestResult) {
	log := result.Log

	printTitle(cmd, fmt.Sprintf("Harvest %s/%s", code, setSpec))
	printField(cmd, "Status", harvestStatusStyle(log.Status).Render(string(log.Status)))
	if result.Resumed {
		printField(cmd, "Resumed", "yes")
	}
	printField(cmd, "Pages", result.Pages)
	printField(cmd, "Records harvested", log.RecordsHarvested)
	printField(cmd, "Files created", log.FilesCreated)
	if log.ResumptionToken != "" {
		printField(cmd, "Resumption token", log.ResumptionToken)
	}
	if log.LastError != "" {
		printField(cmd, "Error", errorStyle.Render(log.LastError))
	}

	switch {
	case log.Status == domain.HarvestPaused:
		printHint(cmd, "Run the same command again to continue.")
	case log.Status == domain.HarvestFailed && log.ResumptionToken != "":
		printHint(cmd, "Add --resume to continue from the stored token.")
	}
}
