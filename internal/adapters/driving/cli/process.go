package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/ports/driving"
)

var (
	processSource string
	processSet    string
	processFile   string
	processDryRun bool
	processWatch  bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Parse raw batches into records and persons",
	Long: `Parses stored raw batches and persists their records and persons.
Reprocessing a batch replaces the persons of its records, so runs can be
repeated safely.

With --watch the stored backlog is processed first, then new batches are
processed as harvests write them until interrupted.`,
	Example: `  geneax process
  geneax process --source ELO --set bs_geboorte
  geneax process --file ~/.geneax/data/raw/elo/bs_geboorte/batch_000001.xml --dry-run
  geneax process --watch`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processSource, "source", "s", "", "only batches of this archive")
	processCmd.Flags().StringVar(&processSet, "set", "", "only batches of this set")
	processCmd.Flags().StringVarP(&processFile, "file", "f", "", "process a single batch file")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "parse and count without writing")
	processCmd.Flags().BoolVarP(&processWatch, "watch", "w", false, "keep processing new batches")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	if processor == nil {
		return errors.New("process service not configured")
	}
	if processWatch && processFile != "" {
		return errors.New("--watch cannot be combined with --file")
	}

	req := driving.ProcessRequest{
		SourceCode: processSource,
		SetSpec:    processSet,
		File:       processFile,
		DryRun:     processDryRun,
	}

	if processWatch {
		return runProcessWatch(cmd, req)
	}

	stats, err := processor.Process(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}
	printProcessStats(cmd, "Processing summary", stats)
	return nil
}

func runProcessWatch(cmd *cobra.Command, req driving.ProcessRequest) error {
	var total driving.ProcessStats
	err := processor.Watch(cmd.Context(), req,
		func(s *driving.ProcessStats) {
			printProcessStats(cmd, "Processing summary", s)
			cmd.Println()
			printHint(cmd, "Watching for new batches, press Ctrl+C to stop.")
		},
		func(s *driving.ProcessStats) {
			total.Add(*s)
			cmd.Printf("  batch: %d saved, %d skipped, %d errors\n", s.Saved, s.Skipped, s.Errors+s.FailedBatches)
		},
	)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println()
	printProcessStats(cmd, "Watch summary", &total)
	return nil
}

func printProcessStats(cmd *cobra.Command, title string, stats *driving.ProcessStats) {
	if processDryRun {
		title += " (dry run)"
	}
	printTitle(cmd, title)
	printField(cmd, "Files", stats.Files)
	printField(cmd, "Records processed", stats.Processed)
	printField(cmd, "Records saved", stats.Saved)
	printField(cmd, "Deleted skipped", stats.Skipped)
	printField(cmd, "Errors", countStyle(stats.Errors).Render(fmt.Sprint(stats.Errors)))
	printField(cmd, "Failed batches", countStyle(stats.FailedBatches).Render(fmt.Sprint(stats.FailedBatches)))
}
