package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored record and person counts per archive",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	stats, err := sourceService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}
	if len(stats) == 0 {
		cmd.Println("No records stored yet.")
		return nil
	}

	printTitle(cmd, "Stored data")
	cmd.Printf("  %-8s %12s %12s\n", "SOURCE", "RECORDS", "PERSONS")
	var records, persons int
	for _, s := range stats {
		cmd.Printf("  %-8s %12d %12d\n", s.SourceCode, s.Records, s.Persons)
		records += s.Records
		persons += s.Persons
	}
	cmd.Printf("  %-8s %12d %12d\n", "TOTAL", records, persons)
	return nil
}
