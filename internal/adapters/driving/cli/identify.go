package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

var (
	identifySource string
	setsSource     string
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Check an archive's OAI-PMH endpoint",
	Long: `Sends an Identify request to the archive and records whether it is
online or offline.`,
	Args: cobra.NoArgs,
	RunE: runIdentify,
}

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List the OAI-PMH sets of an archive",
	Args:  cobra.NoArgs,
	RunE:  runSets,
}

func init() {
	identifyCmd.Flags().StringVarP(&identifySource, "source", "s", "", "archive code (required)")
	setsCmd.Flags().StringVarP(&setsSource, "source", "s", "", "archive code (required)")
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(setsCmd)
}

func runIdentify(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}
	if err := requireFlag("source", identifySource); err != nil {
		return err
	}
	code := domain.NormaliseSourceCode(identifySource)

	identity, err := sourceService.Identify(cmd.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown source %s", code)
		}
		printTitle(cmd, code)
		printField(cmd, "Status", sourceStatusStyle(domain.SourceStatusOffline).Render(domain.SourceStatusOffline))
		return fmt.Errorf("identify failed: %w", err)
	}

	printTitle(cmd, code)
	printField(cmd, "Status", sourceStatusStyle(domain.SourceStatusOnline).Render(domain.SourceStatusOnline))
	printField(cmd, "Repository", identity.RepositoryName)
	printField(cmd, "Base URL", identity.BaseURL)
	printField(cmd, "Protocol", identity.ProtocolVersion)
	if identity.AdminEmail != "" {
		printField(cmd, "Admin", identity.AdminEmail)
	}
	printField(cmd, "Earliest datestamp", identity.EarliestDatestamp)
	printField(cmd, "Deleted records", identity.DeletedRecord)
	printField(cmd, "Granularity", identity.Granularity)
	if !identity.ResponseDate.IsZero() {
		printField(cmd, "Response date", identity.ResponseDate.Format(time.RFC3339))
	}
	return nil
}

func runSets(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}
	if err := requireFlag("source", setsSource); err != nil {
		return err
	}
	code := domain.NormaliseSourceCode(setsSource)

	sets, err := sourceService.Sets(cmd.Context(), code)
	if err != nil {
		return fmt.Errorf("failed to list sets: %w", err)
	}
	if len(sets) == 0 {
		cmd.Printf("%s exposes no sets.\n", code)
		return nil
	}

	printTitle(cmd, fmt.Sprintf("Sets of %s (%d)", code, len(sets)))
	width := 0
	for _, s := range sets {
		width = max(width, len(s.Spec))
	}
	for _, s := range sets {
		cmd.Printf("  %-*s  %s\n", width, s.Spec, mutedStyle.Render(s.Name))
	}
	return nil
}
