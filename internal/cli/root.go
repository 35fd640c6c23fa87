// Package cli wires the seqferry commands: the main pipeline run plus small
// helpers for inspecting workflows and the resume state.
package cli

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/me/seqferry/internal/logging"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the seqferry CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seqferry",
		Short: "seqferry — ferry sequencing runs from literature to analysis",
		Long: `seqferry searches PubMed, resolves the linked SRA sequencing runs to
their FASTQ files via the ENA file report, and uploads them to a Galaxy
instance where it invokes variant-calling workflows. Progress is recorded
in a state file so interrupted executions resume where they left off.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Credentials may live in a local .env file; a missing file is
			// not an error.
			_ = godotenv.Load()

			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(flagLogLevel, flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newWorkflowsCmd(),
		newStateCmd(),
	)

	return root
}
