package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/seqferry/internal/config"
	"github.com/me/seqferry/internal/ena"
	"github.com/me/seqferry/internal/entrez"
	"github.com/me/seqferry/internal/pipeline"
	"github.com/me/seqferry/internal/state"
	"github.com/me/seqferry/internal/store"
	"github.com/me/seqferry/internal/transport"
	"github.com/me/seqferry/pkg/galaxy"
)

func newRunCmd() *cobra.Command {
	var configFile string
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search literature, resolve runs, and dispatch them to Galaxy",
		Long: `Runs the full pipeline: PubMed search, SRA linking, FASTQ resolution
through the ENA file report, and upload plus workflow invocation on the
configured Galaxy instance. Without Galaxy credentials only the discovery
stages execute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Precedence: defaults, then config file, then environment, then
			// explicit flags. Flag values land in cfg at parse time, so file
			// and environment load into a fresh copy first and flag-set
			// fields are copied over it.
			merged := config.Default()
			if configFile != "" {
				if err := merged.LoadFile(configFile); err != nil {
					return err
				}
			}
			merged.ApplyEnv()
			overlayFlags(cmd, &merged, cfg)
			cfg = merged

			return runPipeline(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file")

	cmd.Flags().StringVar(&cfg.Query, "query", cfg.Query, "PubMed search query")
	cmd.Flags().IntVar(&cfg.RetMax, "retmax", cfg.RetMax, "Maximum PubMed records to fetch")
	cmd.Flags().IntVar(&cfg.MaxRuns, "max-runs", cfg.MaxRuns, "Cap on run accessions per execution (0 = unlimited)")
	cmd.Flags().StringVar(&cfg.Email, "email", "", "Contact email sent to NCBI (or NCBI_EMAIL env)")
	cmd.Flags().StringVar(&cfg.APIKey, "ncbi-api-key", "", "NCBI API key (or NCBI_API_KEY env)")

	cmd.Flags().StringVar(&cfg.GalaxyURL, "galaxy-url", "", "Galaxy instance URL (or GALAXY_URL env)")
	cmd.Flags().StringVar(&cfg.GalaxyAPIKey, "galaxy-api-key", "", "Galaxy API key (or GALAXY_API_KEY env)")

	cmd.Flags().StringVar(&cfg.SingleWorkflowID, "single-workflow-id", "", "Single-end workflow ID (beats name lookup)")
	cmd.Flags().StringVar(&cfg.SingleWorkflowName, "single-workflow-name", cfg.SingleWorkflowName, "Single-end workflow name")
	cmd.Flags().StringVar(&cfg.PairedWorkflowID, "paired-workflow-id", "", "Paired-end workflow ID (beats name lookup)")
	cmd.Flags().StringVar(&cfg.PairedWorkflowName, "paired-workflow-name", cfg.PairedWorkflowName, "Paired-end workflow name")

	cmd.Flags().StringVar(&cfg.SingleInputLabel, "single-input-label", cfg.SingleInputLabel, "Read input label of the single-end workflow")
	cmd.Flags().StringVar(&cfg.PairedInputLabel, "paired-input-label", cfg.PairedInputLabel, "Pair input label of the paired workflow")
	cmd.Flags().StringVar(&cfg.ReferenceInputLabel, "reference-input-label", cfg.ReferenceInputLabel, "Reference input label of both workflows")

	cmd.Flags().StringVar(&cfg.ReferenceURL, "reference-url", "", "Reference genome URL to fetch into each history")
	cmd.Flags().StringVar(&cfg.ReferenceDatasetID, "reference-dataset-id", "", "Existing reference dataset ID (beats --reference-url)")

	cmd.Flags().StringVar(&cfg.HistoryID, "history-id", "", "Existing history ID to upload into")
	cmd.Flags().StringVar(&cfg.HistoryName, "history-name", cfg.HistoryName, "Name for created histories")
	cmd.Flags().BoolVar(&cfg.HistoryPerSample, "history-per-sample", false, "Create one history per biological sample")

	cmd.Flags().StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "Path of the resume state file")
	cmd.Flags().StringVar(&cfg.CachePath, "cache", "", "SQLite run-record cache path (empty disables caching)")
	cmd.Flags().BoolVar(&cfg.ResetState, "reset-state", false, "Discard the resume state before running")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Stop after discovery and grouping, dispatch nothing")

	return cmd
}

// overlayFlags copies every flag-set field from the parsed flag values onto
// the merged configuration.
func overlayFlags(cmd *cobra.Command, merged *config.Config, flags config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("query") {
		merged.Query = flags.Query
	}
	if set("retmax") {
		merged.RetMax = flags.RetMax
	}
	if set("max-runs") {
		merged.MaxRuns = flags.MaxRuns
	}
	if set("email") {
		merged.Email = flags.Email
	}
	if set("ncbi-api-key") {
		merged.APIKey = flags.APIKey
	}
	if set("galaxy-url") {
		merged.GalaxyURL = flags.GalaxyURL
	}
	if set("galaxy-api-key") {
		merged.GalaxyAPIKey = flags.GalaxyAPIKey
	}
	if set("single-workflow-id") {
		merged.SingleWorkflowID = flags.SingleWorkflowID
	}
	if set("single-workflow-name") {
		merged.SingleWorkflowName = flags.SingleWorkflowName
	}
	if set("paired-workflow-id") {
		merged.PairedWorkflowID = flags.PairedWorkflowID
	}
	if set("paired-workflow-name") {
		merged.PairedWorkflowName = flags.PairedWorkflowName
	}
	if set("single-input-label") {
		merged.SingleInputLabel = flags.SingleInputLabel
	}
	if set("paired-input-label") {
		merged.PairedInputLabel = flags.PairedInputLabel
	}
	if set("reference-input-label") {
		merged.ReferenceInputLabel = flags.ReferenceInputLabel
	}
	if set("reference-url") {
		merged.ReferenceURL = flags.ReferenceURL
	}
	if set("reference-dataset-id") {
		merged.ReferenceDatasetID = flags.ReferenceDatasetID
	}
	if set("history-id") {
		merged.HistoryID = flags.HistoryID
	}
	if set("history-name") {
		merged.HistoryName = flags.HistoryName
	}
	if set("history-per-sample") {
		merged.HistoryPerSample = flags.HistoryPerSample
	}
	if set("state-file") {
		merged.StateFile = flags.StateFile
	}
	if set("cache") {
		merged.CachePath = flags.CachePath
	}
	merged.ResetState = flags.ResetState
	merged.DryRun = flags.DryRun
}

func runPipeline(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()

	st := state.New(cfg.StateFile)
	if cfg.ResetState {
		if err := st.Reset(); err != nil {
			return fmt.Errorf("reset state: %w", err)
		}
	}
	if err := st.Load(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	logger.Info("state loaded", "path", st.Path(), "processed_runs", st.Len())

	var cache store.RecordCache
	if cfg.CachePath != "" {
		sqlCache, err := store.NewSQLiteCache(cfg.CachePath, logger)
		if err != nil {
			return fmt.Errorf("open record cache: %w", err)
		}
		defer sqlCache.Close()
		if err := sqlCache.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate record cache: %w", err)
		}
		cache = sqlCache
	}

	var gal *galaxy.Client
	if cfg.GalaxyConfigured() {
		client, err := galaxy.NewClient(galaxy.DefaultConfig().
			WithBaseURL(cfg.GalaxyURL).
			WithAPIKey(cfg.GalaxyAPIKey), logger)
		if err != nil {
			return fmt.Errorf("galaxy client: %w", err)
		}
		gal = client
	}

	ecfg := entrez.DefaultConfig()
	ecfg.Email = cfg.Email
	ecfg.APIKey = cfg.APIKey

	p := pipeline.New(cfg, pipeline.Options{
		Entrez:   entrez.NewClient(ecfg, logger),
		Resolver: ena.NewResolver("", transport.DefaultConfig(), logger),
		State:    st,
		Cache:    cache,
		Galaxy:   gal,
		Logger:   logger,
		Out:      cmd.OutOrStdout(),
	})

	_, err := p.Run(ctx)
	return err
}
