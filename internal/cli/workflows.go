package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/seqferry/pkg/galaxy"
)

func newWorkflowsCmd() *cobra.Command {
	var galaxyURL, apiKey string

	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List workflows on the Galaxy instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if galaxyURL == "" {
				galaxyURL = os.Getenv("GALAXY_URL")
			}
			if apiKey == "" {
				apiKey = os.Getenv("GALAXY_API_KEY")
			}
			cfg := galaxy.DefaultConfig().WithBaseURL(galaxyURL).WithAPIKey(apiKey)

			client, err := galaxy.NewClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("galaxy client: %w", err)
			}

			workflows, err := client.ListWorkflows(cmd.Context())
			if err != nil {
				return fmt.Errorf("list workflows: %w", err)
			}

			if len(workflows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workflows found.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%-20s  %s\n", "WORKFLOW ID", "NAME")
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s  %s\n", "-----------", "----")
			for _, wf := range workflows {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s  %s\n", wf.ID, wf.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&galaxyURL, "galaxy-url", "", "Galaxy instance URL (or GALAXY_URL env)")
	cmd.Flags().StringVar(&apiKey, "galaxy-api-key", "", "Galaxy API key (or GALAXY_API_KEY env)")

	return cmd
}
