package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/seqferry/internal/state"
)

func newStateCmd() *cobra.Command {
	var stateFile string
	var reset bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show or reset the resume state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := state.New(stateFile)

			if reset {
				if err := st.Reset(); err != nil {
					return fmt.Errorf("reset state: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "State file %s removed.\n", st.Path())
				return nil
			}

			if err := st.Load(); err != nil {
				return fmt.Errorf("load state: %w", err)
			}

			runs := st.Runs()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d processed run(s)\n", st.Path(), len(runs))
			for _, run := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+run)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFile, "state-file", ".seqferry_state.json", "Path of the resume state file")
	cmd.Flags().BoolVar(&reset, "reset", false, "Remove the state file instead of showing it")

	return cmd
}
