package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check that a recording file parses",
		Long: `Check that a recording file parses in the selected format.

Unlike a Beatbox in Record or Playback mode, verify never moves an
unreadable file aside.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := readRecordings(rootOpts.Format, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d recordings\n", args[0], len(recs))
			return nil
		},
	}
}
