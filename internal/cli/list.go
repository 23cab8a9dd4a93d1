package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/beatbox"
	"github.com/unkn0wn-root/beatbox/internal/util"
	"github.com/unkn0wn-root/beatbox/value"
)

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <file>",
		Short: "List the recordings in a file",
		Long: `List every recording in a file, one per line, sorted by call key.

Columns are the short digest (usable with show), the kind of the recorded
result and the full call key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := readRecordings(rootOpts.Format, args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, k := range util.SortedKeys(recs) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", util.ShortKey(k), kindOf(recs[k]), k)
			}
			return w.Flush()
		},
	}
}

// kindOf names the recorded outcome; stored errors show as "raised".
func kindOf(v value.Value) string {
	if r, ok := v.(value.Record); ok && r.Type == beatbox.RaisedType {
		return "raised"
	}
	return value.Kind(v)
}
