package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/internal/util"
	"github.com/unkn0wn-root/beatbox/value"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	Output string // "json" | "yaml"
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{}
	cmd := &cobra.Command{
		Use:   "show <file> <key>",
		Short: "Print one recording as a tagged tree",
		Long: `Print one recording. <key> is either the full call key or the short
digest printed by ls.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := readRecordings(rootOpts.Format, args[0])
			if err != nil {
				return err
			}
			key, err := resolveKey(recs, args[1])
			if err != nil {
				return err
			}
			tree := value.ToTagged(recs[key])

			var out []byte
			switch opts.Output {
			case "json":
				out, err = codec.JSON[any]{Indent: "  "}.Encode(tree)
			case "yaml":
				out, err = yaml.Marshal(tree)
			default:
				return fmt.Errorf("invalid output %q: must be json or yaml", opts.Output)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "json", "output format (json|yaml)")
	return cmd
}

func resolveKey(recs map[string]value.Value, want string) (string, error) {
	if _, ok := recs[want]; ok {
		return want, nil
	}
	var match []string
	for _, k := range util.SortedKeys(recs) {
		if util.ShortKey(k) == want {
			match = append(match, k)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return "", fmt.Errorf("no recording for %q", want)
	default:
		return "", fmt.Errorf("digest %q is ambiguous: %v", want, match)
	}
}
