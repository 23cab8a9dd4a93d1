package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/internal/wire"
	"github.com/unkn0wn-root/beatbox/storage"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	To string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Rewrite a recording file in another format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.To) {
				return fmt.Errorf("invalid --to %q: must be one of %v", opts.To, ValidFormats)
			}
			recs, err := readRecordings(rootOpts.Format, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			c, err := codec.Format(opts.To)
			if err != nil {
				return err
			}
			b, err := wire.EncodeDocument(c, recs)
			if err != nil {
				return err
			}
			if err := storage.WriteFileAtomic(args[1], b, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d recordings to %s (%s)\n", len(recs), args[1], opts.To)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.To, "to", codec.FormatJSON, "output format (json|cbor|msgpack)")
	return cmd
}
