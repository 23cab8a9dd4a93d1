package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/internal/wire"
	"github.com/unkn0wn-root/beatbox/value"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // recording file format: "json" | "cbor" | "msgpack"
}

// ValidFormats defines the allowed recording file formats.
var ValidFormats = []string{codec.FormatJSON, codec.FormatCBOR, codec.FormatMsgpack}

// NewRootCommand creates the root command for the beatbox CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "beatbox",
		Short: "Inspect beatbox recording files",
		Long:  "List, show, verify and convert the recording files written by beatbox in Record mode.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", codec.FormatJSON, "recording file format (json|cbor|msgpack)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// readRecordings loads a recording file without ever moving it aside.
func readRecordings(format, path string) (map[string]value.Value, error) {
	c, err := codec.Format(format)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return wire.DecodeDocument(c, b)
}
