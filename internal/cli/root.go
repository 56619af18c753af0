package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Catalog  string // directory of CUE extension type declarations
	LogLevel string // "debug" | "info" | "warn" | "error" | "none"
	DB       string // SQLite store path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogLevels defines the allowed --log-level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "none"}

// NewRootCommand creates the root command for the litenc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "litenc",
		Short: "litenc - typed literal encoding",
		Long: `Encode typed runtime values as SQL literal expressions.

Values of types with their own literal syntax become native literals.
NaN and infinities become special-value calls, and every other type
travels through a $literal$ reconstruction function.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !slices.Contains(ValidLogLevels, opts.LogLevel) {
				return fmt.Errorf("invalid log level %q: must be one of %v", opts.LogLevel, ValidLogLevels)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "directory of CUE extension type declarations")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error|none)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to the SQLite store")

	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewSignatureCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewRegistryCommand(opts))
	cmd.AddCommand(NewFragmentCommand(opts))

	return cmd
}
