package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litenc/internal/function"
	"github.com/roach88/litenc/internal/literal"
)

// SignatureResult describes the $literal$ function of a type.
type SignatureResult struct {
	Name           string   `json:"name"`
	Signature      string   `json:"signature"`
	ReturnType     string   `json:"return_type"`
	ArgumentTypes  []string `json:"argument_types"`
	Representation string   `json:"representation,omitempty"`
}

func (r SignatureResult) String() string {
	return r.Signature
}

func newSignatureResult(sig function.Signature) SignatureResult {
	args := make([]string, len(sig.ArgumentTypes))
	for i, t := range sig.ArgumentTypes {
		args[i] = t.String()
	}
	r := SignatureResult{
		Name:          sig.Name.String(),
		Signature:     sig.String(),
		ReturnType:    sig.ReturnType.String(),
		ArgumentTypes: args,
	}
	if len(args) == 1 {
		r.Representation = args[0]
	}
	return r
}

// NewSignatureCommand creates the signature command.
func NewSignatureCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature <type>",
		Short: "Show the $literal$ function of a type",
		Long: `Show the $literal$ function that rebuilds values of a type.

The function takes one argument of the type's representation type:
bigint, double or boolean for primitive-backed types, varbinary for
everything else, and the type itself for varchar.

Examples:
  litenc signature hyperloglog --catalog ./types
  litenc signature 'array(bigint)' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignature(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSignature(opts *RootOptions, signature string, cmd *cobra.Command) error {
	e := newEnv(opts, cmd)

	cat, err := e.catalog()
	if err != nil {
		return e.fail(ExitCommandError, ErrCodeCatalog, "loading catalog", err)
	}
	t, err := cat.Type(signature)
	if err != nil {
		return e.fail(ExitCommandError, ErrCodeInvalidType, fmt.Sprintf("resolving type %q", signature), err)
	}
	sig, err := literal.MagicLiteralSignature(t)
	if err != nil {
		return e.fail(ExitCommandError, ErrCodeEncoding, fmt.Sprintf("type %s", t), err)
	}

	e.formatter.VerboseLog("native kind: %s", t.Native())
	return e.formatter.Success(newSignatureResult(sig))
}
