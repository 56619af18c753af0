package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litenc/internal/eval"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Native string
}

// VerifyResult is the output of a successful verify.
type VerifyResult struct {
	Type  string `json:"type"`
	SQL   string `json:"sql"`
	Value string `json:"value"`
}

func (r VerifyResult) String() string {
	return fmt.Sprintf("✓ %s evaluates to %s %s", r.SQL, r.Type, r.Value)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <type> <value>",
		Short: "Check that a literal evaluates back to its value",
		Long: `Encode a value, send the expression through the wire codec and
evaluate it. The result must have the same type and an equal value.

Exit codes:
  0 - Round trip preserved type and value
  1 - Round trip changed the literal, the type or the value
  2 - Command error (bad type, unparseable value, etc.)

Examples:
  litenc verify double NaN
  litenc verify color 3 --catalog ./types`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Native, "native", "", "native representation override (int32|int64|float64|boolean|bytes)")

	return cmd
}

func runVerify(opts *VerifyOptions, signature, text string, cmd *cobra.Command) error {
	e := newEnv(opts.RootOptions, cmd)

	cat, err := e.catalog()
	if err != nil {
		return e.fail(ExitCommandError, ErrCodeCatalog, "loading catalog", err)
	}

	enc, err := e.encode(cat, signature, text, opts.Native)
	if err != nil {
		return err
	}
	defer release(enc.value)

	sql := expr.Format(enc.expr)
	e.formatter.VerboseLog("encoded: %s", sql)

	data, err := expr.Marshal(enc.expr)
	if err != nil {
		return e.fail(ExitFailure, ErrCodeRoundTrip, "marshaling "+sql, err)
	}
	decoded, err := expr.Unmarshal(data, cat)
	if err != nil {
		return e.fail(ExitFailure, ErrCodeRoundTrip, "unmarshaling "+sql, err)
	}
	if got := expr.Format(decoded); got != sql {
		return e.fail(ExitFailure, ErrCodeRoundTrip, fmt.Sprintf("wire codec changed %s to %s", sql, got), nil)
	}
	e.formatter.VerboseLog("wire: %d bytes", len(data))

	got, typ, err := eval.New(cat).Eval(decoded)
	if err != nil {
		return e.fail(ExitFailure, ErrCodeRoundTrip, "evaluating "+sql, err)
	}
	defer release(got)

	if !types.Equal(typ, enc.typ) {
		return e.fail(ExitFailure, ErrCodeRoundTrip, fmt.Sprintf("%s evaluates to type %s, want %s", sql, typ, enc.typ), nil)
	}
	if !value.Equal(enc.typ, enc.value, got) {
		return e.fail(ExitFailure, ErrCodeRoundTrip,
			fmt.Sprintf("%s evaluates to %s, want %s", sql, value.String(got), value.String(enc.value)), nil)
	}

	return e.formatter.Success(VerifyResult{
		Type:  enc.typ.String(),
		SQL:   sql,
		Value: value.String(got),
	})
}
