package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litenc/internal/catalog"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/function"
	"github.com/roach88/litenc/internal/literal"
	"github.com/roach88/litenc/internal/store"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Native string // native representation override
	Save   bool   // store the literal as a fragment
}

// EncodeResult is the output of the encode command.
type EncodeResult struct {
	Type        string `json:"type"`
	SQL         string `json:"sql"`
	Form        string `json:"form"`
	Fingerprint string `json:"fingerprint"`
	Signature   string `json:"signature,omitempty"`
	FragmentID  string `json:"fragment_id,omitempty"`
}

func (r EncodeResult) String() string {
	return r.SQL
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <type> <value>",
		Short: "Encode a value as a SQL literal expression",
		Long: `Encode a value of the given type as a SQL literal expression.

The value is written the way scenario files write it: display text for
scalars, base64 for binary data, a YAML sequence for arrays and null for
NULL. Types declared with --catalog resolve like standard types.

With --save the expression is stored as a fragment in --db, and the
$literal$ function it calls is added to the registry.

Examples:
  litenc encode bigint 42
  litenc encode 'decimal(10,2)' 12.34
  litenc encode 'array(bigint)' '[1, 2, null]'
  litenc encode color 3 --catalog ./types --save --db litenc.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Native, "native", "", "native representation override (int32|int64|float64|boolean|bytes)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store the literal as a fragment in --db")

	return cmd
}

func runEncode(opts *EncodeOptions, signature, text string, cmd *cobra.Command) error {
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

	result := EncodeResult{
		Type: enc.typ.String(),
		SQL:  expr.Format(enc.expr),
		Form: string(enc.form),
	}
	if result.Fingerprint, err = expr.Fingerprint(enc.expr); err != nil {
		return e.fail(ExitCommandError, ErrCodeGeneric, "fingerprinting literal", err)
	}

	var sig *function.Signature
	if enc.form == literal.FormMagic || enc.form == literal.FormBinary {
		s, err := literal.MagicLiteralSignature(enc.typ)
		if err != nil {
			return e.fail(ExitCommandError, ErrCodeEncoding, "building signature", err)
		}
		sig = &s
		result.Signature = s.String()
	}

	if opts.Save {
		st, err := e.store()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		if sig != nil {
			if _, err := st.RegisterSignature(ctx, *sig); err != nil {
				return e.storeError("registering "+sig.Name.String(), err)
			}
		}
		f, err := st.WriteFragment(ctx, []expr.Expression{enc.expr})
		if err != nil {
			return e.storeError("saving fragment", err)
		}
		result.FragmentID = f.ID
	}

	e.formatter.VerboseLog("form: %s", result.Form)
	e.formatter.VerboseLog("fingerprint: %s", result.Fingerprint)
	if result.Signature != "" {
		e.formatter.VerboseLog("function: %s", result.Signature)
	}
	if result.FragmentID != "" {
		e.formatter.VerboseLog("saved fragment %s", result.FragmentID)
	}
	return e.formatter.Success(result)
}

// encodedArgument is a command-line value and its literal.
type encodedArgument struct {
	typ   types.Type
	value value.Value
	expr  expr.Expression
	form  literal.Form
}

// encode resolves the type, parses the value and encodes it. The caller
// releases the value.
func (e *env) encode(cat *catalog.Catalog, signature, text, native string) (*encodedArgument, error) {
	t, err := cat.Type(signature)
	if err != nil {
		return nil, e.fail(ExitCommandError, ErrCodeInvalidType, fmt.Sprintf("resolving type %q", signature), err)
	}

	v, err := e.parseArgument(text, t, native)
	if err != nil {
		return nil, e.fail(ExitCommandError, ErrCodeInvalidValue, fmt.Sprintf("parsing %s value", t), err)
	}

	x, form, err := literal.NewEncoder(cat, literal.WithLogger(e.logger)).EncodeForm(v, t)
	if err != nil {
		release(v)
		return nil, e.fail(ExitCommandError, ErrCodeEncoding, fmt.Sprintf("encoding %s value", t), err)
	}
	return &encodedArgument{typ: t, value: v, expr: x, form: form}, nil
}

// storeError maps store errors to CLI error codes.
func (e *env) storeError(message string, err error) error {
	var conflict *store.ConflictError
	switch {
	case errors.As(err, &conflict):
		return e.fail(ExitCommandError, ErrCodeRegistryClash, message, err)
	case errors.Is(err, store.ErrNotFound):
		return e.fail(ExitCommandError, ErrCodeNotFound, message, err)
	default:
		return e.fail(ExitCommandError, ErrCodeStore, message, err)
	}
}
