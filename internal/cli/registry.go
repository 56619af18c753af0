package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/litenc/internal/literal"
)

// RegisteredFunction is one registry entry in command output.
type RegisteredFunction struct {
	SignatureResult
	Inserted bool `json:"inserted"`
}

// RegisterResult is the output of registry register.
type RegisterResult struct {
	Functions []RegisteredFunction `json:"functions"`
}

func (r RegisterResult) String() string {
	var b strings.Builder
	for i, f := range r.Functions {
		if i > 0 {
			b.WriteByte('\n')
		}
		status := "exists"
		if f.Inserted {
			status = "added"
		}
		fmt.Fprintf(&b, "%s (%s)", f.Signature, status)
	}
	return b.String()
}

// ListResult is the output of registry list.
type ListResult struct {
	Functions []SignatureResult `json:"functions"`
}

func (r ListResult) String() string {
	if len(r.Functions) == 0 {
		return "No functions registered."
	}
	lines := make([]string, len(r.Functions))
	for i, f := range r.Functions {
		lines[i] = f.Signature
	}
	return strings.Join(lines, "\n")
}

// NewRegistryCommand creates the registry command group.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the $literal$ function registry",
		Long: `Manage the $literal$ functions recorded in the store given by --db.

A function is registered once per name. Registering it again with the
same signature is a no-op; a different signature is an error.`,
	}

	cmd.AddCommand(newRegistryRegisterCommand(rootOpts))
	cmd.AddCommand(newRegistryListCommand(rootOpts))

	return cmd
}

func newRegistryRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <type>...",
		Short: "Register the $literal$ functions of types",
		Example: `  litenc registry register hyperloglog color --catalog ./types --db litenc.db
  litenc registry register 'array(bigint)' --db litenc.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, args, cmd)
		},
	}
}

func runRegister(opts *RootOptions, signatures []string, cmd *cobra.Command) error {
	e := newEnv(opts, cmd)

	cat, err := e.catalog()
	if err != nil {
		return e.fail(ExitCommandError, ErrCodeCatalog, "loading catalog", err)
	}
	st, err := e.store()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	result := RegisterResult{Functions: make([]RegisteredFunction, 0, len(signatures))}
	for _, signature := range signatures {
		t, err := cat.Type(signature)
		if err != nil {
			return e.fail(ExitCommandError, ErrCodeInvalidType, fmt.Sprintf("resolving type %q", signature), err)
		}
		sig, err := literal.MagicLiteralSignature(t)
		if err != nil {
			return e.fail(ExitCommandError, ErrCodeEncoding, fmt.Sprintf("type %s", t), err)
		}
		inserted, err := st.RegisterSignature(ctx, sig)
		if err != nil {
			return e.storeError("registering "+sig.Name.String(), err)
		}
		e.formatter.VerboseLog("%s inserted=%t", sig.Name, inserted)
		result.Functions = append(result.Functions, RegisteredFunction{
			SignatureResult: newSignatureResult(sig),
			Inserted:        inserted,
		})
	}

	return e.formatter.Success(result)
}

func newRegistryListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered $literal$ functions in name order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	e := newEnv(opts, cmd)

	cat, err := e.catalog()
	if err != nil {
		return e.fail(ExitCommandError, ErrCodeCatalog, "loading catalog", err)
	}
	st, err := e.store()
	if err != nil {
		return err
	}
	defer st.Close()

	sigs, err := st.ListSignatures(context.Background(), cat)
	if err != nil {
		return e.storeError("listing functions", err)
	}

	result := ListResult{Functions: make([]SignatureResult, len(sigs))}
	for i, sig := range sigs {
		result.Functions[i] = newSignatureResult(sig)
	}
	return e.formatter.Success(result)
}
