package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/store"
)

// FragmentSummary is one stored fragment in command output.
type FragmentSummary struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Size        int    `json:"size"`
}

// FragmentListResult is the output of fragment list.
type FragmentListResult struct {
	Fragments []FragmentSummary `json:"fragments"`
}

func (r FragmentListResult) String() string {
	if len(r.Fragments) == 0 {
		return "No fragments."
	}
	lines := make([]string, len(r.Fragments))
	for i, f := range r.Fragments {
		lines[i] = fmt.Sprintf("%s  %s  %d", f.ID, f.Fingerprint[:12], f.Size)
	}
	return strings.Join(lines, "\n")
}

// FragmentResult is the output of fragment show.
type FragmentResult struct {
	ID          string   `json:"id"`
	Fingerprint string   `json:"fingerprint"`
	Expressions []string `json:"expressions"`
}

func (r FragmentResult) String() string {
	return strings.Join(r.Expressions, "\n")
}

// FragmentListOptions holds flags for fragment list.
type FragmentListOptions struct {
	*RootOptions
	Using       string // only fragments calling this function
	Fingerprint string // only fragments with this fingerprint
}

// NewFragmentCommand creates the fragment command group.
func NewFragmentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fragment",
		Short: "Inspect stored literal fragments",
		Long: `Inspect the fragments saved in the store given by --db.

A fragment is an ordered list of encoded expressions, stored under a
time-ordered id together with its content fingerprint.`,
	}

	cmd.AddCommand(newFragmentListCommand(rootOpts))
	cmd.AddCommand(newFragmentShowCommand(rootOpts))

	return cmd
}

func newFragmentListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FragmentListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List fragments in creation order",
		Example: `  litenc fragment list --db litenc.db
  litenc fragment list --using '$literal$hyperloglog' --db litenc.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFragmentList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Using, "using", "", "only fragments calling this function")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only fragments with this fingerprint")

	return cmd
}

func runFragmentList(opts *FragmentListOptions, cmd *cobra.Command) error {
	e := newEnv(opts.RootOptions, cmd)

	st, err := e.store()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	infos, err := st.ListFragments(ctx)
	if err != nil {
		return e.storeError("listing fragments", err)
	}

	keep := func(string) bool { return true }
	if opts.Using != "" || opts.Fingerprint != "" {
		allowed, err := filterFragments(ctx, st, opts)
		if err != nil {
			return e.storeError("filtering fragments", err)
		}
		keep = func(id string) bool { return allowed[id] }
	}

	result := FragmentListResult{Fragments: []FragmentSummary{}}
	for _, info := range infos {
		if !keep(info.ID) {
			continue
		}
		result.Fragments = append(result.Fragments, FragmentSummary{
			ID:          info.ID,
			Fingerprint: info.Fingerprint,
			Size:        info.Size,
		})
	}
	e.formatter.VerboseLog("%d of %d fragments", len(result.Fragments), len(infos))
	return e.formatter.Success(result)
}

// filterFragments returns the ids matching every filter that is set.
func filterFragments(ctx context.Context, st *store.Store, opts *FragmentListOptions) (map[string]bool, error) {
	var sets [][]string
	if opts.Using != "" {
		ids, err := st.FragmentsUsing(ctx, opts.Using)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ids)
	}
	if opts.Fingerprint != "" {
		ids, err := st.FragmentsByFingerprint(ctx, opts.Fingerprint)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ids)
	}

	counts := make(map[string]int)
	for _, ids := range sets {
		for _, id := range ids {
			counts[id]++
		}
	}
	allowed := make(map[string]bool, len(counts))
	for id, n := range counts {
		if n == len(sets) {
			allowed[id] = true
		}
	}
	return allowed, nil
}

func newFragmentShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Print the expressions of a fragment",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFragmentShow(opts, args[0], cmd)
		},
	}
}

func runFragmentShow(opts *RootOptions, id string, cmd *cobra.Command) error {
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

	f, err := st.ReadFragment(context.Background(), id, cat)
	if err != nil {
		return e.storeError("reading fragment "+id, err)
	}

	result := FragmentResult{
		ID:          f.ID,
		Fingerprint: f.Fingerprint,
		Expressions: make([]string, len(f.Expressions)),
	}
	for i, x := range f.Expressions {
		result.Expressions[i] = expr.Format(x)
	}
	return e.formatter.Success(result)
}
