package cli

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/catalog"
	"github.com/roach88/litenc/internal/harness"
	"github.com/roach88/litenc/internal/store"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// env is the shared state a command builds from the root flags.
type env struct {
	opts      *RootOptions
	formatter *OutputFormatter
	logger    log.Logger
	mem       memory.Allocator
}

func newEnv(opts *RootOptions, cmd *cobra.Command) *env {
	return &env{
		opts: opts,
		formatter: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
		logger: newLogger(cmd.ErrOrStderr(), opts.LogLevel),
		mem:    memory.DefaultAllocator,
	}
}

// newLogger builds a logfmt logger filtered to the given level.
func newLogger(w io.Writer, lvl string) log.Logger {
	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "error":
		allow = level.AllowError()
	case "none":
		allow = level.AllowNone()
	default:
		allow = level.AllowWarn()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, allow)
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

// catalog builds the type catalog, loading --catalog when set.
func (e *env) catalog() (*catalog.Catalog, error) {
	cat := catalog.New(
		catalog.WithBlockSerde(block.NewSerde(block.WithAllocator(e.mem))),
		catalog.WithLogger(e.logger),
	)
	if e.opts.Catalog != "" {
		if err := cat.LoadDir(e.opts.Catalog); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// store opens --db. Commands that need a store fail without it.
func (e *env) store() (*store.Store, error) {
	if e.opts.DB == "" {
		return nil, e.fail(ExitCommandError, ErrCodeStore, "--db is required", nil)
	}
	st, err := store.Open(e.opts.DB, store.WithLogger(e.logger))
	if err != nil {
		return nil, e.fail(ExitCommandError, ErrCodeStore, "opening store", err)
	}
	return st, nil
}

// fail reports an error through the formatter and returns the matching
// ExitError.
func (e *env) fail(exitCode int, code, message string, err error) error {
	detail := message
	if err != nil {
		detail = message + ": " + err.Error()
	}
	_ = e.formatter.Error(code, detail, nil)
	return WrapExitError(exitCode, code+": "+message, err)
}

// parseArgument reads a command-line value the way scenario files read
// theirs: as YAML, so null, sequences and quoted text all work.
func (e *env) parseArgument(text string, t types.Type, native string) (value.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		// Empty input is the empty string, not a missing value.
		node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: text}
	}
	return harness.ParseValue(&node, t, native, e.mem)
}

func release(v value.Value) {
	if b, ok := v.(value.Block); ok && b.Array != nil {
		b.Array.Release()
	}
}
