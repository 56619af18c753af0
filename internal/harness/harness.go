package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/catalog"
	"github.com/roach88/litenc/internal/eval"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/literal"
	"github.com/roach88/litenc/internal/store"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// Harness runs the cases of one scenario.
type Harness struct {
	catalog *catalog.Catalog
	encoder *literal.Encoder
	eval    *eval.Evaluator
	store   *store.Store
	mem     memory.Allocator
	logger  log.Logger
}

type config struct {
	mem     memory.Allocator
	logger  log.Logger
	store   *store.Store
	metrics *literal.Metrics
}

// Option configures Run.
type Option func(*config)

// WithAllocator sets the allocator for block values. Tests pass a checked
// allocator to catch leaks.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *config) {
		c.mem = mem
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStore records signatures and the fragment in st instead of a fresh
// in-memory database.
func WithStore(st *store.Store) Option {
	return func(c *config) {
		c.store = st
	}
}

// WithMetrics counts the encodings of the run.
func WithMetrics(m *literal.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// encoded is a case that encoded successfully, kept for the round-trip pass.
type encoded struct {
	name  string
	typ   types.Type
	value value.Value
	expr  expr.Expression
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the catalog from the scenario's CUE directory and inline extensions
//  2. Encode each case and check its expectations
//  3. Register the magic-literal signatures the cases needed
//  4. Store the encoded expressions as a fragment and read it back
//  5. Evaluate every decoded expression against the original value
//  6. Evaluate the assertions
//
// A returned error means the scenario could not be executed. Failed
// expectations are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		mem:    memory.DefaultAllocator,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cat := catalog.New(
		catalog.WithBlockSerde(block.NewSerde(block.WithAllocator(cfg.mem))),
		catalog.WithLogger(cfg.logger),
	)
	if scenario.Catalog != "" {
		if err := cat.LoadDir(scenario.Catalog); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	for _, ext := range scenario.Extensions {
		kind, err := types.ParseNativeKind(ext.Native)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", ext.Name, err)
		}
		if err := cat.Register(types.OpaqueType{Name: ext.Name, Rep: kind}); err != nil {
			return nil, err
		}
	}

	st := cfg.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:", store.WithLogger(cfg.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	encOpts := []literal.Option{literal.WithLogger(cfg.logger)}
	if cfg.metrics != nil {
		encOpts = append(encOpts, literal.WithMetrics(cfg.metrics))
	}
	h := &Harness{
		catalog: cat,
		encoder: literal.NewEncoder(cat, encOpts...),
		eval:    eval.New(cat),
		store:   st,
		mem:     cfg.mem,
		logger:  cfg.logger,
	}

	ctx := context.Background()
	result := NewResult()

	var cases []encoded
	defer func() {
		for _, c := range cases {
			release(c.value)
		}
	}()
	for _, c := range scenario.Cases {
		enc, err := h.runCase(ctx, c, result)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		if enc != nil {
			cases = append(cases, *enc)
		}
	}

	if err := h.roundTrip(ctx, cases, result); err != nil {
		return nil, err
	}

	sigs, err := st.ListSignatures(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	for _, sig := range sigs {
		result.Signatures = append(result.Signatures, sig.String())
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	level.Debug(h.logger).Log("msg", "scenario finished", "scenario", scenario.Name, "cases", len(scenario.Cases), "pass", result.Pass)
	return result, nil
}

// runCase encodes one case and checks its expectations. It returns nil if
// the case did not encode.
func (h *Harness) runCase(ctx context.Context, c Case, result *Result) (*encoded, error) {
	t, err := h.catalog.Type(c.Type)
	if err != nil {
		return nil, err
	}
	v, err := ParseValue(&c.Value, t, c.Native, h.mem)
	if err != nil {
		return nil, err
	}

	cr := CaseResult{Name: c.Name, Type: t.String()}
	expect := c.Expect
	if expect == nil {
		expect = &Expect{}
	}

	e, form, err := h.encoder.EncodeForm(v, t)
	if err != nil {
		release(v)
		var ee *literal.EncodingError
		if !errors.As(err, &ee) {
			return nil, err
		}
		cr.Error = string(ee.Code)
		result.Cases = append(result.Cases, cr)
		if expect.Error != cr.Error {
			result.AddError(fmt.Sprintf("case %s: unexpected error: %v", c.Name, err))
		}
		return nil, nil
	}

	cr.SQL = expr.Format(e)
	cr.Form = string(form)
	cr.Calls = calledFunctions(e)
	if cr.Fingerprint, err = expr.Fingerprint(e); err != nil {
		release(v)
		return nil, err
	}
	result.Cases = append(result.Cases, cr)

	switch {
	case expect.Error != "":
		result.AddError(fmt.Sprintf("case %s: expected error %s, encoded %s", c.Name, expect.Error, cr.SQL))
	case expect.SQL != "" && expect.SQL != cr.SQL:
		result.AddError(fmt.Sprintf("case %s: expected %s, got %s", c.Name, expect.SQL, cr.SQL))
	case expect.Form != "" && expect.Form != cr.Form:
		result.AddError(fmt.Sprintf("case %s: expected form %s, got %s", c.Name, expect.Form, cr.Form))
	}

	if form == literal.FormMagic || form == literal.FormBinary {
		sig, err := literal.MagicLiteralSignature(t)
		if err != nil {
			release(v)
			return nil, err
		}
		if _, err := h.store.RegisterSignature(ctx, sig); err != nil {
			release(v)
			return nil, err
		}
	}

	return &encoded{name: c.Name, typ: t, value: v, expr: e}, nil
}

// roundTrip stores the encoded expressions, reads them back and checks that
// each evaluates to its original value and type.
func (h *Harness) roundTrip(ctx context.Context, cases []encoded, result *Result) error {
	es := make([]expr.Expression, len(cases))
	for i, c := range cases {
		es[i] = c.expr
	}

	written, err := h.store.WriteFragment(ctx, es)
	if err != nil {
		return fmt.Errorf("failed to write fragment: %w", err)
	}
	result.FragmentID = written.ID
	result.Fingerprint = written.Fingerprint

	read, err := h.store.ReadFragment(ctx, written.ID, h.catalog)
	if err != nil {
		return fmt.Errorf("failed to read fragment: %w", err)
	}

	for i, c := range cases {
		decoded := read.Expressions[i]
		if got := expr.Format(decoded); got != expr.Format(c.expr) {
			result.AddError(fmt.Sprintf("case %s: wire round trip changed %s to %s", c.name, expr.Format(c.expr), got))
			continue
		}

		got, typ, err := h.eval.Eval(decoded)
		if err != nil {
			result.AddError(fmt.Sprintf("case %s: evaluate %s: %v", c.name, expr.Format(decoded), err))
			continue
		}
		if !types.Equal(typ, c.typ) {
			result.AddError(fmt.Sprintf("case %s: %s evaluates to type %s, want %s", c.name, expr.Format(decoded), typ, c.typ))
		} else if !value.Equal(c.typ, c.value, got) {
			result.AddError(fmt.Sprintf("case %s: %s evaluates to %s, want %s", c.name, expr.Format(decoded), value.String(got), value.String(c.value)))
		}
		release(got)
	}
	return nil
}

func calledFunctions(e expr.Expression) []string {
	var names []string
	expr.Inspect(e, func(n expr.Expression) bool {
		if call, ok := n.(*expr.FunctionCall); ok {
			names = append(names, call.Name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

func release(v value.Value) {
	if b, ok := v.(value.Block); ok && b.Array != nil {
		b.Array.Release()
	}
}
