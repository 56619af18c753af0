// Package catalog resolves type signatures for the literal encoder and its
// evaluator.
//
// A Catalog knows the standard types, any extension types registered on it
// (opaque engine types such as hyperloglog that only magic literals can
// express), and the block encoding serde used to ship columnar values.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/types"
)

// Catalog is safe for concurrent use. Registration normally completes before
// the catalog is handed to encoders.
type Catalog struct {
	serde  *block.Serde
	logger log.Logger

	mu         sync.RWMutex
	extensions map[string]types.OpaqueType
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithBlockSerde replaces the default block encoding serde.
func WithBlockSerde(serde *block.Serde) Option {
	return func(c *Catalog) {
		c.serde = serde
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// New creates a catalog holding only the standard types.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger:     log.NewNopLogger(),
		extensions: make(map[string]types.OpaqueType),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.serde == nil {
		c.serde = block.NewSerde()
	}
	return c
}

// Type resolves a canonical type signature, including extension types and
// arrays of them.
func (c *Catalog) Type(signature string) (types.Type, error) {
	return types.ParseWith(signature, c.lookup)
}

func (c *Catalog) lookup(name string) (types.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.extensions[name]
	return t, ok
}

// Register adds an extension type. Names are case-insensitive and must not
// shadow a standard type or an earlier registration.
func (c *Catalog) Register(t types.OpaqueType) error {
	name := strings.ToLower(strings.TrimSpace(t.Name))
	if name == "" {
		return fmt.Errorf("extension type without a name")
	}
	if strings.ContainsAny(name, "()") {
		return fmt.Errorf("extension type %q: name must not contain parentheses", name)
	}
	if _, err := types.Parse(name); err == nil {
		return fmt.Errorf("extension type %q shadows a standard type", name)
	}
	t.Name = name

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.extensions[name]; ok {
		if prev == t {
			return nil
		}
		return fmt.Errorf("extension type %q already registered with native kind %s", name, prev.Rep)
	}
	c.extensions[name] = t

	level.Debug(c.logger).Log("msg", "registered extension type", "type", name, "native", t.Rep)
	return nil
}

// Extensions lists the registered extension types ordered by name.
func (c *Catalog) Extensions() []types.OpaqueType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.OpaqueType, 0, len(c.extensions))
	for _, t := range c.extensions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BlockEncodingSerde returns the serde for columnar block values.
func (c *Catalog) BlockEncodingSerde() *block.Serde {
	return c.serde
}
