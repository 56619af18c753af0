// Package testutil holds deterministic helpers for store-backed tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs mints UUID-shaped fragment ids from a counter, so repeated
// runs write byte-identical fragment logs. Ids sort in generation order.
//
// Safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialIDs returns a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return SequentialID(g.seq), nil
}

// Current returns the sequence number of the last id handed out.
func (g *SequentialIDs) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next id ends in 1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// SequentialID is the id SequentialIDs hands out for sequence number n.
func SequentialID(n int64) string {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", n)
}

// FixedIDs hands out predetermined ids in order.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs returns a generator over ids.
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Generate returns the next predetermined id, or an error once all of
// them are used.
func (g *FixedIDs) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		return "", fmt.Errorf("fixed ids exhausted after %d", len(g.ids))
	}
	id := g.ids[g.idx]
	g.idx++
	return id, nil
}
