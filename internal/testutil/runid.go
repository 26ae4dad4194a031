package testutil

import (
	"fmt"
	"sync"
)

// FixedRunID returns the same run id every time, so that stored runs and
// golden snapshots are byte-identical across test runs.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator. An empty id defaults
// to "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate implements store.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}

// SequentialRunIDs hands out "run-0001", "run-0002", ... and can be reset
// so a scenario can be replayed with the same ids.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialRunIDs struct {
	mu  sync.Mutex
	seq int
}

// NewSequentialRunIDs creates a generator whose first id is "run-0001".
func NewSequentialRunIDs() *SequentialRunIDs {
	return &SequentialRunIDs{}
}

// Generate implements store.RunIDGenerator.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Count returns how many ids have been handed out.
func (g *SequentialRunIDs) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence at "run-0001".
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
