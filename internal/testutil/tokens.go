package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokens generates "<prefix>-1", "<prefix>-2", ... activation
// tokens. Unlike engine.FixedGenerator it never runs out, so scenarios may
// activate a display any number of times and still produce byte-identical
// traces.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokens creates a generator. An empty prefix becomes "act".
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "act"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next token. Implements engine.TokenGenerator.
func (g *SequentialTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialTokens) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
