package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces activation tokens. One token correlates the
// load, build and intersection log lines of a single Display.Activate.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator is the default generator. UUIDv7 tokens sort by
// creation time, so log lines of successive activations stay ordered.
type UUIDv7Generator struct{}

// Generate implements TokenGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator replays a fixed list of tokens, for tests that assert on
// activation tokens. It is safe for concurrent use.
type FixedGenerator struct {
	mu      sync.Mutex
	pending []string
}

// NewFixedGenerator creates a generator that returns tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{pending: tokens}
}

// Generate returns the next token. It panics once the list is used up: the
// test activated more often than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.pending) == 0 {
		panic("engine: FixedGenerator has no tokens left")
	}
	token := g.pending[0]
	g.pending = g.pending[1:]
	return token
}
