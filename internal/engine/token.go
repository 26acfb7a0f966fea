package engine

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces correlation tokens stamped on each top-level query.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
// Tokens never influence resolution; they only tie diagnostic log lines to
// the query that produced them.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query tokens.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens for deterministic tests and
// golden comparisons.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order and
// panics once they are exhausted.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next fixed token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.tokens) {
		panic("engine: FixedGenerator exhausted")
	}
	tok := g.tokens[g.idx]
	g.idx++
	return tok
}
