package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator produces the identifier of each build run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-ordered UUIDv7 run IDs, so journal rows sort
// by creation.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a predetermined list of run IDs, for tests and
// golden files. It panics when the list runs out.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	pos int
}

// NewFixedGenerator returns a generator yielding ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next fixed ID.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pos >= len(g.ids) {
		panic(fmt.Sprintf("FixedGenerator exhausted after %d IDs", len(g.ids)))
	}
	id := g.ids[g.pos]
	g.pos++
	return id
}
