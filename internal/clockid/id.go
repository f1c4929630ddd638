package clockid

import "github.com/google/uuid"

// IDGenerator mints unique identifiers for traces, executions, and
// proposals. An interface rather than a bare package-level func so tests
// can inject predictable sequences.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production IDGenerator, backed by random UUIDv4s,
// the same approach the requestid package uses for request ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// StaticGenerator returns IDs from a fixed list in order, looping on the
// last entry once exhausted. Intended for tests.
type StaticGenerator struct {
	IDs []string
	idx int
}

func (g *StaticGenerator) NewID() string {
	if len(g.IDs) == 0 {
		return "static-id"
	}
	if g.idx >= len(g.IDs) {
		return g.IDs[len(g.IDs)-1]
	}
	id := g.IDs[g.idx]
	g.idx++
	return id
}
