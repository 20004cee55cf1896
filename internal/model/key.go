package model

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// KeyGenerator produces string primary keys for new objects.
type KeyGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 keys. A UUID string is
// printable ASCII, well under 255 characters and never starts with an
// underscore, so it is always a valid record name.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewKey returns a new UUIDv7 string key.
func NewKey() string {
	return UUIDv7Generator{}.Generate()
}

// FixedGenerator returns predetermined keys in order, for tests.
// Safe for concurrent use.
type FixedGenerator struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedGenerator creates a generator that returns keys in sequence.
func NewFixedGenerator(keys ...string) *FixedGenerator {
	return &FixedGenerator{keys: keys}
}

// Generate returns the next key. Panics when the sequence is exhausted.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.keys) {
		panic(fmt.Sprintf("FixedGenerator exhausted after %d keys", len(g.keys)))
	}
	k := g.keys[g.idx]
	g.idx++
	return k
}
