package querytree

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces node ids that are unique within a session.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates time-sortable UUIDv7 ids.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewID returns a hyphenated UUIDv7.
// Panics if the random source fails, which does not happen in practice.
func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns prefix1, prefix2, ... in order.
//
// Scripts and golden tests use it so that ids are known in advance.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// DefaultSequencePrefix is used when NewSequenceGenerator gets an empty prefix.
const DefaultSequencePrefix = "id-"

// NewSequenceGenerator creates a generator whose first id is prefix + "1".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = DefaultSequencePrefix
	}
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next id in the sequence.
func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

// Issued returns how many ids have been handed out.
func (g *SequenceGenerator) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
