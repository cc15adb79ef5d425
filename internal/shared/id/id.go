// Package id generates the ULID identifiers used to correlate hop logs.
//
// IDs never travel in the duration header; they only tag log lines so one
// hop and the downstream calls it made can be found together.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// HopID identifies one handled request on one service.
type HopID string

// CallID identifies one downstream call made during a hop.
type CallID string

const (
	HopPrefix  = "hop"
	CallPrefix = "call"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator whose IDs are monotonic within a millisecond.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(ulid.Monotonic(rand.Reader, 0))
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewHopID generates a new hop ID
func NewHopID() HopID {
	return HopID(Default().GenerateWithPrefix(HopPrefix))
}

// NewCallID generates a new downstream call ID
func NewCallID() CallID {
	return CallID(Default().GenerateWithPrefix(CallPrefix))
}

func (id HopID) String() string  { return string(id) }
func (id CallID) String() string { return string(id) }
