// Package idgen produces the opaque identifiers handed out for rounds and
// bets.  The generator is injected into the round registry so tests can
// swap in a deterministic sequence.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Identifier lengths in bytes.
const (
	RoundIDBytes = 6
	BetIDBytes   = 4
)

// Generator returns a new identifier built from byteLength bytes of entropy.
// Implementations must not return an error: entropy failure is fatal.
type Generator interface {
	NewID(byteLength int) string
}

// ──────────────────────────────────────────────────────────────────────────────
// Hex
// ──────────────────────────────────────────────────────────────────────────────

// Hex encodes random bytes as lowercase hex (2 characters per byte).
type Hex struct {
	src io.Reader
}

// NewHex returns a Hex generator reading from crypto/rand.
func NewHex() *Hex {
	return &Hex{src: rand.Reader}
}

// NewHexFromReader returns a Hex generator reading from src.
func NewHexFromReader(src io.Reader) *Hex {
	return &Hex{src: src}
}

// NewID panics when the entropy source fails.
func (g *Hex) NewID(byteLength int) string {
	if byteLength <= 0 {
		byteLength = RoundIDBytes
	}
	buf := make([]byte, byteLength)
	if _, err := io.ReadFull(g.src, buf); err != nil {
		panic(fmt.Sprintf("idgen: entropy source failed: %v", err))
	}
	return hex.EncodeToString(buf)
}

// ──────────────────────────────────────────────────────────────────────────────
// UUID
// ──────────────────────────────────────────────────────────────────────────────

// UUID returns random (v4) UUID strings.  byteLength is ignored; a UUID
// always carries 16 bytes.
type UUID struct{}

// NewID panics if the system entropy source fails (uuid.New semantics).
func (UUID) NewID(int) string {
	return uuid.NewString()
}

// ──────────────────────────────────────────────────────────────────────────────
// Sequence
// ──────────────────────────────────────────────────────────────────────────────

// Sequence hands out prefix-000001, prefix-000002, ... and is safe for
// concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequence creates a deterministic generator.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewID ignores byteLength.
func (s *Sequence) NewID(int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%06d", s.prefix, s.n)
}

// FromFormat maps a configuration value to a generator.  Unknown formats
// fall back to Hex.
func FromFormat(format string) Generator {
	switch format {
	case "uuid":
		return UUID{}
	default:
		return NewHex()
	}
}
