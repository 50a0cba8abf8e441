/*
Package ids
File: ids.go
Description:
    Mints identifiers for facilities, tenants and companies.
*/

package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator returns a fresh id for an entity kind ("fac", "ten", "comp").
type Generator interface {
	Next(kind string) string
}

// UUID mints "<kind>-<uuid>" identifiers.
type UUID struct{}

func (UUID) Next(kind string) string {
	return kind + "-" + uuid.NewString()
}

// Sequence mints "<kind>-<n>" identifiers from a per-kind monotonic counter.
// Used by tests and replay tooling where ids must be reproducible. The zero
// value is ready to use.
type Sequence struct {
	mu   sync.Mutex
	next map[string]uint64
}

// NewSequence returns a sequence with every counter at zero.
func NewSequence() *Sequence {
	return &Sequence{next: make(map[string]uint64)}
}

func (s *Sequence) Next(kind string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = make(map[string]uint64)
	}
	s.next[kind]++
	return fmt.Sprintf("%s-%d", kind, s.next[kind])
}
