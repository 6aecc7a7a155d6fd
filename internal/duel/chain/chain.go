// Package chain sequences overlapping effect activations. Links are
// pushed while the chain builds and resolved strictly last-in
// first-out; a link's index is fixed at push time and survives popping
// and negation so later effects can still refer to it.
package chain

import (
	"errors"
	"fmt"

	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
)

// ErrEmpty is returned when popping or peeking an empty chain.
var ErrEmpty = errors.New("chain: empty")

// Link is one pending effect activation.
type Link struct {
	// Index is the link's 1-based position in the chain, assigned at
	// push time and never reassigned.
	Index int

	Card     arena.Handle
	EffectID uint32

	// TriggerPlayer activated the effect; it keeps chain-response
	// priority after the push.
	TriggerPlayer uint8

	Targets []arena.Handle

	// CostPaid records that the activation cost was paid before the
	// push; costs are never refunded.
	CostPaid bool

	// Negated suppresses the link's Operation at resolution. The link
	// is still popped in order and keeps its index.
	Negated bool
}

// Stack is the live chain plus the historical record of every link
// pushed since the chain last emptied.
type Stack struct {
	links   []Link
	history []Link

	// next is the monotonic index source. It outlives pops so a link
	// pushed during resolution never reuses a resolved link's index,
	// and resets only when the chain empties.
	next int
}

// New creates an empty chain stack.
func New() *Stack {
	return &Stack{
		links: make([]Link, 0, 8),
	}
}

// Push appends a link, assigning it the next monotonic index. The
// assigned index is returned.
func (s *Stack) Push(link Link) int {
	s.next++
	link.Index = s.next
	s.links = append(s.links, link)
	s.history = append(s.history, link)
	return link.Index
}

// Pop removes and returns the most recently pushed unresolved link.
func (s *Stack) Pop() (Link, error) {
	if len(s.links) == 0 {
		return Link{}, ErrEmpty
	}
	idx := len(s.links) - 1
	link := s.links[idx]
	s.links = s.links[:idx]
	if len(s.links) == 0 {
		s.history = s.history[:0]
		s.next = 0
	}
	return link, nil
}

// Peek returns the top link without removing it.
func (s *Stack) Peek() (Link, bool) {
	if len(s.links) == 0 {
		return Link{}, false
	}
	return s.links[len(s.links)-1], true
}

// Depth returns the number of unresolved links.
func (s *Stack) Depth() int {
	return len(s.links)
}

// IsEmpty reports whether the chain has fully resolved.
func (s *Stack) IsEmpty() bool {
	return len(s.links) == 0
}

// Link returns the unresolved link with the given index.
func (s *Stack) Link(index int) (Link, bool) {
	for _, l := range s.links {
		if l.Index == index {
			return l, true
		}
	}
	return Link{}, false
}

// Negate flags the link with the given index so its Operation is
// skipped at resolution. Negation is the only way a link's execution
// is suppressed; the link itself stays in place.
func (s *Stack) Negate(index int) error {
	for i := range s.links {
		if s.links[i].Index == index {
			s.links[i].Negated = true
			for j := range s.history {
				if s.history[j].Index == index {
					s.history[j].Negated = true
				}
			}
			return nil
		}
	}
	return fmt.Errorf("chain: no unresolved link %d", index)
}

// List returns a copy of the unresolved links, bottom first.
func (s *Stack) List() []Link {
	cpy := make([]Link, len(s.links))
	copy(cpy, s.links)
	return cpy
}

// History returns every link pushed in the current chain, including
// already-resolved ones, in push order. Effects that care about "what
// was chained" read this rather than the live stack.
func (s *Stack) History() []Link {
	cpy := make([]Link, len(s.history))
	copy(cpy, s.history)
	return cpy
}
