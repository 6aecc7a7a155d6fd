// Package zone tracks where every card is. It is the single source of
// truth for board membership: the rest of the engine reads zone
// contents through Query and mutates them only through Move, Insert and
// Remove, which keep the one-card-one-slot invariant.
package zone

import (
	"errors"
	"fmt"

	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
)

// Capacities of the slotted zones.
const (
	MonsterSlots   = 5
	SpellTrapSlots = 5
	FieldSlots     = 1
)

// SlotAny asks Insert/Move to pick the leftmost free slot (slotted
// zones) or append (stacked zones).
const SlotAny = -1

var (
	// ErrZoneFull is returned when a slotted zone has no free slot, or
	// the requested slot is occupied.
	ErrZoneFull = errors.New("zone: full")
	// ErrNotPresent is returned when the card is not where the caller
	// claims it is.
	ErrNotPresent = errors.New("zone: card not present")
	// ErrBadZone is returned for locations the index does not manage.
	ErrBadZone = errors.New("zone: invalid location")
)

// Placement names one zone of one player.
type Placement struct {
	Player   uint8
	Location ocg.Location
}

func (p Placement) String() string {
	return fmt.Sprintf("p%d/%s", p.Player, p.Location)
}

// playerZones holds one player's containers. Stacked zones are ordered
// slices (index 0 is the bottom); slotted zones are fixed arrays where
// a zero handle marks an empty slot.
type playerZones struct {
	deck    []arena.Handle
	hand    []arena.Handle
	grave   []arena.Handle
	removed []arena.Handle
	extra   []arena.Handle
	mzone   [MonsterSlots]arena.Handle
	szone   [SpellTrapSlots]arena.Handle
	fzone   [FieldSlots]arena.Handle
}

// Index is the zone membership table for both players.
type Index struct {
	players [2]playerZones
}

// New returns an empty zone index.
func New() *Index {
	return &Index{}
}

// Query returns the handles in a zone in order. For slotted zones only
// occupied slots appear, left to right. The returned slice is a copy.
func (ix *Index) Query(at Placement) []arena.Handle {
	if at.Player > 1 {
		return nil
	}
	pz := &ix.players[at.Player]
	switch at.Location {
	case ocg.LocationDeck:
		return append([]arena.Handle(nil), pz.deck...)
	case ocg.LocationHand:
		return append([]arena.Handle(nil), pz.hand...)
	case ocg.LocationGrave:
		return append([]arena.Handle(nil), pz.grave...)
	case ocg.LocationRemoved:
		return append([]arena.Handle(nil), pz.removed...)
	case ocg.LocationExtra:
		return append([]arena.Handle(nil), pz.extra...)
	case ocg.LocationMZone:
		return occupied(pz.mzone[:])
	case ocg.LocationSZone:
		return occupied(pz.szone[:])
	case ocg.LocationFZone:
		return occupied(pz.fzone[:])
	default:
		return nil
	}
}

// Count returns the number of cards in a zone.
func (ix *Index) Count(at Placement) int {
	return len(ix.Query(at))
}

// Slot returns the handle in a specific slot of a slotted zone.
func (ix *Index) Slot(at Placement, slot int) (arena.Handle, bool) {
	slots := ix.slots(at)
	if slots == nil || slot < 0 || slot >= len(slots) {
		return arena.Handle{}, false
	}
	h := slots[slot]
	return h, !h.IsZero()
}

// Top returns the top card of a stacked zone (the draw end of a deck).
func (ix *Index) Top(at Placement) (arena.Handle, bool) {
	stack := ix.stack(at)
	if stack == nil || len(*stack) == 0 {
		return arena.Handle{}, false
	}
	return (*stack)[len(*stack)-1], true
}

// Contains reports whether the card is in the given zone, returning
// its slot or stack index.
func (ix *Index) Contains(h arena.Handle, at Placement) (int, bool) {
	if slots := ix.slots(at); slots != nil {
		for i, s := range slots {
			if s == h {
				return i, true
			}
		}
		return 0, false
	}
	if stack := ix.stack(at); stack != nil {
		for i, s := range *stack {
			if s == h {
				return i, true
			}
		}
	}
	return 0, false
}

// Insert places a card into a zone it is not currently in. Callers
// moving a card between zones use Move; Insert is for cards entering
// play (deck construction, token creation). Returns the slot or stack
// index used.
func (ix *Index) Insert(h arena.Handle, at Placement, slotHint int) (int, error) {
	if at.Player > 1 {
		return 0, fmt.Errorf("%w: %s", ErrBadZone, at)
	}
	if slots := ix.slots(at); slots != nil {
		slot := slotHint
		if slot == SlotAny {
			slot = freeSlot(slots)
			if slot < 0 {
				return 0, fmt.Errorf("%w: %s", ErrZoneFull, at)
			}
		} else {
			if slot < 0 || slot >= len(slots) {
				return 0, fmt.Errorf("%w: %s slot %d", ErrBadZone, at, slotHint)
			}
			if !slots[slot].IsZero() {
				return 0, fmt.Errorf("%w: %s slot %d", ErrZoneFull, at, slot)
			}
		}
		slots[slot] = h
		return slot, nil
	}
	stack := ix.stack(at)
	if stack == nil {
		return 0, fmt.Errorf("%w: %s", ErrBadZone, at)
	}
	*stack = append(*stack, h)
	return len(*stack) - 1, nil
}

// Remove takes a card out of a zone. Fails with ErrNotPresent if the
// card is not there; the zone is left untouched on failure.
func (ix *Index) Remove(h arena.Handle, at Placement) error {
	if at.Player > 1 {
		return fmt.Errorf("%w: %s", ErrBadZone, at)
	}
	if slots := ix.slots(at); slots != nil {
		for i, s := range slots {
			if s == h {
				slots[i] = arena.Handle{}
				return nil
			}
		}
		return fmt.Errorf("%w: %s in %s", ErrNotPresent, h, at)
	}
	stack := ix.stack(at)
	if stack == nil {
		return fmt.Errorf("%w: %s", ErrBadZone, at)
	}
	for i, s := range *stack {
		if s == h {
			*stack = append((*stack)[:i], (*stack)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrNotPresent, h, at)
}

// Move atomically removes a card from one zone and inserts it into
// another. The destination is validated before the source is touched,
// so a failed move leaves both zones unchanged. Returns the
// destination slot or stack index.
func (ix *Index) Move(h arena.Handle, from, to Placement, slotHint int) (int, error) {
	if _, ok := ix.Contains(h, from); !ok {
		return 0, fmt.Errorf("%w: %s in %s", ErrNotPresent, h, from)
	}

	// Validate destination capacity up front. Same-zone moves free
	// their own slot, so exclude the card itself from the check.
	if slots := ix.slots(to); slots != nil {
		if slotHint == SlotAny {
			if freeSlotExcluding(slots, h) < 0 {
				return 0, fmt.Errorf("%w: %s", ErrZoneFull, to)
			}
		} else {
			if slotHint < 0 || slotHint >= len(slots) {
				return 0, fmt.Errorf("%w: %s slot %d", ErrBadZone, to, slotHint)
			}
			if occ := slots[slotHint]; !occ.IsZero() && occ != h {
				return 0, fmt.Errorf("%w: %s slot %d", ErrZoneFull, to, slotHint)
			}
		}
	} else if ix.stack(to) == nil {
		return 0, fmt.Errorf("%w: %s", ErrBadZone, to)
	}

	if err := ix.Remove(h, from); err != nil {
		return 0, err
	}
	slot, err := ix.Insert(h, to, slotHint)
	if err != nil {
		// Capacity was checked above; getting here means the index is
		// desynced and the caller must treat the duel as poisoned.
		return 0, fmt.Errorf("zone: desync reinserting %s: %w", h, err)
	}
	return slot, nil
}

// ShuffleFunc is a source of bounded random integers used by Shuffle;
// it must return a value in [min, max].
type ShuffleFunc func(min, max int) int

// Shuffle permutes a stacked zone in place using the supplied bounded
// random source, matching the reference shuffle order exactly.
func (ix *Index) Shuffle(at Placement, next ShuffleFunc) error {
	stack := ix.stack(at)
	if stack == nil {
		return fmt.Errorf("%w: %s", ErrBadZone, at)
	}
	s := *stack
	for i := 0; i < len(s)-1; i++ {
		j := next(i, len(s)-1)
		s[i], s[j] = s[j], s[i]
	}
	return nil
}

func (ix *Index) slots(at Placement) []arena.Handle {
	if at.Player > 1 {
		return nil
	}
	pz := &ix.players[at.Player]
	switch at.Location {
	case ocg.LocationMZone:
		return pz.mzone[:]
	case ocg.LocationSZone:
		return pz.szone[:]
	case ocg.LocationFZone:
		return pz.fzone[:]
	default:
		return nil
	}
}

func (ix *Index) stack(at Placement) *[]arena.Handle {
	if at.Player > 1 {
		return nil
	}
	pz := &ix.players[at.Player]
	switch at.Location {
	case ocg.LocationDeck:
		return &pz.deck
	case ocg.LocationHand:
		return &pz.hand
	case ocg.LocationGrave:
		return &pz.grave
	case ocg.LocationRemoved:
		return &pz.removed
	case ocg.LocationExtra:
		return &pz.extra
	default:
		return nil
	}
}

func occupied(slots []arena.Handle) []arena.Handle {
	var out []arena.Handle
	for _, h := range slots {
		if !h.IsZero() {
			out = append(out, h)
		}
	}
	return out
}

func freeSlot(slots []arena.Handle) int {
	for i, h := range slots {
		if h.IsZero() {
			return i
		}
	}
	return -1
}

func freeSlotExcluding(slots []arena.Handle, self arena.Handle) int {
	for i, h := range slots {
		if h.IsZero() || h == self {
			return i
		}
	}
	return -1
}
