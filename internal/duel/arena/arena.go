// Package arena owns every long-lived duel object (cards and players)
// behind stable, generation-checked handles. A freed slot bumps its
// generation, so any retained handle to the old object fails fast
// instead of aliasing whatever reuses the slot.
package arena

import (
	"errors"
	"fmt"

	"github.com/osirisengine/osiris-server-go/internal/duel/counters"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
)

// ErrStaleHandle is returned when a handle's generation no longer
// matches its slot. Dereferencing a stale handle is always an engine
// bug upstream, never a recoverable game state.
var ErrStaleHandle = errors.New("arena: stale handle")

// ErrWrongKind is returned when a handle of one kind is used to access
// an object of another.
var ErrWrongKind = errors.New("arena: wrong object kind")

// Kind discriminates the object behind a handle.
type Kind uint8

const (
	KindNone Kind = iota
	KindCard
	KindPlayer
)

// Handle is a generation-tagged reference into the arena. The zero
// Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
	kind  Kind
}

// IsZero reports whether the handle is the zero (never-valid) handle.
func (h Handle) IsZero() bool { return h.kind == KindNone }

// Kind returns the object kind the handle refers to.
func (h Handle) Kind() Kind { return h.kind }

func (h Handle) String() string {
	switch h.kind {
	case KindCard:
		return fmt.Sprintf("card#%d.%d", h.index, h.gen)
	case KindPlayer:
		return fmt.Sprintf("player#%d", h.index)
	default:
		return "handle#zero"
	}
}

// Pack encodes the handle into a single integer suitable for crossing
// the script boundary. Unpack restores it; the generation travels with
// the index so scripts cannot forge a live handle from a stale one.
func (h Handle) Pack() int64 {
	return int64(h.kind)<<48 | int64(h.gen)<<24 | int64(h.index)
}

// Unpack decodes a handle previously produced by Pack. The result
// still goes through the usual generation check on first use.
func Unpack(v int64) Handle {
	return Handle{
		index: uint32(v & 0xffffff),
		gen:   uint32((v >> 24) & 0xffffff),
		kind:  Kind(v >> 48),
	}
}

// StatBlock holds the printed or current numeric attributes of a card.
type StatBlock struct {
	Type      ocg.CardType
	Level     uint32
	Rank      uint32
	Link      uint32
	Attribute ocg.Attribute
	Race      ocg.Race
	Attack    int32
	Defense   int32
}

// Card is an arena-owned game object. It records its own placement
// (location, sequence, position) but never owns another card: every
// card-to-card relationship lives in the arena's relation tables.
type Card struct {
	Code  uint32
	Alias uint32

	Original StatBlock
	Current  StatBlock

	Owner      uint8
	Controller uint8

	Location ocg.Location
	Sequence int
	Position ocg.Position

	Counters *counters.Counters

	// Effects lists the identifiers of continuous effects this card has
	// registered with the engine.
	Effects []uint32
}

// Player is an arena-owned participant. Zone contents live in the zone
// index; the player carries only scalar duel state.
type Player struct {
	Seat uint8
	LP   int32

	// Turn-scoped flags, reset at turn change.
	NormalSummoned bool
	PhaseSkips     uint32
}

// RelationKind labels an entry in the card-to-card relation tables.
type RelationKind uint8

const (
	RelationEquip RelationKind = iota + 1
	RelationMaterial
	RelationTarget
)

type relation struct {
	to   Handle
	kind RelationKind
}

type cardSlot struct {
	gen  uint32
	live bool
	card *Card
}

// Arena allocates and resolves all duel objects. It is not safe for
// concurrent use; the owning duel serializes access.
type Arena struct {
	cards   []cardSlot
	players [2]*Player

	// relations is an adjacency list keyed by the owning card's handle.
	// reverse tracks which handles point at a given card so Free can
	// sever inbound references without scanning.
	relations map[Handle][]relation
	reverse   map[Handle][]Handle
}

// New returns an empty arena with both player slots unallocated.
func New() *Arena {
	return &Arena{
		relations: make(map[Handle][]relation),
		reverse:   make(map[Handle][]Handle),
	}
}

// NewCard allocates a card and returns its handle. The card starts
// with no location; placement is the zone index's job.
func (a *Arena) NewCard(code uint32, owner uint8) (Handle, *Card) {
	c := &Card{
		Code:       code,
		Owner:      owner,
		Controller: owner,
		Counters:   counters.New(),
	}
	// Reuse the first dead slot; generations make this safe.
	for i := range a.cards {
		if !a.cards[i].live {
			a.cards[i].live = true
			a.cards[i].card = c
			return Handle{index: uint32(i), gen: a.cards[i].gen, kind: KindCard}, c
		}
	}
	a.cards = append(a.cards, cardSlot{gen: 1, live: true, card: c})
	return Handle{index: uint32(len(a.cards) - 1), gen: 1, kind: KindCard}, c
}

// NewPlayer allocates the player for the given seat (0 or 1). Players
// live for the duel's lifetime and are never freed.
func (a *Arena) NewPlayer(seat uint8, lp int32) (Handle, *Player) {
	p := &Player{Seat: seat, LP: lp}
	a.players[seat] = p
	return Handle{index: uint32(seat), gen: 1, kind: KindPlayer}, p
}

// Card resolves a card handle, failing with ErrStaleHandle if the
// handle's generation does not match the slot.
func (a *Arena) Card(h Handle) (*Card, error) {
	if h.kind != KindCard {
		return nil, fmt.Errorf("%w: %s used as card", ErrWrongKind, h)
	}
	if int(h.index) >= len(a.cards) {
		return nil, fmt.Errorf("%w: %s out of range", ErrStaleHandle, h)
	}
	slot := &a.cards[h.index]
	if !slot.live || slot.gen != h.gen {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return slot.card, nil
}

// Player resolves a player handle.
func (a *Arena) Player(h Handle) (*Player, error) {
	if h.kind != KindPlayer {
		return nil, fmt.Errorf("%w: %s used as player", ErrWrongKind, h)
	}
	if h.index > 1 || a.players[h.index] == nil {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return a.players[h.index], nil
}

// PlayerBySeat resolves a player by seat number.
func (a *Arena) PlayerBySeat(seat uint8) *Player {
	if seat > 1 {
		return nil
	}
	return a.players[seat]
}

// Live reports whether the handle still refers to its original object.
func (a *Arena) Live(h Handle) bool {
	switch h.kind {
	case KindCard:
		return int(h.index) < len(a.cards) && a.cards[h.index].live && a.cards[h.index].gen == h.gen
	case KindPlayer:
		return h.index <= 1 && a.players[h.index] != nil
	default:
		return false
	}
}

// Relate records a relation from one live card to another. Relations
// are plain handle references, never ownership.
func (a *Arena) Relate(from, to Handle, kind RelationKind) error {
	if _, err := a.Card(from); err != nil {
		return err
	}
	if _, err := a.Card(to); err != nil {
		return err
	}
	a.relations[from] = append(a.relations[from], relation{to: to, kind: kind})
	a.reverse[to] = append(a.reverse[to], from)
	return nil
}

// Unrelate removes all relations of the given kind from one card to
// another. Missing relations are not an error.
func (a *Arena) Unrelate(from, to Handle, kind RelationKind) {
	rels := a.relations[from]
	kept := rels[:0]
	for _, r := range rels {
		if r.to == to && r.kind == kind {
			a.dropReverse(to, from)
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		delete(a.relations, from)
	} else {
		a.relations[from] = kept
	}
}

// Related returns the handles the given card points at with the given
// relation kind, in insertion order.
func (a *Arena) Related(from Handle, kind RelationKind) []Handle {
	var out []Handle
	for _, r := range a.relations[from] {
		if r.kind == kind {
			out = append(out, r.to)
		}
	}
	return out
}

// RelatedBy returns the handles that point at the given card.
func (a *Arena) RelatedBy(to Handle) []Handle {
	src := a.reverse[to]
	out := make([]Handle, len(src))
	copy(out, src)
	return out
}

// Free releases a card permanently. All relations from and to the card
// are severed first, so no live object retains a reference to the dead
// handle; the slot's generation then advances.
func (a *Arena) Free(h Handle) error {
	if _, err := a.Card(h); err != nil {
		return err
	}

	for _, r := range a.relations[h] {
		a.dropReverse(r.to, h)
	}
	delete(a.relations, h)

	for _, from := range a.reverse[h] {
		rels := a.relations[from]
		kept := rels[:0]
		for _, r := range rels {
			if r.to != h {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(a.relations, from)
		} else {
			a.relations[from] = kept
		}
	}
	delete(a.reverse, h)

	slot := &a.cards[h.index]
	slot.live = false
	slot.card = nil
	slot.gen++
	return nil
}

// Reset drops every card and relation. Used at duel teardown.
func (a *Arena) Reset() {
	a.cards = nil
	a.relations = make(map[Handle][]relation)
	a.reverse = make(map[Handle][]Handle)
	a.players = [2]*Player{}
}

func (a *Arena) dropReverse(to, from Handle) {
	refs := a.reverse[to]
	kept := refs[:0]
	removed := false
	for _, r := range refs {
		if !removed && r == from {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		delete(a.reverse, to)
	} else {
		a.reverse[to] = kept
	}
}
