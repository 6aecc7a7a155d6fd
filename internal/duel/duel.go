// Package duel implements the duel state processor: the entity arena,
// zone index, chain stack and unit-based executor behind a single
// aggregate the host drives through commands and decision responses.
//
// One Duel is one independent instance. Execution is strictly
// sequential; the mutex only serializes host callers, there is no
// internal parallelism, and determinism of unit and chain ordering
// depends on that.
package duel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
	"github.com/osirisengine/osiris-server-go/internal/duel/chain"
	"github.com/osirisengine/osiris-server-go/internal/duel/msg"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
	"github.com/osirisengine/osiris-server-go/internal/duel/script"
	"github.com/osirisengine/osiris-server-go/internal/duel/zone"
	"go.uber.org/zap"
)

// CardDefinition is the static card data resolved from the injected
// provider. The engine treats the backing database as opaque.
type CardDefinition struct {
	Code      uint32
	Alias     uint32
	Setcode   uint64
	Type      ocg.CardType
	Level     uint32
	Attribute ocg.Attribute
	Race      ocg.Race
	Attack    int32
	Defense   int32
}

// CardProvider resolves card-definition ids to card data.
type CardProvider interface {
	Resolve(code uint32) (CardDefinition, error)
}

// Config assembles a duel instance.
type Config struct {
	Seed     uint32
	StartLP  int32
	Decks    [2][]uint32
	Provider CardProvider
	Scripts  script.Source
	Logger   *zap.Logger
}

// Duel is the aggregate duel state. All exported methods serialize on
// the internal mutex; only one caller may drive the processor at a
// time.
type Duel struct {
	mu sync.Mutex

	id     string
	logger *zap.Logger

	arena  *arena.Arena
	zones  *zone.Index
	chains *chain.Stack
	bridge *script.Bridge
	rng    *mt19937

	provider CardProvider

	players [2]arena.Handle

	queue      unitQueue
	phase      Phase
	turn       int
	turnPlayer uint8

	pending  *pendingDecision
	over     bool
	winner   uint8
	poisoned error

	// Script-callback staging, flushed by the processor.
	scheduled      []script.Request
	pendingTargets []arena.Handle

	initiated map[uint32]bool

	messages []msg.Message
	sink     func(msg.Message)
}

// New builds a duel, allocates both players, constructs their decks
// and seeds the RNG. The duel does not run until Start.
func New(cfg Config) (*Duel, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("duel: card provider is required")
	}
	if cfg.Scripts == nil {
		return nil, fmt.Errorf("duel: script source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	startLP := cfg.StartLP
	if startLP <= 0 {
		startLP = 8000
	}

	d := &Duel{
		id:        uuid.NewString(),
		logger:    logger,
		arena:     arena.New(),
		zones:     zone.New(),
		chains:    chain.New(),
		rng:       newMT19937(cfg.Seed),
		provider:  cfg.Provider,
		initiated: make(map[uint32]bool),
	}
	d.bridge = script.New(cfg.Scripts, d, logger.Named("script"))

	for seat := uint8(0); seat < 2; seat++ {
		d.players[seat], _ = d.arena.NewPlayer(seat, startLP)
		for _, code := range cfg.Decks[seat] {
			if _, err := d.createCard(code, seat, ocg.LocationDeck); err != nil {
				return nil, fmt.Errorf("duel: deck construction: %w", err)
			}
		}
	}

	d.logger.Info("duel created",
		zap.String("duel_id", d.id),
		zap.Uint32("seed", cfg.Seed),
		zap.Int("deck0", len(cfg.Decks[0])),
		zap.Int("deck1", len(cfg.Decks[1])),
	)
	return d, nil
}

// ID returns the duel instance identifier.
func (d *Duel) ID() string { return d.id }

// Start begins the duel and runs the processor until it needs a
// decision or the duel ends.
func (d *Duel) Start() (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.poisoned != nil {
		return Result{}, ErrPoisoned
	}
	if d.over || d.turn > 0 || d.pending != nil {
		return d.result(), illegal(ReasonBadResponse, "duel already started")
	}
	d.queue.pushBack(unit{kind: unitStartup})
	return d.run()
}

// Resume re-enters the processor with the answer to a pending
// decision. A wrong token or an illegal answer is rejected with
// IllegalAction and the decision stays pending; resuming with a valid
// answer produces the exact same downstream units as if the answer had
// been known synchronously.
func (d *Duel) Resume(token string, resp Response) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.poisoned != nil {
		return Result{}, ErrPoisoned
	}
	if d.over {
		return Result{Status: StatusOver}, illegal(ReasonDuelOver, "duel already over")
	}
	if d.pending == nil || d.pending.token != token {
		return d.result(), illegal(ReasonBadToken, "no pending decision for token %q", token)
	}

	u := d.pending.u
	u.step++
	u.response = &resp
	d.pending = nil
	d.queue.pushFront(u)
	return d.run()
}

// Close tears the instance down: the unit queue and pending decision
// are dropped and every entity is released. Commands after Close fail
// like commands after the duel ended.
func (d *Duel) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.over = true
	d.queue.clear()
	d.pending = nil
	d.scheduled = nil
	d.pendingTargets = nil
	d.arena.Reset()
}

// Poisoned returns the fatal error that disabled this instance, if
// any.
func (d *Duel) Poisoned() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.poisoned
}

// Over reports whether the duel has ended and who won.
func (d *Duel) Over() (bool, uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.over, d.winner
}

// SetSink installs a callback that observes every emitted message in
// order, in addition to the internal log.
func (d *Duel) SetSink(sink func(msg.Message)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = sink
}

// Messages returns a copy of the ordered message log.
func (d *Duel) Messages() []msg.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	cpy := make([]msg.Message, len(d.messages))
	copy(cpy, d.messages)
	return cpy
}

// Phase returns the current phase.
func (d *Duel) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Turn returns the turn number and turn player.
func (d *Duel) Turn() (int, uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.turn, d.turnPlayer
}

// Zone returns the message-level view of one zone, in order.
func (d *Duel) Zone(player uint8, loc ocg.Location) []msg.CardRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []msg.CardRef
	for _, h := range d.zones.Query(zone.Placement{Player: player, Location: loc}) {
		if c, err := d.arena.Card(h); err == nil {
			out = append(out, cardRef(c))
		}
	}
	return out
}

// HandCardHandle returns the packed handle of the index-th card in a
// player's hand. Hosts use this to answer chain windows with cards the
// pending decision did not enumerate.
func (d *Duel) HandCardHandle(player uint8, index int) (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hand := d.zones.Query(zone.Placement{Player: player, Location: ocg.LocationHand})
	if index < 0 || index >= len(hand) {
		return 0, false
	}
	return hand[index].Pack(), true
}

// LifePoints returns a player's life total.
func (d *Duel) LifePoints(player uint8) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.arena.PlayerBySeat(player); p != nil {
		return p.LP
	}
	return 0
}

// emit appends a message to the ordered log and forwards it to the
// sink. Message loss is a correctness bug: everything a passive
// observer needs to rebuild the visible board state passes through
// here.
func (d *Duel) emit(m msg.Message) {
	d.messages = append(d.messages, m)
	if d.sink != nil {
		d.sink(m)
	}
}

// poison marks the instance dead after an internal invariant
// violation. Every later command fails with ErrPoisoned.
func (d *Duel) poison(err error) error {
	d.poisoned = err
	d.queue.clear()
	d.pending = nil
	d.logger.Error("duel poisoned", zap.String("duel_id", d.id), zap.Error(err))
	return err
}

func (d *Duel) result() Result {
	if d.over {
		return Result{Status: StatusOver}
	}
	if d.pending != nil {
		dec := d.pending.dec
		return Result{Status: StatusAwaiting, Decision: &dec}
	}
	return Result{Status: StatusOver}
}

// createCard allocates a card from its definition, places it in the
// given stacked zone and runs the script's Initiate callback once per
// definition. Cards without a script are legal vanilla cards.
func (d *Duel) createCard(code uint32, owner uint8, loc ocg.Location) (arena.Handle, error) {
	def, err := d.provider.Resolve(code)
	if err != nil {
		return arena.Handle{}, fmt.Errorf("resolve card %d: %w", code, err)
	}
	h, c := d.arena.NewCard(code, owner)
	c.Alias = def.Alias
	stats := arena.StatBlock{
		Type:      def.Type,
		Level:     def.Level,
		Attribute: def.Attribute,
		Race:      def.Race,
		Attack:    def.Attack,
		Defense:   def.Defense,
	}
	c.Original = stats
	c.Current = stats

	seq, err := d.zones.Insert(h, zone.Placement{Player: owner, Location: loc}, zone.SlotAny)
	if err != nil {
		return arena.Handle{}, err
	}
	c.Location = loc
	c.Sequence = seq
	c.Position = ocg.PositionNone

	if !d.initiated[code] {
		d.initiated[code] = true
		if ok, err := d.bridge.Has(code, script.CallbackInitiate); err == nil && ok {
			if _, err := d.bridge.Invoke(code, script.CallbackInitiate, script.Env{Card: h.Pack(), Player: owner}); err != nil {
				if errors.Is(err, script.ErrDepthExceeded) {
					return arena.Handle{}, fatal(err)
				}
				// A broken Initiate fizzles; the card stays vanilla.
				d.logger.Warn("initiate failed", zap.Uint32("code", code), zap.Error(err))
			}
		}
	}
	return h, nil
}

// cardRef builds the message-level reference for a card.
func cardRef(c *arena.Card) msg.CardRef {
	code := c.Code
	if c.Position&ocg.PositionFaceDown != 0 {
		// Face-down cards are hidden from passive observers.
		code = 0
	}
	return msg.CardRef{
		Code:     code,
		Player:   c.Controller,
		Location: uint32(c.Location),
		Sequence: c.Sequence,
		Position: uint32(c.Position),
	}
}

// openRef is cardRef without face-down masking, for the owner's view.
func openRef(c *arena.Card) msg.CardRef {
	return msg.CardRef{
		Code:     c.Code,
		Player:   c.Controller,
		Location: uint32(c.Location),
		Sequence: c.Sequence,
		Position: uint32(c.Position),
	}
}

// moveCard is the single mutation path for zone transitions: an atomic
// remove-then-insert in the zone index, then the card's own placement
// fields, then the Move message. Domain failures leave everything
// untouched; a desync between index and card state is fatal.
func (d *Duel) moveCard(h arena.Handle, to zone.Placement, slotHint int, pos ocg.Position) error {
	c, err := d.arena.Card(h)
	if err != nil {
		return fatal(err)
	}
	from := zone.Placement{Player: c.Controller, Location: c.Location}
	before := cardRef(c)

	slot, err := d.zones.Move(h, from, to, slotHint)
	if err != nil {
		switch {
		case errors.Is(err, zone.ErrZoneFull):
			return illegal(ReasonZoneFull, "%s", to)
		case errors.Is(err, zone.ErrNotPresent):
			return fatal(err) // card state and index disagree
		default:
			return fatal(err)
		}
	}

	c.Controller = to.Player
	c.Location = to.Location
	c.Sequence = slot
	if to.Location.Positioned() {
		if pos == ocg.PositionNone {
			pos = ocg.PositionFaceUpAttack
		}
		c.Position = pos
	} else {
		c.Position = ocg.PositionNone
	}
	if !to.Location.Positioned() {
		c.Counters.Clear()
	}

	// Removal from the middle of a stacked zone shifts the cards above
	// it; their stored sequences must follow or later messages would
	// point observers at the wrong card.
	if !from.Location.Positioned() {
		if err := d.resyncStack(from); err != nil {
			return err
		}
	}

	d.emit(msg.Move{Card: cardRef(c), From: before})
	return nil
}

// resyncStack rewrites every card's Sequence in a stacked zone to its
// current stack index.
func (d *Duel) resyncStack(at zone.Placement) error {
	for i, h := range d.zones.Query(at) {
		c, err := d.arena.Card(h)
		if err != nil {
			return fatal(err)
		}
		c.Sequence = i
	}
	return nil
}

// damage, recover and payLP are the life-point mutation paths; each
// emits its cause followed by the resulting total.
func (d *Duel) damage(player uint8, amount int32) error {
	p := d.arena.PlayerBySeat(player)
	if p == nil {
		return fatal(fmt.Errorf("no player %d", player))
	}
	if amount <= 0 {
		return nil
	}
	p.LP -= amount
	d.emit(msg.Damage{Player: player, Amount: amount})
	d.emit(msg.LpUpdate{Player: player, LP: p.LP})
	return nil
}

func (d *Duel) recover(player uint8, amount int32) error {
	p := d.arena.PlayerBySeat(player)
	if p == nil {
		return fatal(fmt.Errorf("no player %d", player))
	}
	if amount <= 0 {
		return nil
	}
	p.LP += amount
	d.emit(msg.Recover{Player: player, Amount: amount})
	d.emit(msg.LpUpdate{Player: player, LP: p.LP})
	return nil
}

func (d *Duel) payLP(player uint8, amount int32) error {
	p := d.arena.PlayerBySeat(player)
	if p == nil {
		return fatal(fmt.Errorf("no player %d", player))
	}
	if p.LP < amount {
		return illegal(ReasonCost, "life %d < cost %d", p.LP, amount)
	}
	p.LP -= amount
	d.emit(msg.PayLpCost{Player: player, Amount: amount})
	d.emit(msg.LpUpdate{Player: player, LP: p.LP})
	return nil
}

// draw moves count cards from the top of the deck to the hand. An
// empty deck is a deck-out: a domain error, never a panic.
func (d *Duel) draw(player uint8, count int) error {
	deck := zone.Placement{Player: player, Location: ocg.LocationDeck}
	hand := zone.Placement{Player: player, Location: ocg.LocationHand}
	var codes []uint32
	for i := 0; i < count; i++ {
		top, ok := d.zones.Top(deck)
		if !ok {
			if len(codes) > 0 {
				d.emit(msg.Draw{Player: player, Codes: codes})
			}
			return ErrDeckOut
		}
		c, err := d.arena.Card(top)
		if err != nil {
			return fatal(err)
		}
		slot, err := d.zones.Move(top, deck, hand, zone.SlotAny)
		if err != nil {
			return fatal(err)
		}
		c.Location = ocg.LocationHand
		c.Sequence = slot
		c.Position = ocg.PositionNone
		codes = append(codes, c.Code)
	}
	d.emit(msg.Draw{Player: player, Codes: codes})
	return nil
}

// shuffleDeck permutes a deck with the duel RNG and announces it.
func (d *Duel) shuffleDeck(player uint8) {
	deck := zone.Placement{Player: player, Location: ocg.LocationDeck}
	_ = d.zones.Shuffle(deck, d.rng.intn)
	_ = d.resyncStack(deck)
	d.emit(msg.ShuffleDeck{Player: player})
}

// win ends the duel.
func (d *Duel) win(player uint8, reason string) {
	if d.over {
		return
	}
	d.over = true
	d.winner = player
	d.queue.clear()
	d.pending = nil
	d.emit(msg.Win{Winner: player, Reason: reason})
	d.logger.Info("duel over",
		zap.String("duel_id", d.id),
		zap.Uint8("winner", player),
		zap.String("reason", reason),
	)
}

func opponent(player uint8) uint8 { return 1 - player }
