package duel

import (
	"fmt"

	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
	"github.com/osirisengine/osiris-server-go/internal/duel/counters"
	"github.com/osirisengine/osiris-server-go/internal/duel/msg"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
	"github.com/osirisengine/osiris-server-go/internal/duel/script"
	"github.com/osirisengine/osiris-server-go/internal/duel/zone"
)

// This file implements script.Host. These methods are the card
// scripts' only view of the engine; they run re-entrantly inside a
// processor step with the duel lock already held and must never be
// called from outside the script boundary.

func (d *Duel) unpackCard(card int64) (arena.Handle, *arena.Card, error) {
	h := arena.Unpack(card)
	c, err := d.arena.Card(h)
	if err != nil {
		return arena.Handle{}, nil, err
	}
	return h, c, nil
}

// FieldCards returns the packed handles in one zone of one player.
func (d *Duel) FieldCards(player uint8, location uint32) []int64 {
	handles := d.zones.Query(zone.Placement{Player: player, Location: ocg.Location(location)})
	out := make([]int64, len(handles))
	for i, h := range handles {
		out[i] = h.Pack()
	}
	return out
}

// CardCode returns a card's definition code.
func (d *Duel) CardCode(card int64) (uint32, error) {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return 0, err
	}
	return c.Code, nil
}

// CardPlace returns a card's controller, location, sequence and
// position.
func (d *Duel) CardPlace(card int64) (uint8, uint32, int, uint32, error) {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return c.Controller, uint32(c.Location), c.Sequence, uint32(c.Position), nil
}

// CardAttack returns a card's current attack.
func (d *Duel) CardAttack(card int64) (int32, error) {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return 0, err
	}
	return c.Current.Attack, nil
}

// CardDefense returns a card's current defense.
func (d *Duel) CardDefense(card int64) (int32, error) {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return 0, err
	}
	return c.Current.Defense, nil
}

// CounterCount returns how many counters of a kind sit on a card.
func (d *Duel) CounterCount(card int64, kind uint16) (int, error) {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return 0, err
	}
	return c.Counters.Count(counters.Kind(kind)), nil
}

// LP returns a player's life total.
func (d *Duel) LP(player uint8) int32 {
	if p := d.arena.PlayerBySeat(player); p != nil {
		return p.LP
	}
	return 0
}

// TurnPlayer returns the current turn player.
func (d *Duel) TurnPlayer() uint8 { return d.turnPlayer }

// CurrentPhase returns the current phase name.
func (d *Duel) CurrentPhase() string { return d.phase.String() }

// ChainDepth returns the number of unresolved chain links.
func (d *Duel) ChainDepth() int { return d.chains.Depth() }

// ScriptMove moves a card on behalf of a script, through the same
// invariant-preserving path as engine moves.
func (d *Duel) ScriptMove(card int64, player uint8, location uint32, slot int) error {
	h := arena.Unpack(card)
	if slot < 0 {
		slot = zone.SlotAny
	}
	return d.moveCard(h, zone.Placement{Player: player, Location: ocg.Location(location)}, slot, ocg.PositionNone)
}

// ScriptSetPosition changes a card's battle position in place.
func (d *Duel) ScriptSetPosition(card int64, position uint32) error {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return err
	}
	if !c.Location.Positioned() {
		return fmt.Errorf("card in %s has no position", c.Location)
	}
	old := c.Position
	c.Position = ocg.Position(position)
	d.emit(msg.PosChange{Card: cardRef(c), OldPosition: uint32(old)})
	return nil
}

// ScriptDamage inflicts effect damage.
func (d *Duel) ScriptDamage(player uint8, amount int32) error {
	return d.damage(player, amount)
}

// ScriptRecover gains life.
func (d *Duel) ScriptRecover(player uint8, amount int32) error {
	return d.recover(player, amount)
}

// ScriptPayLP pays life as a cost.
func (d *Duel) ScriptPayLP(player uint8, amount int32) error {
	return d.payLP(player, amount)
}

// ScriptDraw draws synchronously during a callback.
func (d *Duel) ScriptDraw(player uint8, count int) error {
	if err := d.draw(player, count); err != nil {
		if ia, ok := AsIllegal(err); ok && ia.Code == ReasonDeckOut {
			d.win(opponent(player), "deckout")
			return nil
		}
		return err
	}
	return nil
}

// ScriptAddCounter places counters on a card.
func (d *Duel) ScriptAddCounter(card int64, kind uint16, count int) error {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return err
	}
	c.Counters.Add(counters.Kind(kind), count)
	d.emit(msg.AddCounter{Card: cardRef(c), Counter: kind, Count: count})
	return nil
}

// ScriptRemoveCounter removes counters, reporting how many came off.
func (d *Duel) ScriptRemoveCounter(card int64, kind uint16, count int) (int, error) {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return 0, err
	}
	removed := c.Counters.Remove(counters.Kind(kind), count)
	if removed > 0 {
		d.emit(msg.RemoveCounter{Card: cardRef(c), Counter: kind, Count: removed})
	}
	return removed, nil
}

// ScriptEquip records an equip relation between two cards.
func (d *Duel) ScriptEquip(card, target int64) error {
	h, c, err := d.unpackCard(card)
	if err != nil {
		return err
	}
	th, tc, err := d.unpackCard(target)
	if err != nil {
		return err
	}
	if err := d.arena.Relate(h, th, arena.RelationEquip); err != nil {
		return err
	}
	d.emit(msg.Equip{Card: cardRef(c), Target: cardRef(tc)})
	return nil
}

// ScriptRegisterEffect records a continuous-effect registration on a
// card.
func (d *Duel) ScriptRegisterEffect(card int64, effectID uint32) error {
	_, c, err := d.unpackCard(card)
	if err != nil {
		return err
	}
	for _, e := range c.Effects {
		if e == effectID {
			return nil
		}
	}
	c.Effects = append(c.Effects, effectID)
	return nil
}

// ScriptNegateLink flags a chain link as negated.
func (d *Duel) ScriptNegateLink(link int) error {
	if err := d.chains.Negate(link); err != nil {
		return err
	}
	d.emit(msg.ChainNegated{Link: link})
	return nil
}

// ScriptSetTargets stages the targets chosen by a Target callback;
// the processor attaches them to the link being built.
func (d *Duel) ScriptSetTargets(cards []int64) error {
	d.pendingTargets = d.pendingTargets[:0]
	var refs []msg.CardRef
	for _, packed := range cards {
		h, c, err := d.unpackCard(packed)
		if err != nil {
			return err
		}
		d.pendingTargets = append(d.pendingTargets, h)
		refs = append(refs, cardRef(c))
	}
	if len(refs) > 0 {
		d.emit(msg.BecomeTarget{Cards: refs})
	}
	return nil
}

// ScriptSchedule stages a follow-up unit request. Requests are flushed
// to the front of the queue in call order when the callback returns,
// so nested consequences run before the current unit's siblings.
func (d *Duel) ScriptSchedule(req script.Request) error {
	switch req.Op {
	case "draw", "damage", "recover", "move", "activate", "check":
		d.scheduled = append(d.scheduled, req)
		return nil
	default:
		return fmt.Errorf("unknown scheduled op %q", req.Op)
	}
}

// Random returns a bounded integer from the duel RNG, keeping script
// randomness on the deterministic replay sequence.
func (d *Duel) Random(min, max int) int {
	if max < min {
		return min
	}
	return d.rng.intn(min, max)
}

// flushScheduled converts staged script requests into units at the
// front of the queue, preserving request order.
func (d *Duel) flushScheduled() {
	if len(d.scheduled) == 0 {
		return
	}
	units := make([]unit, 0, len(d.scheduled))
	for _, req := range d.scheduled {
		switch req.Op {
		case "draw":
			units = append(units, unit{kind: unitDraw, player: req.Player, count: req.Count})
		case "damage":
			units = append(units, unit{kind: unitDamage, player: req.Player, amount: req.Amount})
		case "recover":
			units = append(units, unit{kind: unitRecover, player: req.Player, amount: req.Amount})
		case "move":
			units = append(units, unit{
				kind:   unitMove,
				player: req.Player,
				card:   arena.Unpack(req.Card),
				loc:    ocg.Location(req.Location),
				slot:   req.Slot,
			})
		case "activate":
			units = append(units, unit{
				kind:     unitActivate,
				player:   req.Player,
				card:     arena.Unpack(req.Card),
				effectID: req.EffectID,
			})
		case "check":
			units = append(units, unit{kind: unitCheckState})
		}
	}
	d.scheduled = d.scheduled[:0]
	d.queue.pushFront(units...)
}
