package duel

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
	"github.com/osirisengine/osiris-server-go/internal/duel/chain"
	"github.com/osirisengine/osiris-server-go/internal/duel/msg"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
	"github.com/osirisengine/osiris-server-go/internal/duel/script"
	"github.com/osirisengine/osiris-server-go/internal/duel/zone"
	"go.uber.org/zap"
)

const (
	startingHandSize = 5
	maxHandSize      = 6
)

// run drains the unit queue until a decision suspends the processor or
// the duel ends. Domain errors discard the offending unit and keep
// going; fatal errors poison the instance.
func (d *Duel) run() (Result, error) {
	// rejected carries the most recent discarded-unit error so the
	// caller learns the action failed even though the duel moved on.
	var rejected error
	for {
		if d.over {
			return Result{Status: StatusOver}, nil
		}
		if d.pending != nil {
			return d.result(), rejected
		}
		u, ok := d.queue.pop()
		if !ok {
			return Result{}, d.poison(fatal(fmt.Errorf("unit queue drained with duel unfinished")))
		}
		if err := d.executeUnit(u); err != nil {
			if isFatal(err) {
				return Result{}, d.poison(err)
			}
			if ia, ok := AsIllegal(err); ok {
				d.logger.Debug("unit rejected",
					zap.String("unit", u.kind.String()),
					zap.String("reason", ia.Code),
				)
				if d.pending != nil {
					// The decision was re-asked; surface the rejection.
					return d.result(), err
				}
				rejected = err
				continue
			}
			return Result{}, d.poison(fatal(err))
		}
	}
}

func (d *Duel) executeUnit(u unit) error {
	switch u.kind {
	case unitStartup:
		return d.execStartup(u)
	case unitTurnStart:
		return d.execTurnStart(u)
	case unitPhase:
		return d.execPhase(u)
	case unitDraw:
		return d.execDraw(u)
	case unitMove:
		return d.moveCard(u.card, zone.Placement{Player: u.player, Location: u.loc}, u.slot, ocg.PositionNone)
	case unitDamage:
		if err := d.damage(u.player, u.amount); err != nil {
			return err
		}
		d.queue.pushFront(unit{kind: unitCheckState})
		return nil
	case unitRecover:
		return d.recover(u.player, u.amount)
	case unitNormalSummon:
		return d.execNormalSummon(u)
	case unitSetCard:
		return d.execSetCard(u)
	case unitPositionChange:
		return d.execPositionChange(u)
	case unitActivate:
		return d.execActivate(u)
	case unitRespondWindow:
		return d.execRespondWindow(u)
	case unitResolveChain:
		return d.execResolveChain(u)
	case unitCheckState:
		return d.execCheckState(u)
	case unitIdle:
		return d.execIdle(u)
	case unitHandLimit:
		return d.execHandLimit(u)
	default:
		return fatal(fmt.Errorf("unknown unit kind %v", u.kind))
	}
}

// scriptFailure maps a bridge error to the engine's error split:
// recursion-depth exhaustion is an internal invariant violation that
// poisons the duel, everything else rejects the action as a domain
// error.
func scriptFailure(err error, reason, callback string) error {
	if errors.Is(err, script.ErrDepthExceeded) {
		return fatal(err)
	}
	return illegal(reason, "%s script failed: %v", callback, err)
}

// suspend parks the unit behind a fresh decision token and emits the
// matching request message. The processor stays inert until Resume is
// called with that token.
func (d *Duel) suspend(u unit, dec Decision, request func(token string) msg.Message) {
	dec.Token = uuid.NewString()
	d.pending = &pendingDecision{token: dec.Token, u: u, dec: dec}
	d.emit(request(dec.Token))
}

func (d *Duel) execStartup(u unit) error {
	p0 := d.arena.PlayerBySeat(0)
	d.emit(msg.Start{
		StartLP: p0.LP,
		DeckCount: [2]int{
			d.zones.Count(zone.Placement{Player: 0, Location: ocg.LocationDeck}),
			d.zones.Count(zone.Placement{Player: 1, Location: ocg.LocationDeck}),
		},
	})
	for seat := uint8(0); seat < 2; seat++ {
		d.shuffleDeck(seat)
	}
	for seat := uint8(0); seat < 2; seat++ {
		if err := d.draw(seat, startingHandSize); err != nil {
			if _, ok := AsIllegal(err); ok {
				d.win(opponent(seat), "deckout")
				return nil
			}
			return err
		}
	}
	d.queue.pushBack(unit{kind: unitTurnStart})
	return nil
}

func (d *Duel) execTurnStart(u unit) error {
	d.turn++
	if d.turn > 1 {
		d.turnPlayer = opponent(d.turnPlayer)
	}
	if p := d.arena.PlayerBySeat(d.turnPlayer); p != nil {
		p.NormalSummoned = false
	}
	d.emit(msg.NewTurn{Turn: d.turn, Player: d.turnPlayer})
	d.queue.pushFront(unit{kind: unitPhase, phase: PhaseDraw})
	return nil
}

func (d *Duel) execPhase(u unit) error {
	d.phase = u.phase
	d.emit(msg.NewPhase{Phase: u.phase.String()})
	switch u.phase {
	case PhaseDraw:
		d.queue.pushFront(
			unit{kind: unitDraw, player: d.turnPlayer, count: 1},
			unit{kind: unitCheckState},
			unit{kind: unitPhase, phase: PhaseStandby},
		)
	case PhaseStandby:
		d.queue.pushFront(
			unit{kind: unitCheckState},
			unit{kind: unitPhase, phase: PhaseMain1},
		)
	case PhaseMain1, PhaseMain2:
		d.queue.pushFront(unit{kind: unitIdle, player: d.turnPlayer})
	case PhaseBattleStart:
		d.queue.pushFront(unit{kind: unitPhase, phase: PhaseBattleStep})
	case PhaseBattleStep:
		d.queue.pushFront(unit{kind: unitPhase, phase: PhaseBattleDamage})
	case PhaseBattleDamage:
		d.queue.pushFront(unit{kind: unitPhase, phase: PhaseBattleEnd})
	case PhaseBattleEnd:
		d.queue.pushFront(unit{kind: unitPhase, phase: PhaseMain2})
	case PhaseEnd:
		d.queue.pushFront(
			unit{kind: unitHandLimit, player: d.turnPlayer},
			unit{kind: unitCheckState},
			unit{kind: unitTurnStart},
		)
	default:
		return fatal(fmt.Errorf("phase unit for unknown phase %v", u.phase))
	}
	return nil
}

func (d *Duel) execDraw(u unit) error {
	if err := d.draw(u.player, u.count); err != nil {
		if ia, ok := AsIllegal(err); ok && ia.Code == ReasonDeckOut {
			d.win(opponent(u.player), "deckout")
			return nil
		}
		return err
	}
	return nil
}

func (d *Duel) execCheckState(u unit) error {
	for seat := uint8(0); seat < 2; seat++ {
		p := d.arena.PlayerBySeat(seat)
		if p != nil && p.LP <= 0 {
			d.win(opponent(seat), "lifepoints")
			return nil
		}
	}
	return nil
}

// askIdle suspends on the turn player's main-phase choice. The
// candidate list shows the player's own hand openly.
func (d *Duel) askIdle(u unit) {
	u.step = 1
	u.response = nil
	var cands []Candidate
	for _, h := range d.zones.Query(zone.Placement{Player: u.player, Location: ocg.LocationHand}) {
		if c, err := d.arena.Card(h); err == nil {
			cands = append(cands, Candidate{Handle: h.Pack(), Ref: openRef(c)})
		}
	}
	dec := Decision{Kind: DecisionIdle, Player: u.player, Candidates: cands}
	d.suspend(u, dec, func(token string) msg.Message {
		return msg.SelectIdleCmd{Player: u.player, Token: token}
	})
}

func (d *Duel) execIdle(u unit) error {
	if u.step == 0 || u.response == nil {
		d.askIdle(u)
		return nil
	}
	resp := u.response
	switch {
	case resp.Pass:
		next := nextPhase(d.phase, d.turn == 1)
		d.queue.pushFront(unit{kind: unitPhase, phase: next})
		return nil

	case resp.Summon != nil:
		su, err := d.summonUnit(u.player, resp.Summon, false)
		if err != nil {
			d.askIdle(u)
			return err
		}
		d.queue.pushFront(su, unit{kind: unitIdle, player: u.player})
		return nil

	case resp.Set != nil:
		su, err := d.summonUnit(u.player, resp.Set, true)
		if err != nil {
			d.askIdle(u)
			return err
		}
		d.queue.pushFront(su, unit{kind: unitIdle, player: u.player})
		return nil

	case resp.Activate != nil:
		var targets []arena.Handle
		for _, t := range resp.Activate.Targets {
			targets = append(targets, arena.Unpack(t))
		}
		d.queue.pushFront(
			unit{
				kind:     unitActivate,
				player:   u.player,
				card:     arena.Unpack(resp.Activate.Card),
				effectID: resp.Activate.EffectID,
				targets:  targets,
			},
			unit{kind: unitIdle, player: u.player},
		)
		return nil

	default:
		d.askIdle(u)
		return illegal(ReasonBadResponse, "idle response selects no action")
	}
}

// summonUnit validates a summon or set request and builds its unit.
// Validation happens before the unit is queued so an illegal request
// never consumes the player's summon.
func (d *Duel) summonUnit(player uint8, req *SummonRequest, set bool) (unit, error) {
	h := arena.Unpack(req.Card)
	c, err := d.arena.Card(h)
	if err != nil {
		return unit{}, illegal(ReasonNotPresent, "unknown card handle")
	}
	if c.Controller != player {
		return unit{}, illegal(ReasonBadResponse, "card not controlled by player %d", player)
	}

	// A face-down monster on the field is flipped instead of summoned.
	if !set && c.Location == ocg.LocationMZone && c.Position&ocg.PositionFaceDown != 0 {
		return unit{kind: unitPositionChange, player: player, card: h, position: ocg.PositionFaceUpAttack}, nil
	}

	if c.Location != ocg.LocationHand {
		return unit{}, illegal(ReasonNotPresent, "card not in hand")
	}

	if c.Current.Type.Has(ocg.TypeMonster) {
		p := d.arena.PlayerBySeat(player)
		if p.NormalSummoned {
			return unit{}, illegal(ReasonAlreadySummoned, "already normal summoned this turn")
		}
		needed := tributesFor(c.Current.Level)
		if len(req.Tributes) != needed {
			return unit{}, illegal(ReasonCost, "level %d needs %d tributes, got %d", c.Current.Level, needed, len(req.Tributes))
		}
		tributes := make([]arena.Handle, 0, len(req.Tributes))
		for _, t := range req.Tributes {
			th := arena.Unpack(t)
			tc, err := d.arena.Card(th)
			if err != nil || tc.Controller != player || tc.Location != ocg.LocationMZone {
				return unit{}, illegal(ReasonCost, "tribute not on player's field")
			}
			tributes = append(tributes, th)
		}
		if err := d.checkMonsterSlot(player, req.Slot, tributes); err != nil {
			return unit{}, err
		}
		kind := unitNormalSummon
		pos := ocg.Position(req.Position)
		if set {
			kind = unitSetCard
			pos = ocg.PositionFaceDownDefense
		} else if pos != ocg.PositionNone && pos != ocg.PositionFaceUpAttack && pos != ocg.PositionFaceUpDefense {
			// PositionNone defers to a position decision.
			return unit{}, illegal(ReasonBadResponse, "position %#x is not a face-up position", req.Position)
		}
		return unit{
			kind:     kind,
			player:   player,
			card:     h,
			slot:     slotOrAny(req.Slot),
			position: pos,
			targets:  tributes,
		}, nil
	}

	// Spells and traps are set face-down in the spell and trap zone.
	if !set {
		return unit{}, illegal(ReasonBadResponse, "only monsters can be normal summoned")
	}
	if d.zones.Count(zone.Placement{Player: player, Location: ocg.LocationSZone}) >= zone.SpellTrapSlots {
		return unit{}, illegal(ReasonZoneFull, "spell and trap zone is full")
	}
	return unit{
		kind:     unitSetCard,
		player:   player,
		card:     h,
		slot:     slotOrAny(req.Slot),
		position: ocg.PositionFaceDown,
	}, nil
}

func slotOrAny(slot int) int {
	if slot < 0 || slot >= zone.MonsterSlots {
		return zone.SlotAny
	}
	return slot
}

func tributesFor(level uint32) int {
	switch {
	case level <= 4:
		return 0
	case level <= 6:
		return 1
	default:
		return 2
	}
}

// checkMonsterSlot verifies the summon has somewhere to land once the
// tributes leave the field. Tributes are a cost and are never
// refunded, so this runs before anything is paid.
func (d *Duel) checkMonsterSlot(player uint8, slot int, tributes []arena.Handle) error {
	at := zone.Placement{Player: player, Location: ocg.LocationMZone}
	if slot >= 0 && slot < zone.MonsterSlots {
		occ, taken := d.zones.Slot(at, slot)
		if !taken {
			return nil
		}
		for _, t := range tributes {
			if occ == t {
				return nil
			}
		}
		return illegal(ReasonZoneFull, "monster slot %d occupied", slot)
	}
	if d.zones.Count(at)-len(tributes) >= zone.MonsterSlots {
		return illegal(ReasonZoneFull, "monster zone is full")
	}
	return nil
}

func (d *Duel) askPosition(u unit, code uint32) {
	u.step++
	u.response = nil
	mask := uint32(ocg.PositionFaceUpAttack | ocg.PositionFaceUpDefense)
	dec := Decision{Kind: DecisionPosition, Player: u.player}
	d.suspend(u, dec, func(token string) msg.Message {
		return msg.SelectPosition{Player: u.player, Token: token, Code: code, Positions: mask}
	})
}

func (d *Duel) execNormalSummon(u unit) error {
	c, err := d.arena.Card(u.card)
	if err != nil {
		return fatal(err)
	}
	if u.step > 0 {
		if u.response == nil {
			d.askPosition(u, c.Code)
			return illegal(ReasonBadResponse, "position response missing")
		}
		pos := ocg.Position(u.response.Position)
		if pos != ocg.PositionFaceUpAttack && pos != ocg.PositionFaceUpDefense {
			d.askPosition(u, c.Code)
			return illegal(ReasonBadResponse, "position %#x is not a face-up position", u.response.Position)
		}
		u.position = pos
	}
	if u.position == ocg.PositionNone {
		d.askPosition(u, c.Code)
		return nil
	}

	for _, t := range u.targets {
		if err := d.moveCard(t, zone.Placement{Player: u.player, Location: ocg.LocationGrave}, zone.SlotAny, ocg.PositionNone); err != nil {
			return err
		}
	}
	d.emit(msg.Summoning{Card: openRef(c)})
	if err := d.moveCard(u.card, zone.Placement{Player: u.player, Location: ocg.LocationMZone}, u.slot, u.position); err != nil {
		return err
	}
	d.arena.PlayerBySeat(u.player).NormalSummoned = true
	d.emit(msg.Summoned{})
	d.queue.pushFront(unit{kind: unitCheckState})
	return nil
}

func (d *Duel) execSetCard(u unit) error {
	c, err := d.arena.Card(u.card)
	if err != nil {
		return fatal(err)
	}
	if c.Current.Type.Has(ocg.TypeMonster) {
		for _, t := range u.targets {
			if err := d.moveCard(t, zone.Placement{Player: u.player, Location: ocg.LocationGrave}, zone.SlotAny, ocg.PositionNone); err != nil {
				return err
			}
		}
		if err := d.moveCard(u.card, zone.Placement{Player: u.player, Location: ocg.LocationMZone}, u.slot, ocg.PositionFaceDownDefense); err != nil {
			return err
		}
		d.arena.PlayerBySeat(u.player).NormalSummoned = true
		return nil
	}
	return d.moveCard(u.card, zone.Placement{Player: u.player, Location: ocg.LocationSZone}, u.slot, ocg.PositionFaceDown)
}

func (d *Duel) execPositionChange(u unit) error {
	c, err := d.arena.Card(u.card)
	if err != nil {
		return fatal(err)
	}
	if !c.Location.Positioned() {
		return illegal(ReasonNotPresent, "card in %s has no position", c.Location)
	}
	old := c.Position
	c.Position = u.position
	d.emit(msg.PosChange{Card: cardRef(c), OldPosition: uint32(old)})
	return nil
}

// execActivate builds one chain link: condition, cost, target, push,
// then the opponent's response window. A failed condition or cost
// rejects the activation with no state change; once the link is
// pushed, the cost stays paid whatever happens to the link.
func (d *Duel) execActivate(u unit) error {
	c, err := d.arena.Card(u.card)
	if err != nil {
		return illegal(ReasonNotPresent, "unknown card handle")
	}
	if c.Controller != u.player {
		return illegal(ReasonBadResponse, "card not controlled by player %d", u.player)
	}
	code := c.Code
	env := script.Env{
		Card:     u.card.Pack(),
		Player:   u.player,
		EffectID: u.effectID,
	}

	hasCond, err := d.bridge.Has(code, script.CallbackCondition)
	if err != nil {
		return illegal(ReasonNoEffect, "card %d has no script", code)
	}
	if hasCond {
		met, err := d.bridge.Invoke(code, script.CallbackCondition, env)
		if err != nil {
			return scriptFailure(err, ReasonCondition, "condition")
		}
		if !met {
			return illegal(ReasonCondition, "activation condition not met")
		}
	}

	if ok, _ := d.bridge.Has(code, script.CallbackCost); ok {
		paid, err := d.bridge.Invoke(code, script.CallbackCost, env)
		if err != nil {
			return scriptFailure(err, ReasonCost, "cost")
		}
		if !paid {
			return illegal(ReasonCost, "activation cost not paid")
		}
	}

	// Host-chosen targets seed the set; the Target callback may
	// replace them through set_targets.
	d.pendingTargets = append(d.pendingTargets[:0], u.targets...)
	if ok, _ := d.bridge.Has(code, script.CallbackTarget); ok {
		packed := make([]int64, len(u.targets))
		for i, t := range u.targets {
			packed[i] = t.Pack()
		}
		env.Targets = packed
		legal, err := d.bridge.Invoke(code, script.CallbackTarget, env)
		if err != nil {
			return scriptFailure(err, ReasonNoEffect, "target")
		}
		if !legal {
			return illegal(ReasonNoEffect, "no legal targets")
		}
	}

	// Every recorded target must pass the card's filter predicate.
	if ok, _ := d.bridge.Has(code, script.CallbackFilter); ok {
		for _, th := range d.pendingTargets {
			match, err := d.bridge.InvokeFilter(code, string(script.CallbackFilter), th.Pack())
			if err != nil {
				return scriptFailure(err, ReasonNoEffect, "filter")
			}
			if !match {
				return illegal(ReasonNoEffect, "target rejected by filter")
			}
		}
	}

	targets := make([]arena.Handle, len(d.pendingTargets))
	copy(targets, d.pendingTargets)
	d.pendingTargets = d.pendingTargets[:0]

	idx := d.chains.Push(chain.Link{
		Card:          u.card,
		EffectID:      u.effectID,
		TriggerPlayer: u.player,
		Targets:       targets,
		CostPaid:      true,
	})
	d.emit(msg.Chaining{Link: idx, Card: cardRef(c), EffectID: u.effectID})

	// A spell or trap activated from the hand lands face-up in the
	// spell and trap zone; a set card just turns face-up in place.
	if c.Location == ocg.LocationHand && !c.Current.Type.Has(ocg.TypeMonster) {
		if err := d.moveCard(u.card, zone.Placement{Player: u.player, Location: ocg.LocationSZone}, zone.SlotAny, ocg.PositionFaceUpAttack); err != nil {
			if isFatal(err) {
				return err
			}
			d.logger.Debug("activation stays in hand", zap.String("reason", err.Error()))
		}
	} else if c.Location.Positioned() && c.Position&ocg.PositionFaceDown != 0 {
		old := c.Position
		c.Position = ocg.PositionFaceUpAttack
		d.emit(msg.PosChange{Card: cardRef(c), OldPosition: uint32(old)})
	}
	d.emit(msg.Chained{Link: idx})

	d.queue.pushFront(unit{kind: unitRespondWindow, player: opponent(u.player)})
	d.flushScheduled()
	return nil
}

func (d *Duel) askChain(u unit) {
	u.step = 1
	u.response = nil
	dec := Decision{Kind: DecisionChain, Player: u.player}
	d.suspend(u, dec, func(token string) msg.Message {
		return msg.SelectChain{Player: u.player, Token: token}
	})
}

// execRespondWindow offers one player the chance to chain. Passing
// alternates to the other player; two consecutive passes start
// resolution.
func (d *Duel) execRespondWindow(u unit) error {
	if u.step == 0 || u.response == nil {
		d.askChain(u)
		return nil
	}
	resp := u.response
	switch {
	case resp.Pass:
		if u.asked+1 >= 2 {
			d.queue.pushFront(unit{kind: unitResolveChain})
			return nil
		}
		d.queue.pushFront(unit{kind: unitRespondWindow, player: opponent(u.player), asked: u.asked + 1})
		return nil

	case resp.Activate != nil:
		var targets []arena.Handle
		for _, t := range resp.Activate.Targets {
			targets = append(targets, arena.Unpack(t))
		}
		au := unit{
			kind:     unitActivate,
			player:   u.player,
			card:     arena.Unpack(resp.Activate.Card),
			effectID: resp.Activate.EffectID,
			targets:  targets,
		}
		if err := d.execActivate(au); err != nil {
			if isFatal(err) {
				return err
			}
			// The activation was rejected; the window stays open.
			d.askChain(u)
			return err
		}
		return nil

	default:
		d.askChain(u)
		return illegal(ReasonBadResponse, "chain response must pass or activate")
	}
}

// execResolveChain pops and resolves the top link. Negated links are
// popped in order with their Operation skipped; consequences a link
// schedules run before the next link resolves.
func (d *Duel) execResolveChain(u unit) error {
	link, err := d.chains.Pop()
	if err != nil {
		d.emit(msg.ChainEnd{})
		d.queue.pushFront(unit{kind: unitCheckState})
		return nil
	}
	d.emit(msg.ChainSolving{Link: link.Index})

	d.queue.pushFront(unit{kind: unitResolveChain})
	if !link.Negated {
		if c, err := d.arena.Card(link.Card); err == nil {
			packed := make([]int64, len(link.Targets))
			for i, t := range link.Targets {
				packed[i] = t.Pack()
			}
			env := script.Env{
				Card:     link.Card.Pack(),
				Player:   link.TriggerPlayer,
				EffectID: link.EffectID,
				Link:     link.Index,
				Targets:  packed,
			}
			if _, err := d.bridge.Invoke(c.Code, script.CallbackOperation, env); err != nil {
				// Recursion-depth exhaustion is an engine invariant
				// violation, not a script bug to shrug off.
				if errors.Is(err, script.ErrDepthExceeded) {
					return fatal(err)
				}
				// A broken Operation fizzles; the chain keeps resolving.
				d.logger.Warn("operation failed",
					zap.Uint32("code", c.Code),
					zap.Int("link", link.Index),
					zap.Error(err),
				)
			}
		}
	}
	d.emit(msg.ChainSolved{Link: link.Index})
	d.flushScheduled()
	return nil
}

func (d *Duel) askHandLimit(u unit, excess int) {
	u.step = 1
	u.response = nil
	var cands []Candidate
	for _, h := range d.zones.Query(zone.Placement{Player: u.player, Location: ocg.LocationHand}) {
		if c, err := d.arena.Card(h); err == nil {
			cands = append(cands, Candidate{Handle: h.Pack(), Ref: openRef(c)})
		}
	}
	refs := make([]msg.CardRef, len(cands))
	for i, c := range cands {
		refs[i] = c.Ref
	}
	dec := Decision{
		Kind:       DecisionSelectCard,
		Player:     u.player,
		Min:        excess,
		Max:        excess,
		Text:       "discard to hand limit",
		Candidates: cands,
	}
	d.suspend(u, dec, func(token string) msg.Message {
		return msg.SelectCard{Player: u.player, Token: token, Min: excess, Max: excess, Cards: refs}
	})
}

// execHandLimit enforces the end-phase hand size by discarding the
// player's choice of excess cards.
func (d *Duel) execHandLimit(u unit) error {
	hand := d.zones.Query(zone.Placement{Player: u.player, Location: ocg.LocationHand})
	excess := len(hand) - maxHandSize
	if excess <= 0 {
		return nil
	}
	if u.step == 0 || u.response == nil {
		d.askHandLimit(u, excess)
		return nil
	}

	resp := u.response
	if len(resp.Indices) != excess {
		d.askHandLimit(u, excess)
		return illegal(ReasonBadResponse, "must discard exactly %d cards", excess)
	}
	seen := make(map[int]bool, len(resp.Indices))
	for _, i := range resp.Indices {
		if i < 0 || i >= len(hand) || seen[i] {
			d.askHandLimit(u, excess)
			return illegal(ReasonBadResponse, "bad discard index %d", i)
		}
		seen[i] = true
	}
	for _, i := range resp.Indices {
		if err := d.moveCard(hand[i], zone.Placement{Player: u.player, Location: ocg.LocationGrave}, zone.SlotAny, ocg.PositionNone); err != nil {
			return err
		}
	}
	return nil
}
