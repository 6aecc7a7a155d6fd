package duel_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osirisengine/osiris-server-go/internal/duel"
	"github.com/osirisengine/osiris-server-go/internal/duel/msg"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
	"github.com/osirisengine/osiris-server-go/internal/duel/script"
)

const (
	codeVanilla    = 1001 // level 4 normal monster
	codeTribute    = 1002 // level 5 monster, one tribute
	codeDrawSpell  = 2001 // draw 2 on resolution
	codeNegate     = 2002 // negates chain link 1
	codeDeadSpell  = 3001 // condition always false
	codeBurnSpell  = 4001 // 600 damage to the opponent
	codePickSpell  = 5001 // targets itself, filter accepts
	codeNoPick     = 5002 // targets itself, filter rejects everything
)

type stubProvider map[uint32]duel.CardDefinition

func (p stubProvider) Resolve(code uint32) (duel.CardDefinition, error) {
	def, ok := p[code]
	if !ok {
		return duel.CardDefinition{}, fmt.Errorf("unknown card %d", code)
	}
	return def, nil
}

func testProvider() stubProvider {
	return stubProvider{
		codeVanilla: {
			Code: codeVanilla, Type: ocg.TypeMonster | ocg.TypeNormal,
			Level: 4, Attribute: ocg.AttributeEarth, Race: ocg.RaceWarrior,
			Attack: 1800, Defense: 1200,
		},
		codeTribute: {
			Code: codeTribute, Type: ocg.TypeMonster | ocg.TypeNormal,
			Level: 5, Attribute: ocg.AttributeDark, Race: ocg.RaceFiend,
			Attack: 2300, Defense: 1500,
		},
		codeDrawSpell: {Code: codeDrawSpell, Type: ocg.TypeSpell},
		codeNegate:    {Code: codeNegate, Type: ocg.TypeSpell},
		codeDeadSpell: {Code: codeDeadSpell, Type: ocg.TypeSpell},
		codeBurnSpell: {Code: codeBurnSpell, Type: ocg.TypeSpell},
		codePickSpell: {Code: codePickSpell, Type: ocg.TypeSpell},
		codeNoPick:    {Code: codeNoPick, Type: ocg.TypeSpell},
	}
}

func testScripts() script.MapSource {
	return script.MapSource{
		codeDrawSpell: `
c2001 = {}
function c2001.operate(e)
	Duel.draw(e.player, 2)
end
`,
		codeNegate: `
c2002 = {}
function c2002.condition(e)
	return Duel.chain_depth() > 0
end
function c2002.operate(e)
	Duel.negate_link(1)
end
`,
		codeDeadSpell: `
c3001 = {}
function c3001.condition(e)
	return false
end
`,
		codeBurnSpell: `
c4001 = {}
function c4001.operate(e)
	Duel.damage(1 - e.player, 600)
end
`,
		codePickSpell: `
c5001 = {}
function c5001.target(e)
	Duel.set_targets({e.card})
	return true
end
function c5001.filter(card)
	return card > 0
end
function c5001.operate(e)
	Duel.damage(1 - e.player, 300)
end
`,
		codeNoPick: `
c5002 = {}
function c5002.target(e)
	Duel.set_targets({e.card})
	return true
end
function c5002.filter(card)
	return false
end
`,
	}
}

func uniformDeck(code uint32, n int) []uint32 {
	deck := make([]uint32, n)
	for i := range deck {
		deck[i] = code
	}
	return deck
}

func newTestDuel(t *testing.T, seed uint32, startLP int32, deck0, deck1 []uint32) *duel.Duel {
	t.Helper()
	d, err := duel.New(duel.Config{
		Seed:     seed,
		StartLP:  startLP,
		Decks:    [2][]uint32{deck0, deck1},
		Provider: testProvider(),
		Scripts:  testScripts(),
	})
	require.NoError(t, err)
	return d
}

func kinds(messages []msg.Message) []msg.Kind {
	out := make([]msg.Kind, len(messages))
	for i, m := range messages {
		out[i] = m.MessageKind()
	}
	return out
}

func mustAwait(t *testing.T, res duel.Result, kind duel.DecisionKind, player uint8) *duel.Decision {
	t.Helper()
	require.Equal(t, duel.StatusAwaiting, res.Status)
	require.NotNil(t, res.Decision)
	require.Equal(t, kind, res.Decision.Kind)
	require.Equal(t, player, res.Decision.Player)
	return res.Decision
}

func TestDuel_StartupSequence(t *testing.T) {
	d := newTestDuel(t, 1, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))

	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	assert.NotEmpty(t, dec.Token)
	assert.Len(t, dec.Candidates, 6) // 5 opening cards plus the turn draw

	got := kinds(d.Messages())
	want := []msg.Kind{
		msg.KindStart,
		msg.KindShuffleDeck, msg.KindShuffleDeck,
		msg.KindDraw, msg.KindDraw,
		msg.KindNewTurn,
		msg.KindNewPhase, // DRAW
		msg.KindDraw,
		msg.KindNewPhase, // STANDBY
		msg.KindNewPhase, // MAIN1
		msg.KindSelectIdleCmd,
	}
	require.Equal(t, want, got)

	turn, player := d.Turn()
	assert.Equal(t, 1, turn)
	assert.Equal(t, uint8(0), player)
	assert.Equal(t, duel.PhaseMain1, d.Phase())
}

func TestDuel_ResumeBadTokenKeepsDecision(t *testing.T) {
	d := newTestDuel(t, 1, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	res2, err := d.Resume("bogus-token", duel.Response{Pass: true})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonBadToken, ia.Code)

	// The original decision is still pending under the same token.
	dec2 := mustAwait(t, res2, duel.DecisionIdle, 0)
	assert.Equal(t, dec.Token, dec2.Token)

	// The correct token still works.
	res3, err := d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	require.Equal(t, duel.StatusAwaiting, res3.Status)
}

func TestDuel_PassAdvancesTurns(t *testing.T) {
	d := newTestDuel(t, 7, 8000, uniformDeck(codeVanilla, 20), uniformDeck(codeVanilla, 20))
	res, err := d.Start()
	require.NoError(t, err)

	// Turn 1 has no battle phase: one pass ends the turn.
	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)

	dec = mustAwait(t, res, duel.DecisionIdle, 1)
	turn, player := d.Turn()
	assert.Equal(t, 2, turn)
	assert.Equal(t, uint8(1), player)
	assert.Equal(t, duel.PhaseMain1, d.Phase())

	// From turn 2 on the battle block runs, so Main 2 asks again.
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	dec = mustAwait(t, res, duel.DecisionIdle, 1)
	assert.Equal(t, duel.PhaseMain2, d.Phase())

	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	mustAwait(t, res, duel.DecisionIdle, 0)
	turn, player = d.Turn()
	assert.Equal(t, 3, turn)
	assert.Equal(t, uint8(0), player)
}

func TestDuel_NormalSummon(t *testing.T) {
	d := newTestDuel(t, 3, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	card := dec.Candidates[0].Handle

	res, err = d.Resume(dec.Token, duel.Response{
		Summon: &duel.SummonRequest{Card: card, Position: uint32(ocg.PositionFaceUpAttack)},
	})
	require.NoError(t, err)
	dec = mustAwait(t, res, duel.DecisionIdle, 0)

	mz := d.Zone(0, ocg.LocationMZone)
	require.Len(t, mz, 1)
	assert.Equal(t, uint32(codeVanilla), mz[0].Code)
	assert.Equal(t, uint32(ocg.PositionFaceUpAttack), mz[0].Position)
	assert.Len(t, d.Zone(0, ocg.LocationHand), 5)

	got := kinds(d.Messages())
	assert.Contains(t, got, msg.KindSummoning)
	assert.Contains(t, got, msg.KindSummoned)

	// One normal summon per turn.
	card2 := dec.Candidates[0].Handle
	_, err = d.Resume(dec.Token, duel.Response{
		Summon: &duel.SummonRequest{Card: card2, Position: uint32(ocg.PositionFaceUpAttack)},
	})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonAlreadySummoned, ia.Code)
}

func TestDuel_SummonRejectsGarbagePosition(t *testing.T) {
	d := newTestDuel(t, 3, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	card := dec.Candidates[0].Handle

	for _, pos := range []uint32{0xFF, uint32(ocg.PositionFaceDownDefense), uint32(ocg.PositionFaceDownAttack)} {
		res, err = d.Resume(dec.Token, duel.Response{
			Summon: &duel.SummonRequest{Card: card, Position: pos},
		})
		var ia *duel.IllegalAction
		require.ErrorAs(t, err, &ia, "position %#x", pos)
		assert.Equal(t, duel.ReasonBadResponse, ia.Code)

		// Nothing moved; the summon was not consumed.
		assert.Empty(t, d.Zone(0, ocg.LocationMZone))
		assert.Len(t, d.Zone(0, ocg.LocationHand), 6)
		dec = mustAwait(t, res, duel.DecisionIdle, 0)
		card = dec.Candidates[0].Handle
	}

	// A legal position still works afterwards.
	res, err = d.Resume(dec.Token, duel.Response{
		Summon: &duel.SummonRequest{Card: card, Position: uint32(ocg.PositionFaceUpAttack)},
	})
	require.NoError(t, err)
	require.Len(t, d.Zone(0, ocg.LocationMZone), 1)
}

func TestDuel_SummonAsksPositionWhenUnspecified(t *testing.T) {
	d := newTestDuel(t, 3, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	card := dec.Candidates[0].Handle

	res, err = d.Resume(dec.Token, duel.Response{Summon: &duel.SummonRequest{Card: card}})
	require.NoError(t, err)
	posDec := mustAwait(t, res, duel.DecisionPosition, 0)

	// An invalid position is rejected and re-asked.
	res, err = d.Resume(posDec.Token, duel.Response{Position: uint32(ocg.PositionFaceDownDefense)})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonBadResponse, ia.Code)
	posDec = mustAwait(t, res, duel.DecisionPosition, 0)

	res, err = d.Resume(posDec.Token, duel.Response{Position: uint32(ocg.PositionFaceUpDefense)})
	require.NoError(t, err)
	mustAwait(t, res, duel.DecisionIdle, 0)

	mz := d.Zone(0, ocg.LocationMZone)
	require.Len(t, mz, 1)
	assert.Equal(t, uint32(ocg.PositionFaceUpDefense), mz[0].Position)
}

func TestDuel_SetMonsterFaceDown(t *testing.T) {
	d := newTestDuel(t, 3, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	card := dec.Candidates[0].Handle

	res, err = d.Resume(dec.Token, duel.Response{Set: &duel.SummonRequest{Card: card}})
	require.NoError(t, err)
	mustAwait(t, res, duel.DecisionIdle, 0)

	mz := d.Zone(0, ocg.LocationMZone)
	require.Len(t, mz, 1)
	assert.Equal(t, uint32(ocg.PositionFaceDownDefense), mz[0].Position)
	// Face-down cards are masked in the public view.
	assert.Equal(t, uint32(0), mz[0].Code)
}

func TestDuel_ChainResolvesInReverseOrder(t *testing.T) {
	d := newTestDuel(t, 5, 8000, uniformDeck(codeDrawSpell, 20), uniformDeck(codeNegate, 20))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	// Player 0 activates the draw spell, building link 1.
	res, err = d.Resume(dec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
	})
	require.NoError(t, err)
	chainDec := mustAwait(t, res, duel.DecisionChain, 1)

	// Player 1 chains the negation, building link 2.
	negCard, ok := d.HandCardHandle(1, 0)
	require.True(t, ok)
	res, err = d.Resume(chainDec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: negCard},
	})
	require.NoError(t, err)

	// Both players pass; the chain resolves top down.
	chainDec = mustAwait(t, res, duel.DecisionChain, 0)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	chainDec = mustAwait(t, res, duel.DecisionChain, 1)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	mustAwait(t, res, duel.DecisionIdle, 0)

	var solved []int
	negated := false
	for _, m := range d.Messages() {
		switch v := m.(type) {
		case msg.ChainSolved:
			solved = append(solved, v.Link)
		case msg.ChainNegated:
			negated = true
			assert.Equal(t, 1, v.Link)
		}
	}
	require.Equal(t, []int{2, 1}, solved)
	assert.True(t, negated)

	// Link 1 was negated: player 0 activated one spell (hand 6 -> 5)
	// and drew nothing from its effect.
	assert.Len(t, d.Zone(0, ocg.LocationHand), 5)
	assert.Len(t, d.Zone(0, ocg.LocationSZone), 1)
}

func TestDuel_ConditionFailureRejectsActivation(t *testing.T) {
	d := newTestDuel(t, 5, 8000, uniformDeck(codeDeadSpell, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	res, err = d.Resume(dec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
	})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonCondition, ia.Code)

	// The duel moved back to an idle decision and no link was built.
	mustAwait(t, res, duel.DecisionIdle, 0)
	assert.NotContains(t, kinds(d.Messages()), msg.KindChaining)
	assert.Len(t, d.Zone(0, ocg.LocationHand), 6)
}

func TestDuel_BurnDamageEndsDuel(t *testing.T) {
	d := newTestDuel(t, 5, 500, uniformDeck(codeBurnSpell, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	res, err = d.Resume(dec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
	})
	require.NoError(t, err)
	chainDec := mustAwait(t, res, duel.DecisionChain, 1)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	chainDec = mustAwait(t, res, duel.DecisionChain, 0)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)

	// 600 burn against 500 life ends the duel at the state check.
	require.Equal(t, duel.StatusOver, res.Status)
	over, winner := d.Over()
	require.True(t, over)
	assert.Equal(t, uint8(0), winner)
	assert.Equal(t, int32(-100), d.LifePoints(1))

	got := kinds(d.Messages())
	assert.Contains(t, got, msg.KindDamage)
	assert.Contains(t, got, msg.KindWin)

	// A finished duel refuses further commands.
	_, err = d.Resume("anything", duel.Response{Pass: true})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonDuelOver, ia.Code)
}

func TestDuel_DeckOutLosesOnDraw(t *testing.T) {
	// Player 0 has exactly 6 cards: 5 for the opening hand, 1 for the
	// first turn draw. The turn 3 draw finds an empty deck.
	d := newTestDuel(t, 9, 8000, uniformDeck(codeVanilla, 6), uniformDeck(codeVanilla, 20))
	res, err := d.Start()
	require.NoError(t, err)

	dec := mustAwait(t, res, duel.DecisionIdle, 0)
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)

	// Turn 2: player 1 passes Main 1 and Main 2.
	dec = mustAwait(t, res, duel.DecisionIdle, 1)
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	dec = mustAwait(t, res, duel.DecisionIdle, 1)
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)

	// Turn 3: the draw fails and player 1 wins. No panic, a result.
	require.Equal(t, duel.StatusOver, res.Status)
	over, winner := d.Over()
	require.True(t, over)
	assert.Equal(t, uint8(1), winner)
	require.False(t, errors.Is(err, duel.ErrPoisoned))
	assert.NoError(t, d.Poisoned())
}

func TestDuel_HandLimitDiscard(t *testing.T) {
	d := newTestDuel(t, 11, 8000, uniformDeck(codeDrawSpell, 20), uniformDeck(codeVanilla, 20))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	// Resolve one draw spell: hand goes 6 -> 5 -> 7.
	res, err = d.Resume(dec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
	})
	require.NoError(t, err)
	chainDec := mustAwait(t, res, duel.DecisionChain, 1)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	chainDec = mustAwait(t, res, duel.DecisionChain, 0)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	dec = mustAwait(t, res, duel.DecisionIdle, 0)
	require.Len(t, d.Zone(0, ocg.LocationHand), 7)

	// Ending the turn forces a discard down to six.
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	discard := mustAwait(t, res, duel.DecisionSelectCard, 0)
	assert.Equal(t, 1, discard.Min)
	assert.Equal(t, 1, discard.Max)
	require.Len(t, discard.Candidates, 7)

	res, err = d.Resume(discard.Token, duel.Response{Indices: []int{2}})
	require.NoError(t, err)
	mustAwait(t, res, duel.DecisionIdle, 1)

	assert.Len(t, d.Zone(0, ocg.LocationHand), 6)
	assert.Len(t, d.Zone(0, ocg.LocationGrave), 1)
}

func TestDuel_TargetFilterGatesActivation(t *testing.T) {
	// A filter that rejects every candidate blocks the activation.
	d := newTestDuel(t, 5, 8000, uniformDeck(codeNoPick, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	res, err = d.Resume(dec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
	})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonNoEffect, ia.Code)
	mustAwait(t, res, duel.DecisionIdle, 0)
	assert.NotContains(t, kinds(d.Messages()), msg.KindChaining)

	// An accepting filter lets the same shape of activation through.
	d = newTestDuel(t, 5, 8000, uniformDeck(codePickSpell, 10), uniformDeck(codeVanilla, 10))
	res, err = d.Start()
	require.NoError(t, err)
	dec = mustAwait(t, res, duel.DecisionIdle, 0)

	res, err = d.Resume(dec.Token, duel.Response{
		Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
	})
	require.NoError(t, err)
	chainDec := mustAwait(t, res, duel.DecisionChain, 1)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	chainDec = mustAwait(t, res, duel.DecisionChain, 0)
	res, err = d.Resume(chainDec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	mustAwait(t, res, duel.DecisionIdle, 0)

	got := kinds(d.Messages())
	assert.Contains(t, got, msg.KindBecomeTarget)
	assert.Contains(t, got, msg.KindChaining)
	assert.Equal(t, int32(7700), d.LifePoints(1))
}

func TestDuel_CloseReleasesState(t *testing.T) {
	d := newTestDuel(t, 1, 8000, uniformDeck(codeVanilla, 10), uniformDeck(codeVanilla, 10))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	d.Close()

	_, err = d.Resume(dec.Token, duel.Response{Pass: true})
	var ia *duel.IllegalAction
	require.ErrorAs(t, err, &ia)
	assert.Equal(t, duel.ReasonDuelOver, ia.Code)
	assert.Empty(t, d.Zone(0, ocg.LocationHand))
	assert.Empty(t, d.Zone(0, ocg.LocationDeck))
}

func TestDuel_HandSequencesTrackRemovals(t *testing.T) {
	d := newTestDuel(t, 13, 8000, uniformDeck(codeDrawSpell, 20), uniformDeck(codeVanilla, 20))
	res, err := d.Start()
	require.NoError(t, err)
	dec := mustAwait(t, res, duel.DecisionIdle, 0)

	resolveSpell := func(dec *duel.Decision) *duel.Decision {
		res, err := d.Resume(dec.Token, duel.Response{
			Activate: &duel.ActivateRequest{Card: dec.Candidates[0].Handle},
		})
		require.NoError(t, err)
		cd := mustAwait(t, res, duel.DecisionChain, 1)
		res, err = d.Resume(cd.Token, duel.Response{Pass: true})
		require.NoError(t, err)
		cd = mustAwait(t, res, duel.DecisionChain, 0)
		res, err = d.Resume(cd.Token, duel.Response{Pass: true})
		require.NoError(t, err)
		return mustAwait(t, res, duel.DecisionIdle, 0)
	}

	// Each activation removes a card from the middle of the hand; the
	// survivors' reported sequences must stay contiguous.
	dec = resolveSpell(dec)
	for i, ref := range d.Zone(0, ocg.LocationHand) {
		assert.Equal(t, i, ref.Sequence, "hand ref %d after first activation", i)
	}
	dec = resolveSpell(dec)
	require.Len(t, d.Zone(0, ocg.LocationHand), 8)
	for i, ref := range d.Zone(0, ocg.LocationHand) {
		assert.Equal(t, i, ref.Sequence, "hand ref %d after second activation", i)
	}

	// An observer applies the Move stream one message at a time and
	// removes hand cards by sequence, so each hand exit must report
	// the card's sequence at emission time.
	res, err = d.Resume(dec.Token, duel.Response{Pass: true})
	require.NoError(t, err)
	discard := mustAwait(t, res, duel.DecisionSelectCard, 0)
	require.Equal(t, 2, discard.Min)

	before := len(d.Messages())
	_, err = d.Resume(discard.Token, duel.Response{Indices: []int{0, 1}})
	require.NoError(t, err)

	var exits []int
	for _, m := range d.Messages()[before:] {
		mv, ok := m.(msg.Move)
		if !ok || mv.From.Location != uint32(ocg.LocationHand) {
			continue
		}
		exits = append(exits, mv.From.Sequence)
	}
	// Discarding index 0 shifts the old index 1 down to 0, so both
	// exits report sequence 0.
	require.Equal(t, []int{0, 0}, exits)

	for i, ref := range d.Zone(0, ocg.LocationHand) {
		assert.Equal(t, i, ref.Sequence, "hand ref %d after discard", i)
	}
}

func TestDuel_DeterministicReplay(t *testing.T) {
	run := func() []msg.Message {
		d := newTestDuel(t, 77, 8000, uniformDeck(codeVanilla, 15), uniformDeck(codeVanilla, 15))
		res, err := d.Start()
		require.NoError(t, err)
		dec := mustAwait(t, res, duel.DecisionIdle, 0)
		res, err = d.Resume(dec.Token, duel.Response{
			Summon: &duel.SummonRequest{Card: dec.Candidates[0].Handle, Position: uint32(ocg.PositionFaceUpAttack)},
		})
		require.NoError(t, err)
		dec = mustAwait(t, res, duel.DecisionIdle, 0)
		_, err = d.Resume(dec.Token, duel.Response{Pass: true})
		require.NoError(t, err)
		return d.Messages()
	}

	m1, m2 := run(), run()
	require.Equal(t, len(m1), len(m2))
	for i := range m1 {
		require.Equal(t, m1[i].MessageKind(), m2[i].MessageKind(), "message %d diverged", i)
		// Decision request messages carry fresh tokens; everything
		// else must match bit for bit, draws included.
		switch m1[i].(type) {
		case msg.SelectIdleCmd, msg.SelectPosition, msg.SelectChain, msg.SelectCard:
		default:
			assert.Equal(t, m1[i], m2[i], "message %d diverged", i)
		}
	}
}
