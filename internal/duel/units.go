package duel

import (
	"fmt"

	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
)

// unitKind tags one atomic step of game logic.
type unitKind int

const (
	unitStartup unitKind = iota
	unitTurnStart
	unitPhase
	unitDraw
	unitMove
	unitDamage
	unitRecover
	unitNormalSummon
	unitSetCard
	unitPositionChange
	unitActivate
	unitRespondWindow
	unitResolveChain
	unitCheckState
	unitIdle
	unitHandLimit
)

var unitNames = map[unitKind]string{
	unitStartup:        "startup",
	unitTurnStart:      "turn_start",
	unitPhase:          "phase",
	unitDraw:           "draw",
	unitMove:           "move",
	unitDamage:         "damage",
	unitRecover:        "recover",
	unitNormalSummon:   "normal_summon",
	unitSetCard:        "set_card",
	unitPositionChange: "position_change",
	unitActivate:       "activate",
	unitRespondWindow:  "respond_window",
	unitResolveChain:   "resolve_chain",
	unitCheckState:     "check_state",
	unitIdle:           "idle",
	unitHandLimit:      "hand_limit",
}

func (k unitKind) String() string {
	if name, ok := unitNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unit_%d", int(k))
}

// unit is one entry of the processor queue. Only the fields the kind
// needs are meaningful; step counts re-entries after a suspension.
type unit struct {
	kind unitKind
	step int

	player   uint8
	card     arena.Handle
	loc      ocg.Location
	slot     int
	position ocg.Position
	count    int
	amount   int32
	effectID uint32
	targets  []arena.Handle
	phase    Phase

	// asked tracks which players already passed in a respond window.
	asked int

	// response carries the bound decision answer after a resume.
	response *Response
}

// unitQueue is the processor's double-ended work queue. Units spawned
// by an executing unit go on the front so nested consequences fully
// resolve before the triggering unit's siblings run.
type unitQueue struct {
	units []unit
}

func (q *unitQueue) pushFront(us ...unit) {
	q.units = append(append(make([]unit, 0, len(us)+len(q.units)), us...), q.units...)
}

func (q *unitQueue) pushBack(us ...unit) {
	q.units = append(q.units, us...)
}

func (q *unitQueue) pop() (unit, bool) {
	if len(q.units) == 0 {
		return unit{}, false
	}
	u := q.units[0]
	q.units = q.units[1:]
	return u, true
}

func (q *unitQueue) empty() bool { return len(q.units) == 0 }

func (q *unitQueue) clear() { q.units = nil }
