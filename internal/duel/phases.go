package duel

import "fmt"

// Phase is one step of the fixed turn structure.
type Phase int

const (
	PhaseDraw Phase = iota
	PhaseStandby
	PhaseMain1
	PhaseBattleStart
	PhaseBattleStep
	PhaseBattleDamage
	PhaseBattleEnd
	PhaseMain2
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseDraw:         "DRAW",
	PhaseStandby:      "STANDBY",
	PhaseMain1:        "MAIN1",
	PhaseBattleStart:  "BATTLE_START",
	PhaseBattleStep:   "BATTLE_STEP",
	PhaseBattleDamage: "BATTLE_DAMAGE",
	PhaseBattleEnd:    "BATTLE_END",
	PhaseMain2:        "MAIN2",
	PhaseEnd:          "END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the fixed phase order of a turn. Battle sub-phases
// are skipped as a block when the turn has no battle phase.
var turnSequence = []Phase{
	PhaseDraw,
	PhaseStandby,
	PhaseMain1,
	PhaseBattleStart,
	PhaseBattleStep,
	PhaseBattleDamage,
	PhaseBattleEnd,
	PhaseMain2,
	PhaseEnd,
}

// nextPhase returns the phase after p, skipping the battle block when
// skipBattle is set. Main2 is likewise skipped on battle-less turns,
// matching the reference flow where Main1 runs straight into End.
func nextPhase(p Phase, skipBattle bool) Phase {
	idx := 0
	for i, q := range turnSequence {
		if q == p {
			idx = i
			break
		}
	}
	for idx+1 < len(turnSequence) {
		idx++
		n := turnSequence[idx]
		if skipBattle && n >= PhaseBattleStart && n <= PhaseMain2 {
			continue
		}
		return n
	}
	return PhaseEnd
}
