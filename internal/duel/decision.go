package duel

import (
	"github.com/osirisengine/osiris-server-go/internal/duel/msg"
)

// DecisionKind labels what the suspended processor is waiting for.
type DecisionKind string

const (
	// DecisionIdle asks the turn player for a main-phase action.
	DecisionIdle DecisionKind = "idle"
	// DecisionChain asks a player whether to chain an effect.
	DecisionChain DecisionKind = "chain"
	// DecisionSelectCard asks a player to pick cards from candidates.
	DecisionSelectCard DecisionKind = "select_card"
	// DecisionPosition asks a player to pick a battle position.
	DecisionPosition DecisionKind = "position"
	// DecisionYesNo asks a player a yes/no question.
	DecisionYesNo DecisionKind = "yes_no"
)

// Candidate pairs a packed card handle with its message-level
// description, so hosts can both display and answer with it.
type Candidate struct {
	Handle int64       `json:"handle"`
	Ref    msg.CardRef `json:"ref"`
}

// Decision is the continuation handed to the host when the processor
// suspends. The duel is fully inert until Resume is called with the
// decision's token.
type Decision struct {
	Token      string       `json:"token"`
	Kind       DecisionKind `json:"kind"`
	Player     uint8        `json:"player"`
	Min        int          `json:"min,omitempty"`
	Max        int          `json:"max,omitempty"`
	Text       string       `json:"text,omitempty"`
	Candidates []Candidate  `json:"candidates,omitempty"`
}

// ActivateRequest asks to activate an effect of a card.
type ActivateRequest struct {
	Card     int64   `json:"card"`
	EffectID uint32  `json:"effect_id"`
	Targets  []int64 `json:"targets,omitempty"`
}

// SummonRequest asks to normal summon or set a card.
type SummonRequest struct {
	Card     int64   `json:"card"`
	Slot     int     `json:"slot"`
	Position uint32  `json:"position,omitempty"`
	Tributes []int64 `json:"tributes,omitempty"`
}

// Response is the host-supplied answer bound to a pending decision.
// Exactly one of the action fields should be set; Pass declines a
// chain window or ends the current main phase.
type Response struct {
	Pass     bool             `json:"pass,omitempty"`
	Activate *ActivateRequest `json:"activate,omitempty"`
	Summon   *SummonRequest   `json:"summon,omitempty"`
	Set      *SummonRequest   `json:"set,omitempty"`
	Indices  []int            `json:"indices,omitempty"`
	Position uint32           `json:"position,omitempty"`
	Yes      bool             `json:"yes,omitempty"`
}

// Status reports why the processor returned control.
type Status int

const (
	// StatusAwaiting means a decision is pending; resume with its token.
	StatusAwaiting Status = iota
	// StatusOver means the duel has ended.
	StatusOver
)

// Result is what Start and Resume hand back to the host.
type Result struct {
	Status   Status
	Decision *Decision
}

type pendingDecision struct {
	token string
	u     unit
	dec   Decision
}
