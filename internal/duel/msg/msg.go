// Package msg defines the ordered state-change messages the duel core
// emits for clients and replays. The numeric kind identifiers are
// protocol constants; every historically defined kind is listed so
// consumers can name anything found in captured traces, but the core
// only ever emits the kinds that have a payload type in this package.
package msg

// Kind is the numeric message identifier.
type Kind uint8

const (
	KindRetry              Kind = 1
	KindHint               Kind = 2
	KindWaiting            Kind = 3
	KindStart              Kind = 4
	KindWin                Kind = 5
	KindUpdateData         Kind = 6
	KindUpdateCard         Kind = 7
	KindRequestDeck        Kind = 8
	KindSelectBattleCmd    Kind = 10
	KindSelectIdleCmd      Kind = 11
	KindSelectEffectYN     Kind = 12
	KindSelectYesNo        Kind = 13
	KindSelectOption       Kind = 14
	KindSelectCard         Kind = 15
	KindSelectChain        Kind = 16
	KindSelectPlace        Kind = 18
	KindSelectPosition     Kind = 19
	KindSelectTribute      Kind = 20
	KindSortChain          Kind = 21
	KindSelectCounter      Kind = 22
	KindSelectSum          Kind = 23
	KindSelectDisField     Kind = 24
	KindSortCard           Kind = 25
	KindSelectUnselectCard Kind = 26
	KindConfirmDeckTop     Kind = 30
	KindConfirmCards       Kind = 31
	KindShuffleDeck        Kind = 32
	KindShuffleHand        Kind = 33
	KindRefreshDeck        Kind = 34
	KindSwapGraveDeck      Kind = 35
	KindShuffleSetCard     Kind = 36
	KindReverseDeck        Kind = 37
	KindDeckTop            Kind = 38
	KindNewTurn            Kind = 40
	KindNewPhase           Kind = 41
	KindConfirmExtraTop    Kind = 42
	KindMove               Kind = 50
	KindPosChange          Kind = 53
	KindSet                Kind = 54
	KindSwap               Kind = 55
	KindFieldDisabled      Kind = 56
	KindSummoning          Kind = 60
	KindSummoned           Kind = 61
	KindSPSummoning        Kind = 62
	KindSPSummoned         Kind = 63
	KindFlipSummoning      Kind = 64
	KindFlipSummoned       Kind = 65
	KindChaining           Kind = 70
	KindChained            Kind = 71
	KindChainSolving       Kind = 72
	KindChainSolved        Kind = 73
	KindChainEnd           Kind = 74
	KindChainNegated       Kind = 75
	KindChainDisabled      Kind = 76
	KindCardSelected       Kind = 80
	KindRandomSelected     Kind = 81
	KindBecomeTarget       Kind = 83
	KindDraw               Kind = 90
	KindDamage             Kind = 91
	KindRecover            Kind = 92
	KindEquip              Kind = 93
	KindLpUpdate           Kind = 94
	KindUnequip            Kind = 95
	KindCardTarget         Kind = 96
	KindCancelTarget       Kind = 97
	KindPayLpCost          Kind = 100
	KindAddCounter         Kind = 101
	KindRemoveCounter      Kind = 102
	KindAttack             Kind = 110
	KindBattle             Kind = 111
	KindAttackDisabled     Kind = 112
	KindDamageStepStart    Kind = 113
	KindDamageStepEnd      Kind = 114
	KindMissedEffect       Kind = 120
	KindBeChainTarget      Kind = 121
	KindCreateRelation     Kind = 122
	KindReleaseRelation    Kind = 123
	KindTossCoin           Kind = 130
	KindTossDice           Kind = 131
	KindRockPaperScissors  Kind = 132
	KindHandRes            Kind = 133
	KindAnnounceRace       Kind = 140
	KindAnnounceAttrib     Kind = 141
	KindAnnounceCard       Kind = 142
	KindAnnounceNumber     Kind = 143
	KindCardHint           Kind = 160
	KindTagSwap            Kind = 161
	KindReloadField        Kind = 162
	KindAiName             Kind = 163
	KindShowHint           Kind = 164
	KindPlayerHint         Kind = 165
	KindMatchKill          Kind = 170
	KindCustomMsg          Kind = 180
)

var kindNames = map[Kind]string{
	KindRetry: "RETRY", KindHint: "HINT", KindWaiting: "WAITING",
	KindStart: "START", KindWin: "WIN", KindUpdateData: "UPDATE_DATA",
	KindUpdateCard: "UPDATE_CARD", KindRequestDeck: "REQUEST_DECK",
	KindSelectBattleCmd: "SELECT_BATTLECMD", KindSelectIdleCmd: "SELECT_IDLECMD",
	KindSelectEffectYN: "SELECT_EFFECTYN", KindSelectYesNo: "SELECT_YESNO",
	KindSelectOption: "SELECT_OPTION", KindSelectCard: "SELECT_CARD",
	KindSelectChain: "SELECT_CHAIN", KindSelectPlace: "SELECT_PLACE",
	KindSelectPosition: "SELECT_POSITION", KindSelectTribute: "SELECT_TRIBUTE",
	KindSortChain: "SORT_CHAIN", KindSelectCounter: "SELECT_COUNTER",
	KindSelectSum: "SELECT_SUM", KindSelectDisField: "SELECT_DISFIELD",
	KindSortCard: "SORT_CARD", KindSelectUnselectCard: "SELECT_UNSELECT_CARD",
	KindConfirmDeckTop: "CONFIRM_DECKTOP", KindConfirmCards: "CONFIRM_CARDS",
	KindShuffleDeck: "SHUFFLE_DECK", KindShuffleHand: "SHUFFLE_HAND",
	KindRefreshDeck: "REFRESH_DECK", KindSwapGraveDeck: "SWAP_GRAVE_DECK",
	KindShuffleSetCard: "SHUFFLE_SET_CARD", KindReverseDeck: "REVERSE_DECK",
	KindDeckTop: "DECK_TOP", KindNewTurn: "NEW_TURN", KindNewPhase: "NEW_PHASE",
	KindConfirmExtraTop: "CONFIRM_EXTRATOP", KindMove: "MOVE",
	KindPosChange: "POS_CHANGE", KindSet: "SET", KindSwap: "SWAP",
	KindFieldDisabled: "FIELD_DISABLED", KindSummoning: "SUMMONING",
	KindSummoned: "SUMMONED", KindSPSummoning: "SPSUMMONING",
	KindSPSummoned: "SPSUMMONED", KindFlipSummoning: "FLIPSUMMONING",
	KindFlipSummoned: "FLIPSUMMONED", KindChaining: "CHAINING",
	KindChained: "CHAINED", KindChainSolving: "CHAIN_SOLVING",
	KindChainSolved: "CHAIN_SOLVED", KindChainEnd: "CHAIN_END",
	KindChainNegated: "CHAIN_NEGATED", KindChainDisabled: "CHAIN_DISABLED",
	KindCardSelected: "CARD_SELECTED", KindRandomSelected: "RANDOM_SELECTED",
	KindBecomeTarget: "BECOME_TARGET", KindDraw: "DRAW", KindDamage: "DAMAGE",
	KindRecover: "RECOVER", KindEquip: "EQUIP", KindLpUpdate: "LPUPDATE",
	KindUnequip: "UNEQUIP", KindCardTarget: "CARD_TARGET",
	KindCancelTarget: "CANCEL_TARGET", KindPayLpCost: "PAY_LPCOST",
	KindAddCounter: "ADD_COUNTER", KindRemoveCounter: "REMOVE_COUNTER",
	KindAttack: "ATTACK", KindBattle: "BATTLE",
	KindAttackDisabled: "ATTACK_DISABLED", KindDamageStepStart: "DAMAGE_STEP_START",
	KindDamageStepEnd: "DAMAGE_STEP_END", KindMissedEffect: "MISSED_EFFECT",
	KindBeChainTarget: "BE_CHAIN_TARGET", KindCreateRelation: "CREATE_RELATION",
	KindReleaseRelation: "RELEASE_RELATION", KindTossCoin: "TOSS_COIN",
	KindTossDice: "TOSS_DICE", KindRockPaperScissors: "ROCK_PAPER_SCISSORS",
	KindHandRes: "HAND_RES", KindAnnounceRace: "ANNOUNCE_RACE",
	KindAnnounceAttrib: "ANNOUNCE_ATTRIB", KindAnnounceCard: "ANNOUNCE_CARD",
	KindAnnounceNumber: "ANNOUNCE_NUMBER", KindCardHint: "CARD_HINT",
	KindTagSwap: "TAG_SWAP", KindReloadField: "RELOAD_FIELD",
	KindAiName: "AI_NAME", KindShowHint: "SHOW_HINT",
	KindPlayerHint: "PLAYER_HINT", KindMatchKill: "MATCH_KILL",
	KindCustomMsg: "CUSTOM_MSG",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "MSG_UNKNOWN"
}

// Known reports whether the numeric identifier is a defined message
// kind. Consumers use this to tolerate traces produced by older cores.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// Message is one ordered state-change notification. The payload types
// below are the only ones the core emits.
type Message interface {
	MessageKind() Kind
}

// CardRef locates a card for consumers that only see messages.
type CardRef struct {
	Code     uint32 `json:"code"`
	Player   uint8  `json:"player"`
	Location uint32 `json:"location"`
	Sequence int    `json:"sequence"`
	Position uint32 `json:"position"`
}

// Start announces duel setup.
type Start struct {
	StartLP   int32 `json:"start_lp"`
	DeckCount [2]int `json:"deck_count"`
}

func (Start) MessageKind() Kind { return KindStart }

// Win announces the duel result.
type Win struct {
	Winner uint8  `json:"winner"`
	Reason string `json:"reason"`
}

func (Win) MessageKind() Kind { return KindWin }

// NewTurn announces a turn change.
type NewTurn struct {
	Turn   int   `json:"turn"`
	Player uint8 `json:"player"`
}

func (NewTurn) MessageKind() Kind { return KindNewTurn }

// NewPhase announces a phase change.
type NewPhase struct {
	Phase string `json:"phase"`
}

func (NewPhase) MessageKind() Kind { return KindNewPhase }

// Draw reports cards drawn by a player, top of deck first.
type Draw struct {
	Player uint8    `json:"player"`
	Codes  []uint32 `json:"codes"`
}

func (Draw) MessageKind() Kind { return KindDraw }

// ShuffleDeck reports a deck shuffle.
type ShuffleDeck struct {
	Player uint8 `json:"player"`
}

func (ShuffleDeck) MessageKind() Kind { return KindShuffleDeck }

// Move reports a zone transition.
type Move struct {
	Card CardRef `json:"card"`
	From CardRef `json:"from"`
}

func (Move) MessageKind() Kind { return KindMove }

// PosChange reports a battle position change in place.
type PosChange struct {
	Card        CardRef `json:"card"`
	OldPosition uint32  `json:"old_position"`
}

func (PosChange) MessageKind() Kind { return KindPosChange }

// Summoning/Summoned bracket a normal summon.
type Summoning struct {
	Card CardRef `json:"card"`
}

func (Summoning) MessageKind() Kind { return KindSummoning }

// Summoned closes a summon negation window.
type Summoned struct{}

func (Summoned) MessageKind() Kind { return KindSummoned }

// SPSummoning brackets a special summon.
type SPSummoning struct {
	Card CardRef `json:"card"`
}

func (SPSummoning) MessageKind() Kind { return KindSPSummoning }

// SPSummoned closes a special summon window.
type SPSummoned struct{}

func (SPSummoned) MessageKind() Kind { return KindSPSummoned }

// Chaining announces a link being added to the chain.
type Chaining struct {
	Link int     `json:"link"`
	Card CardRef `json:"card"`
	EffectID uint32 `json:"effect_id"`
}

func (Chaining) MessageKind() Kind { return KindChaining }

// Chained confirms the link was added (costs paid, targets locked).
type Chained struct {
	Link int `json:"link"`
}

func (Chained) MessageKind() Kind { return KindChained }

// ChainSolving announces a link starting to resolve.
type ChainSolving struct {
	Link int `json:"link"`
}

func (ChainSolving) MessageKind() Kind { return KindChainSolving }

// ChainSolved announces a link finishing resolution.
type ChainSolved struct {
	Link int `json:"link"`
}

func (ChainSolved) MessageKind() Kind { return KindChainSolved }

// ChainNegated announces a link being negated.
type ChainNegated struct {
	Link int `json:"link"`
}

func (ChainNegated) MessageKind() Kind { return KindChainNegated }

// ChainEnd announces the chain emptying.
type ChainEnd struct{}

func (ChainEnd) MessageKind() Kind { return KindChainEnd }

// Damage reports life points lost.
type Damage struct {
	Player uint8 `json:"player"`
	Amount int32 `json:"amount"`
}

func (Damage) MessageKind() Kind { return KindDamage }

// Recover reports life points gained.
type Recover struct {
	Player uint8 `json:"player"`
	Amount int32 `json:"amount"`
}

func (Recover) MessageKind() Kind { return KindRecover }

// LpUpdate reports the resulting life total.
type LpUpdate struct {
	Player uint8 `json:"player"`
	LP     int32 `json:"lp"`
}

func (LpUpdate) MessageKind() Kind { return KindLpUpdate }

// PayLpCost reports life paid as an activation cost.
type PayLpCost struct {
	Player uint8 `json:"player"`
	Amount int32 `json:"amount"`
}

func (PayLpCost) MessageKind() Kind { return KindPayLpCost }

// AddCounter reports counters placed on a card.
type AddCounter struct {
	Card    CardRef `json:"card"`
	Counter uint16  `json:"counter"`
	Count   int     `json:"count"`
}

func (AddCounter) MessageKind() Kind { return KindAddCounter }

// RemoveCounter reports counters removed from a card.
type RemoveCounter struct {
	Card    CardRef `json:"card"`
	Counter uint16  `json:"counter"`
	Count   int     `json:"count"`
}

func (RemoveCounter) MessageKind() Kind { return KindRemoveCounter }

// Equip reports an equip relation being recorded.
type Equip struct {
	Card   CardRef `json:"card"`
	Target CardRef `json:"target"`
}

func (Equip) MessageKind() Kind { return KindEquip }

// Unequip reports an equip relation being severed.
type Unequip struct {
	Card CardRef `json:"card"`
}

func (Unequip) MessageKind() Kind { return KindUnequip }

// BecomeTarget reports cards chosen as effect targets.
type BecomeTarget struct {
	Cards []CardRef `json:"cards"`
}

func (BecomeTarget) MessageKind() Kind { return KindBecomeTarget }

// Hint carries an informational prompt for one player.
type Hint struct {
	Player uint8  `json:"player"`
	Text   string `json:"text"`
}

func (Hint) MessageKind() Kind { return KindHint }

// SelectIdleCmd asks the turn player for a main-phase action.
type SelectIdleCmd struct {
	Player uint8  `json:"player"`
	Token  string `json:"token"`
}

func (SelectIdleCmd) MessageKind() Kind { return KindSelectIdleCmd }

// SelectChain asks a player whether to chain an effect.
type SelectChain struct {
	Player uint8  `json:"player"`
	Token  string `json:"token"`
}

func (SelectChain) MessageKind() Kind { return KindSelectChain }

// SelectCard asks a player to choose cards.
type SelectCard struct {
	Player uint8     `json:"player"`
	Token  string    `json:"token"`
	Min    int       `json:"min"`
	Max    int       `json:"max"`
	Cards  []CardRef `json:"cards"`
}

func (SelectCard) MessageKind() Kind { return KindSelectCard }

// SelectPosition asks a player to choose a battle position.
type SelectPosition struct {
	Player    uint8  `json:"player"`
	Token     string `json:"token"`
	Code      uint32 `json:"code"`
	Positions uint32 `json:"positions"`
}

func (SelectPosition) MessageKind() Kind { return KindSelectPosition }

// SelectYesNo asks a player a yes/no question.
type SelectYesNo struct {
	Player uint8  `json:"player"`
	Token  string `json:"token"`
	Text   string `json:"text"`
}

func (SelectYesNo) MessageKind() Kind { return KindSelectYesNo }
