package script

import (
	lua "github.com/Shopify/go-lua"
)

// Host is the API surface the engine exposes to card scripts. Handles
// are packed integers; locations, positions and counter kinds are the
// raw protocol flag values. Every mutating method is routed through
// the duel so zone and chain invariants cannot be bypassed.
type Host interface {
	// Queries.
	FieldCards(player uint8, location uint32) []int64
	CardCode(card int64) (uint32, error)
	CardPlace(card int64) (player uint8, location uint32, sequence int, position uint32, err error)
	CardAttack(card int64) (int32, error)
	CardDefense(card int64) (int32, error)
	CounterCount(card int64, kind uint16) (int, error)
	LP(player uint8) int32
	TurnPlayer() uint8
	CurrentPhase() string
	ChainDepth() int

	// Mutations.
	ScriptMove(card int64, player uint8, location uint32, slot int) error
	ScriptSetPosition(card int64, position uint32) error
	ScriptDamage(player uint8, amount int32) error
	ScriptRecover(player uint8, amount int32) error
	ScriptPayLP(player uint8, amount int32) error
	ScriptDraw(player uint8, count int) error
	ScriptAddCounter(card int64, kind uint16, count int) error
	ScriptRemoveCounter(card int64, kind uint16, count int) (int, error)
	ScriptEquip(card, target int64) error
	ScriptRegisterEffect(card int64, effectID uint32) error
	ScriptNegateLink(link int) error
	ScriptSetTargets(cards []int64) error

	// Scheduling and randomness.
	ScriptSchedule(req Request) error
	Random(min, max int) int
}

// Request asks the processor to run a follow-up unit produced by a
// script callback. Op selects the unit; unused fields are ignored.
type Request struct {
	Op       string // "draw", "damage", "recover", "move", "activate", "check"
	Player   uint8
	Card     int64
	Count    int
	Amount   int32
	Location uint32
	Slot     int
	EffectID uint32
}

// registerHost publishes the host API as the global Duel table. The
// function set mirrors the Host interface one to one; scripts never
// see engine internals, only these entry points.
func registerHost(l *lua.State, host Host) {
	fns := []lua.RegistryFunction{
		{Name: "get_field", Function: func(l *lua.State) int {
			player := uint8(lua.CheckInteger(l, 1))
			loc := uint32(lua.CheckInteger(l, 2))
			cards := host.FieldCards(player, loc)
			l.CreateTable(len(cards), 0)
			for i, c := range cards {
				l.PushInteger(int(c))
				l.RawSetInt(-2, i+1)
			}
			return 1
		}},
		{Name: "get_code", Function: func(l *lua.State) int {
			code, err := host.CardCode(int64(lua.CheckInteger(l, 1)))
			if err != nil {
				lua.Errorf(l, "get_code: %s", err.Error())
			}
			l.PushInteger(int(code))
			return 1
		}},
		{Name: "get_place", Function: func(l *lua.State) int {
			player, loc, seq, pos, err := host.CardPlace(int64(lua.CheckInteger(l, 1)))
			if err != nil {
				lua.Errorf(l, "get_place: %s", err.Error())
			}
			l.PushInteger(int(player))
			l.PushInteger(int(loc))
			l.PushInteger(seq)
			l.PushInteger(int(pos))
			return 4
		}},
		{Name: "get_attack", Function: func(l *lua.State) int {
			atk, err := host.CardAttack(int64(lua.CheckInteger(l, 1)))
			if err != nil {
				lua.Errorf(l, "get_attack: %s", err.Error())
			}
			l.PushInteger(int(atk))
			return 1
		}},
		{Name: "get_defense", Function: func(l *lua.State) int {
			def, err := host.CardDefense(int64(lua.CheckInteger(l, 1)))
			if err != nil {
				lua.Errorf(l, "get_defense: %s", err.Error())
			}
			l.PushInteger(int(def))
			return 1
		}},
		{Name: "get_counter", Function: func(l *lua.State) int {
			n, err := host.CounterCount(int64(lua.CheckInteger(l, 1)), uint16(lua.CheckInteger(l, 2)))
			if err != nil {
				lua.Errorf(l, "get_counter: %s", err.Error())
			}
			l.PushInteger(n)
			return 1
		}},
		{Name: "get_lp", Function: func(l *lua.State) int {
			l.PushInteger(int(host.LP(uint8(lua.CheckInteger(l, 1)))))
			return 1
		}},
		{Name: "turn_player", Function: func(l *lua.State) int {
			l.PushInteger(int(host.TurnPlayer()))
			return 1
		}},
		{Name: "phase", Function: func(l *lua.State) int {
			l.PushString(host.CurrentPhase())
			return 1
		}},
		{Name: "chain_depth", Function: func(l *lua.State) int {
			l.PushInteger(host.ChainDepth())
			return 1
		}},
		{Name: "move", Function: func(l *lua.State) int {
			card := int64(lua.CheckInteger(l, 1))
			player := uint8(lua.CheckInteger(l, 2))
			loc := uint32(lua.CheckInteger(l, 3))
			slot := lua.OptInteger(l, 4, -1)
			if err := host.ScriptMove(card, player, loc, slot); err != nil {
				lua.Errorf(l, "move: %s", err.Error())
			}
			return 0
		}},
		{Name: "set_position", Function: func(l *lua.State) int {
			if err := host.ScriptSetPosition(int64(lua.CheckInteger(l, 1)), uint32(lua.CheckInteger(l, 2))); err != nil {
				lua.Errorf(l, "set_position: %s", err.Error())
			}
			return 0
		}},
		{Name: "damage", Function: func(l *lua.State) int {
			if err := host.ScriptDamage(uint8(lua.CheckInteger(l, 1)), int32(lua.CheckInteger(l, 2))); err != nil {
				lua.Errorf(l, "damage: %s", err.Error())
			}
			return 0
		}},
		{Name: "recover", Function: func(l *lua.State) int {
			if err := host.ScriptRecover(uint8(lua.CheckInteger(l, 1)), int32(lua.CheckInteger(l, 2))); err != nil {
				lua.Errorf(l, "recover: %s", err.Error())
			}
			return 0
		}},
		{Name: "pay_lp", Function: func(l *lua.State) int {
			if err := host.ScriptPayLP(uint8(lua.CheckInteger(l, 1)), int32(lua.CheckInteger(l, 2))); err != nil {
				lua.Errorf(l, "pay_lp: %s", err.Error())
			}
			return 0
		}},
		{Name: "draw", Function: func(l *lua.State) int {
			if err := host.ScriptDraw(uint8(lua.CheckInteger(l, 1)), lua.CheckInteger(l, 2)); err != nil {
				lua.Errorf(l, "draw: %s", err.Error())
			}
			return 0
		}},
		{Name: "add_counter", Function: func(l *lua.State) int {
			if err := host.ScriptAddCounter(int64(lua.CheckInteger(l, 1)), uint16(lua.CheckInteger(l, 2)), lua.CheckInteger(l, 3)); err != nil {
				lua.Errorf(l, "add_counter: %s", err.Error())
			}
			return 0
		}},
		{Name: "remove_counter", Function: func(l *lua.State) int {
			removed, err := host.ScriptRemoveCounter(int64(lua.CheckInteger(l, 1)), uint16(lua.CheckInteger(l, 2)), lua.CheckInteger(l, 3))
			if err != nil {
				lua.Errorf(l, "remove_counter: %s", err.Error())
			}
			l.PushInteger(removed)
			return 1
		}},
		{Name: "equip", Function: func(l *lua.State) int {
			if err := host.ScriptEquip(int64(lua.CheckInteger(l, 1)), int64(lua.CheckInteger(l, 2))); err != nil {
				lua.Errorf(l, "equip: %s", err.Error())
			}
			return 0
		}},
		{Name: "register_effect", Function: func(l *lua.State) int {
			if err := host.ScriptRegisterEffect(int64(lua.CheckInteger(l, 1)), uint32(lua.CheckInteger(l, 2))); err != nil {
				lua.Errorf(l, "register_effect: %s", err.Error())
			}
			return 0
		}},
		{Name: "negate_link", Function: func(l *lua.State) int {
			if err := host.ScriptNegateLink(lua.CheckInteger(l, 1)); err != nil {
				lua.Errorf(l, "negate_link: %s", err.Error())
			}
			return 0
		}},
		{Name: "set_targets", Function: func(l *lua.State) int {
			lua.CheckType(l, 1, lua.TypeTable)
			var cards []int64
			n := l.RawLength(1)
			for i := 1; i <= n; i++ {
				l.RawGetInt(1, i)
				v, _ := l.ToInteger(-1)
				cards = append(cards, int64(v))
				l.Pop(1)
			}
			if err := host.ScriptSetTargets(cards); err != nil {
				lua.Errorf(l, "set_targets: %s", err.Error())
			}
			return 0
		}},
		{Name: "schedule", Function: func(l *lua.State) int {
			lua.CheckType(l, 1, lua.TypeTable)
			req := Request{Slot: -1}
			l.Field(1, "op")
			req.Op, _ = l.ToString(-1)
			l.Pop(1)
			req.Player = uint8(tableInt(l, 1, "player"))
			req.Card = int64(tableInt(l, 1, "card"))
			req.Count = tableInt(l, 1, "count")
			req.Amount = int32(tableInt(l, 1, "amount"))
			req.Location = uint32(tableInt(l, 1, "location"))
			if slot, ok := tableIntOK(l, 1, "slot"); ok {
				req.Slot = slot
			}
			req.EffectID = uint32(tableInt(l, 1, "effect"))
			if err := host.ScriptSchedule(req); err != nil {
				lua.Errorf(l, "schedule: %s", err.Error())
			}
			return 0
		}},
		{Name: "random", Function: func(l *lua.State) int {
			min := lua.CheckInteger(l, 1)
			max := lua.CheckInteger(l, 2)
			l.PushInteger(host.Random(min, max))
			return 1
		}},
	}

	l.NewTable()
	lua.SetFunctions(l, fns, 0)
	l.SetGlobal("Duel")
}

func tableInt(l *lua.State, index int, name string) int {
	v, _ := tableIntOK(l, index, name)
	return v
}

func tableIntOK(l *lua.State, index int, name string) (int, bool) {
	l.Field(index, name)
	defer l.Pop(1)
	if l.IsNil(-1) {
		return 0, false
	}
	v, ok := l.ToInteger(-1)
	return v, ok
}
