// Package script loads and invokes per-card effect scripts. Every card
// definition maps to a Lua module that exposes a fixed callback table;
// the bridge is the only path by which script logic reads or mutates
// engine state, through the host API registered in host.go.
package script

import (
	"errors"
	"fmt"

	lua "github.com/Shopify/go-lua"
	"go.uber.org/zap"
)

// MaxDepth bounds re-entrant script invocation. A script triggering a
// host call that invokes another script nests one level; exceeding the
// bound means a runaway effect loop and poisons the duel.
const MaxDepth = 64

var (
	// ErrScript wraps an error raised inside a card script. It is
	// caught at the bridge boundary; the effect fizzles and the duel
	// continues.
	ErrScript = errors.New("script: callback failed")
	// ErrDepthExceeded is fatal: the script recursion limit was hit.
	ErrDepthExceeded = errors.New("script: recursion depth exceeded")
	// ErrNoModule is returned when a card's script cannot be loaded or
	// does not define its callback table.
	ErrNoModule = errors.New("script: no module for card")
)

// Callback names the entries of a card module's callback table.
type Callback string

const (
	// CallbackInitiate runs once when the card is first materialized,
	// registering its effects with the engine.
	CallbackInitiate Callback = "initiate"
	// CallbackCondition checks whether an effect may activate.
	CallbackCondition Callback = "condition"
	// CallbackCost pays the activation cost. State mutated here is
	// never refunded.
	CallbackCost Callback = "cost"
	// CallbackTarget selects and records targets.
	CallbackTarget Callback = "target"
	// CallbackFilter is a per-candidate predicate applied to every
	// recorded target after CallbackTarget runs.
	CallbackFilter Callback = "filter"
	// CallbackOperation applies the effect at chain resolution.
	CallbackOperation Callback = "operate"
)

// Source supplies script text for a card-definition code. The engine
// treats the script store as opaque.
type Source interface {
	Load(code uint32) (string, error)
}

// Env carries the calling context of a callback invocation. Handles
// cross the boundary packed as integers.
type Env struct {
	Card     int64
	Player   uint8
	EffectID uint32
	Link     int
	Targets  []int64
}

// Bridge owns one Lua state per duel instance. It is not safe for
// concurrent use; the owning duel serializes access, and invocation is
// synchronous and re-entrant up to MaxDepth.
type Bridge struct {
	l      *lua.State
	source Source
	logger *zap.Logger

	loaded map[uint32]bool
	depth  int
}

// New creates a bridge bound to the given host. The host's API is
// registered under the global Duel table before any module loads.
func New(source Source, host Host, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := lua.NewState()
	lua.OpenLibraries(l)
	b := &Bridge{
		l:      l,
		source: source,
		logger: logger,
		loaded: make(map[uint32]bool),
	}
	registerHost(l, host)
	return b
}

// moduleName is the global table a card script must define.
func moduleName(code uint32) string {
	return fmt.Sprintf("c%d", code)
}

// ensure loads the card's module on first use and caches it by card
// code for the lifetime of the duel.
func (b *Bridge) ensure(code uint32) error {
	if b.loaded[code] {
		return nil
	}
	text, err := b.source.Load(code)
	if err != nil {
		return fmt.Errorf("%w %d: %v", ErrNoModule, code, err)
	}
	if err := lua.DoString(b.l, text); err != nil {
		return fmt.Errorf("%w %d: %v", ErrNoModule, code, err)
	}
	b.l.Global(moduleName(code))
	isTable := b.l.IsTable(-1)
	b.l.Pop(1)
	if !isTable {
		return fmt.Errorf("%w %d: script defines no %s table", ErrNoModule, code, moduleName(code))
	}
	b.loaded[code] = true
	b.logger.Debug("card script loaded", zap.Uint32("code", code))
	return nil
}

// Has reports whether the card's module defines the named callback.
func (b *Bridge) Has(code uint32, cb Callback) (bool, error) {
	if err := b.ensure(code); err != nil {
		return false, err
	}
	b.l.Global(moduleName(code))
	b.l.Field(-1, string(cb))
	defined := b.l.IsFunction(-1)
	b.l.Pop(2)
	return defined, nil
}

// Invoke calls the named callback of a card's module with the given
// environment, returning the callback's boolean result. A missing
// optional callback counts as returning true with no effect. Errors
// raised inside the script come back wrapped in ErrScript.
func (b *Bridge) Invoke(code uint32, cb Callback, env Env) (bool, error) {
	if b.depth >= MaxDepth {
		return false, fmt.Errorf("%w (card %d, %s)", ErrDepthExceeded, code, cb)
	}
	if err := b.ensure(code); err != nil {
		return false, err
	}

	b.depth++
	defer func() { b.depth-- }()

	top := b.l.Top()
	defer b.l.SetTop(top)

	b.l.Global(moduleName(code))
	b.l.Field(-1, string(cb))
	if !b.l.IsFunction(-1) {
		return true, nil
	}
	b.pushEnv(env)
	if err := b.l.ProtectedCall(1, 1, 0); err != nil {
		b.logger.Warn("card script error",
			zap.Uint32("code", code),
			zap.String("callback", string(cb)),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: card %d %s: %v", ErrScript, code, cb, err)
	}
	ok := b.l.ToBoolean(-1)
	if b.l.IsNil(-1) {
		// Callbacks that return nothing (typically operate) succeed.
		ok = true
	}
	return ok, nil
}

// InvokeFilter calls a named predicate of a card's module against a
// candidate card, for use as a zone or targeting filter.
func (b *Bridge) InvokeFilter(code uint32, name string, candidate int64) (bool, error) {
	if b.depth >= MaxDepth {
		return false, fmt.Errorf("%w (card %d, filter %s)", ErrDepthExceeded, code, name)
	}
	if err := b.ensure(code); err != nil {
		return false, err
	}

	b.depth++
	defer func() { b.depth-- }()

	top := b.l.Top()
	defer b.l.SetTop(top)

	b.l.Global(moduleName(code))
	b.l.Field(-1, name)
	if !b.l.IsFunction(-1) {
		return false, fmt.Errorf("%w: card %d has no filter %s", ErrScript, code, name)
	}
	b.l.PushInteger(int(candidate))
	if err := b.l.ProtectedCall(1, 1, 0); err != nil {
		return false, fmt.Errorf("%w: card %d filter %s: %v", ErrScript, code, name, err)
	}
	ok := b.l.ToBoolean(-1)
	return ok, nil
}

// Depth returns the current invocation depth, for diagnostics.
func (b *Bridge) Depth() int { return b.depth }

func (b *Bridge) pushEnv(env Env) {
	l := b.l
	l.CreateTable(0, 5)
	l.PushInteger(int(env.Card))
	l.SetField(-2, "card")
	l.PushInteger(int(env.Player))
	l.SetField(-2, "player")
	l.PushInteger(int(env.EffectID))
	l.SetField(-2, "effect")
	l.PushInteger(env.Link)
	l.SetField(-2, "link")
	l.CreateTable(len(env.Targets), 0)
	for i, t := range env.Targets {
		l.PushInteger(int(t))
		l.RawSetInt(-2, i+1)
	}
	l.SetField(-2, "targets")
}
