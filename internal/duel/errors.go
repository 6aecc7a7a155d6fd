package duel

import (
	"errors"
	"fmt"
)

// Reason codes attached to IllegalAction results.
const (
	ReasonNotYourTurn   = "not_your_turn"
	ReasonBadToken      = "bad_token"
	ReasonBadResponse   = "bad_response"
	ReasonZoneFull      = "zone_full"
	ReasonNotPresent    = "not_present"
	ReasonNoEffect      = "no_effect"
	ReasonCondition     = "condition_not_met"
	ReasonCost          = "cost_unpayable"
	ReasonAlreadySummoned = "already_summoned"
	ReasonDeckOut       = "deck_out"
	ReasonDuelOver      = "duel_over"
	ReasonPoisoned      = "poisoned"
)

// IllegalAction is a domain error: the requested action has no legal
// right to happen. The offending unit or activation is discarded with
// no state change and the duel continues.
type IllegalAction struct {
	Code   string
	Detail string
}

func (e *IllegalAction) Error() string {
	if e.Detail == "" {
		return "illegal action: " + e.Code
	}
	return fmt.Sprintf("illegal action: %s (%s)", e.Code, e.Detail)
}

func illegal(code, format string, args ...any) *IllegalAction {
	return &IllegalAction{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// AsIllegal unwraps an IllegalAction from err, if present.
func AsIllegal(err error) (*IllegalAction, bool) {
	var ia *IllegalAction
	if errors.As(err, &ia) {
		return ia, true
	}
	return nil, false
}

// ErrDeckOut is the domain error for drawing from an empty deck. It
// ends the duel by deck-out, it never panics the engine.
var ErrDeckOut = &IllegalAction{Code: ReasonDeckOut, Detail: "deck is empty"}

// ErrPoisoned is returned for any command sent to a duel instance
// after an internal invariant violation. The instance refuses all
// further work.
var ErrPoisoned = errors.New("duel: instance poisoned by internal error")

// internalError marks fatal invariant violations (stale handles, zone
// desync, script recursion overflow). These indicate engine bugs and
// poison the instance.
type internalError struct {
	cause error
}

func (e *internalError) Error() string { return "duel: internal error: " + e.cause.Error() }
func (e *internalError) Unwrap() error { return e.cause }

func fatal(cause error) error {
	return &internalError{cause: cause}
}

// isFatal reports whether err is an engine invariant violation rather
// than a domain or script error.
func isFatal(err error) bool {
	var ie *internalError
	return errors.As(err, &ie)
}
