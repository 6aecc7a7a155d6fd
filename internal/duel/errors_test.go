package duel

import (
	"fmt"
	"testing"

	"github.com/osirisengine/osiris-server-go/internal/duel/script"
)

func TestScriptFailureClassification(t *testing.T) {
	depthErr := fmt.Errorf("%w (card 1, callback condition)", script.ErrDepthExceeded)
	if err := scriptFailure(depthErr, ReasonCondition, "condition"); !isFatal(err) {
		t.Errorf("Expected depth exhaustion to be fatal, got %v", err)
	}

	scriptErr := fmt.Errorf("%w: card 1 condition: boom", script.ErrScript)
	err := scriptFailure(scriptErr, ReasonCondition, "condition")
	if isFatal(err) {
		t.Errorf("Expected a plain script failure to stay a domain error, got %v", err)
	}
	ia, ok := AsIllegal(err)
	if !ok || ia.Code != ReasonCondition {
		t.Errorf("Expected IllegalAction %s, got %v", ReasonCondition, err)
	}
}
