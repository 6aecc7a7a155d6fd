package msg

import (
	"encoding/json"
	"testing"
)

func TestKind_String(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindDraw, "DRAW"},
		{KindMove, "MOVE"},
		{KindChaining, "CHAINING"},
		{KindChainSolved, "CHAIN_SOLVED"},
		{KindWin, "WIN"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind %d: expected %q, got %q", tc.kind, tc.want, got)
		}
	}
}

func TestKind_Known(t *testing.T) {
	if !KindNewTurn.Known() {
		t.Error("Expected NEW_TURN to be known")
	}
	if Kind(250).Known() {
		t.Error("Expected kind 250 to be unknown")
	}
}

func TestMessage_KindBinding(t *testing.T) {
	var m Message = Draw{Player: 1, Codes: []uint32{100}}
	if m.MessageKind() != KindDraw {
		t.Errorf("Expected KindDraw, got %v", m.MessageKind())
	}

	m = ChainSolved{Link: 2}
	if m.MessageKind() != KindChainSolved {
		t.Errorf("Expected KindChainSolved, got %v", m.MessageKind())
	}
}

func TestMove_JSONShape(t *testing.T) {
	mv := Move{
		Card: CardRef{Code: 100, Player: 0, Location: 0x4, Sequence: 2, Position: 0x1},
		From: CardRef{Code: 100, Player: 0, Location: 0x2, Sequence: 0},
	}
	data, err := json.Marshal(mv)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back Move
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Card != mv.Card || back.From != mv.From {
		t.Errorf("Round trip mismatch: %+v", back)
	}
}
