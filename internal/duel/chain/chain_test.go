package chain

import (
	"testing"

	"github.com/osirisengine/osiris-server-go/internal/duel/arena"
)

func TestStack_LIFOResolution(t *testing.T) {
	a := arena.New()
	s := New()

	var cards []arena.Handle
	for i := 0; i < 3; i++ {
		h, _ := a.NewCard(uint32(100+i), 0)
		cards = append(cards, h)
	}

	for i, h := range cards {
		idx := s.Push(Link{Card: h, TriggerPlayer: uint8(i % 2)})
		if idx != i+1 {
			t.Errorf("Expected link index %d, got %d", i+1, idx)
		}
	}
	if s.Depth() != 3 {
		t.Fatalf("Expected depth 3, got %d", s.Depth())
	}

	// Links pushed A, B, C resolve C, B, A.
	for want := 3; want >= 1; want-- {
		link, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		if link.Index != want {
			t.Errorf("Expected link %d, got %d", want, link.Index)
		}
		if link.Card != cards[want-1] {
			t.Errorf("Expected card %v, got %v", cards[want-1], link.Card)
		}
	}
	if !s.IsEmpty() {
		t.Error("Expected empty stack")
	}
}

func TestStack_IndicesNeverRenumbered(t *testing.T) {
	a := arena.New()
	s := New()
	h1, _ := a.NewCard(1, 0)
	h2, _ := a.NewCard(2, 1)

	s.Push(Link{Card: h1})
	s.Push(Link{Card: h2})

	top, err := s.Pop()
	if err != nil || top.Index != 2 {
		t.Fatalf("Expected to pop link 2, got %v (%v)", top.Index, err)
	}

	// The surviving link keeps index 1 even though it is now the top.
	peek, ok := s.Peek()
	if !ok || peek.Index != 1 {
		t.Errorf("Expected remaining link to keep index 1, got %d", peek.Index)
	}

	// A push while link 1 is still unresolved gets a fresh index; the
	// popped link's index is never reused within the same chain.
	idx := s.Push(Link{Card: h2})
	if idx != 3 {
		t.Errorf("Expected new link index 3, got %d", idx)
	}

	// Once the chain fully empties, numbering restarts at 1.
	s.Pop()
	s.Pop()
	if idx := s.Push(Link{Card: h1}); idx != 1 {
		t.Errorf("Expected fresh chain to start at index 1, got %d", idx)
	}
}

func TestStack_MidResolutionPushKeepsHistoryDistinct(t *testing.T) {
	a := arena.New()
	s := New()
	h1, _ := a.NewCard(1, 0)
	h2, _ := a.NewCard(2, 1)
	h3, _ := a.NewCard(3, 0)

	s.Push(Link{Card: h1})
	s.Push(Link{Card: h2})

	// Link 2 resolves and its effect starts a new activation.
	if _, err := s.Pop(); err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	idx := s.Push(Link{Card: h3})
	if idx == 2 {
		t.Fatal("New link reused the resolved link's index")
	}

	// Negating the new link must not flag the resolved link 2's
	// historical record.
	if err := s.Negate(idx); err != nil {
		t.Fatalf("Negate failed: %v", err)
	}
	for _, l := range s.History() {
		if l.Index == 2 && l.Negated {
			t.Error("Resolved link 2 falsely marked negated in history")
		}
		if l.Index == idx && !l.Negated {
			t.Error("New link not marked negated in history")
		}
	}
}

func TestStack_PopEmpty(t *testing.T) {
	s := New()
	if _, err := s.Pop(); err != ErrEmpty {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestStack_NegateFlagsOnly(t *testing.T) {
	a := arena.New()
	s := New()
	h1, _ := a.NewCard(1, 0)
	h2, _ := a.NewCard(2, 1)
	s.Push(Link{Card: h1})
	s.Push(Link{Card: h2})

	if err := s.Negate(1); err != nil {
		t.Fatalf("Negate failed: %v", err)
	}

	// Negation does not remove or reorder anything.
	if s.Depth() != 2 {
		t.Fatalf("Expected depth 2 after negate, got %d", s.Depth())
	}
	link, ok := s.Link(1)
	if !ok || !link.Negated {
		t.Error("Expected link 1 flagged negated")
	}
	link, ok = s.Link(2)
	if !ok || link.Negated {
		t.Error("Expected link 2 untouched")
	}

	if err := s.Negate(9); err == nil {
		t.Error("Expected error negating unknown link")
	}
}

func TestStack_HistorySurvivesUntilChainEmpties(t *testing.T) {
	a := arena.New()
	s := New()
	h1, _ := a.NewCard(1, 0)
	h2, _ := a.NewCard(2, 1)
	s.Push(Link{Card: h1})
	s.Push(Link{Card: h2})
	if err := s.Negate(2); err != nil {
		t.Fatalf("Negate failed: %v", err)
	}

	if _, err := s.Pop(); err != nil {
		t.Fatalf("Pop failed: %v", err)
	}

	// The popped, negated link is still in the historical record.
	hist := s.History()
	if len(hist) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(hist))
	}
	if !hist[1].Negated {
		t.Error("Expected history to record negation")
	}

	// Emptying the chain clears the record.
	if _, err := s.Pop(); err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if len(s.History()) != 0 {
		t.Error("Expected history cleared when chain emptied")
	}
}
