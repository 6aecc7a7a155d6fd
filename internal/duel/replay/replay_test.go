package replay

import (
	"fmt"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/osirisengine/osiris-server-go/internal/duel"
)

func sampleDecks() [2][]uint32 {
	return [2][]uint32{
		{1001, 1001, 1002},
		{2001, 2002},
	}
}

func sampleSteps(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{
			Token:    fmt.Sprintf("token-%d", i),
			Player:   uint8(i % 2),
			Kind:     duel.DecisionIdle,
			Response: duel.Response{Pass: true},
		}
	}
	return steps
}

func TestReplayPlayback(t *testing.T) {
	r := New("duel-1", 42, sampleDecks())
	for _, s := range sampleSteps(3) {
		r.Record(s)
	}

	if r.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", r.Size())
	}

	r.Start()
	for i := 0; i < 3; i++ {
		step, ok := r.Next()
		if !ok {
			t.Fatalf("Next() exhausted at %d", i)
		}
		if step.Token != fmt.Sprintf("token-%d", i) {
			t.Errorf("step %d token = %q", i, step.Token)
		}
	}
	if _, ok := r.Next(); ok {
		t.Error("Next() returned a step past the end")
	}

	step, ok := r.Previous()
	if !ok || step.Token != "token-2" {
		t.Errorf("Previous() = %+v, %v, want token-2", step, ok)
	}

	if _, ok := r.StepAt(5); ok {
		t.Error("StepAt(5) returned a step out of range")
	}
}

func TestReplaySaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	r := New("duel-rt", 77, sampleDecks())
	for _, s := range sampleSteps(4) {
		r.Record(s)
	}
	if err := r.SaveToFile(dir); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(dir, "duel-rt")
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.DuelID != "duel-rt" {
		t.Errorf("DuelID = %q, want duel-rt", loaded.DuelID)
	}
	if loaded.Seed != 77 {
		t.Errorf("Seed = %d, want 77", loaded.Seed)
	}
	if !reflect.DeepEqual(loaded.Decks, sampleDecks()) {
		t.Errorf("Decks = %v, want %v", loaded.Decks, sampleDecks())
	}
	if loaded.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", loaded.Size())
	}
	got, _ := loaded.StepAt(2)
	if got.Token != "token-2" || !got.Response.Pass {
		t.Errorf("StepAt(2) = %+v", got)
	}
}

func TestReplayLoadMissing(t *testing.T) {
	if _, err := LoadFromFile(t.TempDir(), "absent"); err == nil {
		t.Error("LoadFromFile() accepted a missing replay")
	}
}

func TestRecorderLifecycle(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(zap.NewNop(), dir)

	rec.StartRecording("duel-2", 9, sampleDecks())
	rec.Record("duel-2", sampleSteps(1)[0])
	rec.Record("unknown-duel", sampleSteps(1)[0]) // ignored

	r, ok := rec.Get("duel-2")
	if !ok {
		t.Fatal("Get() did not find the active recording")
	}
	if r.Size() != 1 {
		t.Errorf("Size() = %d, want 1", r.Size())
	}

	if err := rec.Save("duel-2"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rec.Discard("duel-2")
	if _, ok := rec.Get("duel-2"); ok {
		t.Error("Get() found a discarded recording")
	}

	loaded, err := LoadFromFile(dir, "duel-2")
	if err != nil {
		t.Fatalf("LoadFromFile() after Save error = %v", err)
	}
	if loaded.Seed != 9 {
		t.Errorf("Seed = %d, want 9", loaded.Seed)
	}
}
