package cardb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildMain(distinct, copies int) []uint32 {
	var main []uint32
	for code := 0; code < distinct; code++ {
		for c := 0; c < copies; c++ {
			main = append(main, uint32(10000+code))
		}
	}
	return main
}

func TestDeckValidate(t *testing.T) {
	tests := []struct {
		name    string
		main    []uint32
		wantErr bool
	}{
		{"forty cards", buildMain(20, 2), false},
		{"forty-two cards", buildMain(14, 3), false},
		{"sixty cards", buildMain(20, 3), false},
		{"thirty-nine cards", buildMain(13, 3), true},
		{"sixty-three cards", buildMain(21, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deck := DeckList{Name: tt.name, Main: tt.main}
			err := deck.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeckValidateCopyLimit(t *testing.T) {
	main := buildMain(13, 3)
	main = append(main, 10000, 10001) // 41 cards, four copies of 10000
	deck := DeckList{Name: "four-of", Main: main}
	if err := deck.Validate(); err == nil {
		t.Error("Validate() accepted a fourth copy")
	}
}

func TestLoadDeck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	var sb strings.Builder
	sb.WriteString("name: test deck\nmain:\n")
	for code := 0; code < 40; code++ {
		fmt.Fprintf(&sb, "  - %d\n", 20000+code)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	deck, err := LoadDeck(path)
	if err != nil {
		t.Fatalf("LoadDeck() error = %v", err)
	}
	if deck.Name != "test deck" {
		t.Errorf("Name = %q, want %q", deck.Name, "test deck")
	}
	if len(deck.Main) != 40 {
		t.Errorf("len(Main) = %d, want 40", len(deck.Main))
	}
	if deck.Main[0] != 20000 {
		t.Errorf("Main[0] = %d, want 20000", deck.Main[0])
	}
}

func TestLoadDeckMissingFile(t *testing.T) {
	if _, err := LoadDeck(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadDeck() accepted a missing file")
	}
}
