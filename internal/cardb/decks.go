package cardb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	minDeckSize = 40
	maxDeckSize = 60
)

// DeckList is a named deck loaded from a YAML file.
type DeckList struct {
	Name string   `yaml:"name"`
	Main []uint32 `yaml:"main"`
	Side []uint32 `yaml:"side,omitempty"`
}

// LoadDeck reads and validates a deck list.
func LoadDeck(path string) (DeckList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DeckList{}, fmt.Errorf("read deck: %w", err)
	}
	var deck DeckList
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return DeckList{}, fmt.Errorf("parse deck: %w", err)
	}
	if err := deck.Validate(); err != nil {
		return DeckList{}, err
	}
	return deck, nil
}

// Validate enforces the construction rules: 40 to 60 main-deck cards
// and at most three copies of any one card.
func (d DeckList) Validate() error {
	if len(d.Main) < minDeckSize || len(d.Main) > maxDeckSize {
		return fmt.Errorf("deck %q has %d cards, want %d-%d", d.Name, len(d.Main), minDeckSize, maxDeckSize)
	}
	copies := make(map[uint32]int)
	for _, code := range d.Main {
		copies[code]++
		if copies[code] > 3 {
			return fmt.Errorf("deck %q has more than three copies of %d", d.Name, code)
		}
	}
	return nil
}
