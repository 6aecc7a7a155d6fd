package script

import "fmt"

// MapSource serves scripts from memory, keyed by card code. It backs
// tests and embedded card sets.
type MapSource map[uint32]string

// Load returns the source registered for code.
func (m MapSource) Load(code uint32) (string, error) {
	src, ok := m[code]
	if !ok {
		return "", fmt.Errorf("no script for card %d: %w", code, ErrNoModule)
	}
	return src, nil
}
