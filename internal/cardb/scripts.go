package cardb

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DirSource loads card scripts from a directory of c<code>.lua files.
// Sources are cached after the first read.
type DirSource struct {
	dir string

	mu    sync.RWMutex
	cache map[uint32]string
}

// NewDirSource creates a script source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{
		dir:   dir,
		cache: make(map[uint32]string),
	}
}

// Load returns the Lua source for one card.
func (s *DirSource) Load(code uint32) (string, error) {
	s.mu.RLock()
	src, ok := s.cache[code]
	s.mu.RUnlock()
	if ok {
		return src, nil
	}

	path := filepath.Join(s.dir, fmt.Sprintf("c%d.lua", code))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("script for card %d: %w", code, err)
	}

	s.mu.Lock()
	s.cache[code] = string(data)
	s.mu.Unlock()
	return string(data), nil
}
