// Package cardb resolves card definitions and card scripts from disk:
// a SQLite card database in the standard `datas` layout plus a
// directory of per-card Lua modules.
package cardb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/osirisengine/osiris-server-go/internal/duel"
	"github.com/osirisengine/osiris-server-go/internal/duel/ocg"
)

// Store provides SQLite-backed card definitions. Lookups are cached;
// card data is immutable for the life of the process.
type Store struct {
	sqlDB *sql.DB

	mu    sync.RWMutex
	cache map[uint32]duel.CardDefinition
}

// Open opens a card database at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("card database path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return &Store{
		sqlDB: sqlDB,
		cache: make(map[uint32]duel.CardDefinition),
	}, nil
}

// DB returns the underlying sql.DB instance.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Resolve looks up one card definition by code.
func (s *Store) Resolve(code uint32) (duel.CardDefinition, error) {
	s.mu.RLock()
	def, ok := s.cache[code]
	s.mu.RUnlock()
	if ok {
		return def, nil
	}

	row := s.sqlDB.QueryRow(
		`SELECT id, alias, setcode, type, atk, def, level, race, attribute FROM datas WHERE id = ?`,
		code,
	)
	var (
		id, alias               uint32
		setcode                 int64
		cardType, race, attrib  uint32
		atk, defense            int32
		level                   uint32
	)
	if err := row.Scan(&id, &alias, &setcode, &cardType, &atk, &defense, &level, &race, &attrib); err != nil {
		if err == sql.ErrNoRows {
			return duel.CardDefinition{}, fmt.Errorf("card %d not in database", code)
		}
		return duel.CardDefinition{}, fmt.Errorf("query card %d: %w", code, err)
	}

	def = duel.CardDefinition{
		Code:      id,
		Alias:     alias,
		Setcode:   uint64(setcode),
		Type:      ocg.CardType(cardType),
		// The level column packs pendulum scales in its upper bytes.
		Level:     level & 0xff,
		Attribute: ocg.Attribute(attrib),
		Race:      ocg.Race(race),
		Attack:    atk,
		Defense:   defense,
	}

	s.mu.Lock()
	s.cache[code] = def
	s.mu.Unlock()
	return def, nil
}

// Codes lists every card code in the database, for preloading.
func (s *Store) Codes() ([]uint32, error) {
	rows, err := s.sqlDB.Query(`SELECT id FROM datas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query codes: %w", err)
	}
	defer rows.Close()

	var codes []uint32
	for rows.Next() {
		var code uint32
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
