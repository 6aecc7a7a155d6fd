// Package replay records duels for deterministic playback. Because the
// engine is seed-deterministic, a replay only needs the duel setup and
// the ordered decision responses; re-driving a fresh instance with the
// same seed, decks and responses reproduces the exact message stream.
package replay

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/osirisengine/osiris-server-go/internal/duel"
)

// Step is one decision answered during the duel, in answer order. The
// token is kept for diagnostics only; playback binds each response to
// whatever token the re-simulated duel hands out.
type Step struct {
	Token    string
	Player   uint8
	Kind     duel.DecisionKind
	Response duel.Response
}

// Replay is one recorded duel.
type Replay struct {
	DuelID string
	Seed   uint32
	Decks  [2][]uint32
	Steps  []Step

	CurrentIndex int
	mu           sync.RWMutex
}

// New creates an empty replay for a duel.
func New(duelID string, seed uint32, decks [2][]uint32) *Replay {
	return &Replay{
		DuelID: duelID,
		Seed:   seed,
		Decks:  decks,
		Steps:  make([]Step, 0),
	}
}

// Record appends one answered decision.
func (r *Replay) Record(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, step)
}

// Start resets playback to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the next step and advances, or false at the end.
func (r *Replay) Next() (Step, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex < len(r.Steps) {
		step := r.Steps[r.CurrentIndex]
		r.CurrentIndex++
		return step, true
	}
	return Step{}, false
}

// Previous steps playback back by one.
func (r *Replay) Previous() (Step, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Steps[r.CurrentIndex], true
	}
	return Step{}, false
}

// Size returns the number of recorded steps.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Steps)
}

// StepAt returns the step at a specific index.
func (r *Replay) StepAt(index int) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index >= 0 && index < len(r.Steps) {
		return r.Steps[index], true
	}
	return Step{}, false
}

type replayMetadata struct {
	DuelID    string
	Seed      uint32
	Decks     [2][]uint32
	Timestamp time.Time
	Version   int
	StepCount int
}

// SaveToFile writes the replay to <directory>/<duelID>.replay as a
// gzipped gob stream: metadata first, then each step.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.DuelID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		DuelID:    r.DuelID,
		Seed:      r.Seed,
		Decks:     r.Decks,
		Timestamp: time.Now(),
		Version:   1,
		StepCount: len(r.Steps),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, step := range r.Steps {
		if err := encoder.Encode(&step); err != nil {
			return fmt.Errorf("failed to encode step %d: %w", i, err)
		}
	}
	return nil
}

// LoadFromFile reads a replay saved by SaveToFile.
func LoadFromFile(directory, duelID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", duelID))
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()
	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	r := New(metadata.DuelID, metadata.Seed, metadata.Decks)
	for i := 0; i < metadata.StepCount; i++ {
		var step Step
		if err := decoder.Decode(&step); err != nil {
			return nil, fmt.Errorf("failed to decode step %d: %w", i, err)
		}
		r.Steps = append(r.Steps, step)
	}
	return r, nil
}

// Recorder manages replay recording across duels.
type Recorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
	saveDir string
}

// NewRecorder creates a recorder that saves into saveDir.
func NewRecorder(logger *zap.Logger, saveDir string) *Recorder {
	return &Recorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a duel.
func (rr *Recorder) StartRecording(duelID string, seed uint32, decks [2][]uint32) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[duelID] = New(duelID, seed, decks)
	rr.enabled[duelID] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording",
			zap.String("duel_id", duelID),
		)
	}
}

// StopRecording stops recording a duel; the replay stays in memory
// until Discard or Save.
func (rr *Recorder) StopRecording(duelID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.enabled[duelID] = false
}

// Record appends a step to a duel's replay if recording is enabled.
func (rr *Recorder) Record(duelID string, step Step) {
	rr.mu.RLock()
	r, ok := rr.replays[duelID]
	enabled := rr.enabled[duelID]
	rr.mu.RUnlock()
	if ok && enabled {
		r.Record(step)
	}
}

// Get returns the in-memory replay for a duel.
func (rr *Recorder) Get(duelID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.replays[duelID]
	return r, ok
}

// Save writes a duel's replay to the recorder's save directory.
func (rr *Recorder) Save(duelID string) error {
	rr.mu.RLock()
	r, ok := rr.replays[duelID]
	rr.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no replay for duel %s", duelID)
	}
	if err := r.SaveToFile(rr.saveDir); err != nil {
		return err
	}
	if rr.logger != nil {
		rr.logger.Info("saved replay",
			zap.String("duel_id", duelID),
			zap.Int("steps", r.Size()),
		)
	}
	return nil
}

// Discard drops a duel's replay from memory.
func (rr *Recorder) Discard(duelID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, duelID)
	delete(rr.enabled, duelID)
}
