package game

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/state"
)

const replayFormatVersion = 1

// Replay is a recorded sequence of game snapshots with a cursor for playback.
type Replay struct {
	GameID       string
	States       []*model.GameState
	Checksums    []string
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		States: make([]*model.GameState, 0),
	}
}

// Replay builds a replay from the snapshots held for gameID.
func (e *Engine) Replay(ctx context.Context, gameID string) (*Replay, error) {
	history, err := e.states.GetStateHistory(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	r := NewReplay(gameID)
	for _, s := range history {
		if err := r.RecordState(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordState appends a copy of s together with its checksum.
func (r *Replay) RecordState(s *model.GameState) error {
	sum, err := state.Checksum(s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.States = append(r.States, s.Clone())
	r.Checksums = append(r.Checksums, sum)
	return nil
}

// Start rewinds to the first snapshot.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the snapshot at the cursor and advances it, or nil at the end.
func (r *Replay) Next() *model.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		s := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return s.Clone()
	}
	return nil
}

// Previous moves the cursor back and returns that snapshot, or nil at the
// beginning.
func (r *Replay) Previous() *model.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex].Clone()
	}
	return nil
}

// Skip moves the cursor by count, clamped to the recorded range.
func (r *Replay) Skip(count int) *model.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.States) == 0 {
		return nil
	}
	idx := r.CurrentIndex + count
	if idx >= len(r.States) {
		idx = len(r.States) - 1
	}
	if idx < 0 {
		idx = 0
	}
	r.CurrentIndex = idx
	return r.States[idx].Clone()
}

// Size returns the number of snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.States)
}

// At returns the snapshot at index, or nil when out of range.
func (r *Replay) At(index int) *model.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index].Clone()
	}
	return nil
}

// Verify recomputes every checksum and reports the first mismatch.
func (r *Replay) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.Checksums) != len(r.States) {
		return fmt.Errorf("replay %s has %d checksums for %d states", r.GameID, len(r.Checksums), len(r.States))
	}
	for i, s := range r.States {
		sum, err := state.Checksum(s)
		if err != nil {
			return err
		}
		if sum != r.Checksums[i] {
			return fmt.Errorf("replay %s state %d checksum mismatch", r.GameID, i)
		}
		if s.ID != r.GameID {
			return fmt.Errorf("replay %s state %d belongs to game %s", r.GameID, i, s.ID)
		}
	}
	return nil
}

type replayFile struct {
	Version   int                `json:"version"`
	GameID    string             `json:"gameId"`
	SavedAt   time.Time          `json:"savedAt"`
	States    []*model.GameState `json:"states"`
	Checksums []string           `json:"checksums"`
	ChecksumV int                `json:"checksumVersion"`
}

// ReplayPath returns the file a replay for gameID is saved to.
func ReplayPath(directory, gameID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))
}

// SaveToFile writes the replay as gzipped JSON to directory.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(ReplayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	payload := replayFile{
		Version:   replayFormatVersion,
		GameID:    r.GameID,
		SavedAt:   time.Now(),
		States:    r.States,
		Checksums: r.Checksums,
		ChecksumV: state.ChecksumVersion,
	}
	if err := json.NewEncoder(zw).Encode(&payload); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay saved by SaveToFile and verifies it.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(ReplayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	var payload replayFile
	if err := json.NewDecoder(zr).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if payload.Version != replayFormatVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", payload.Version)
	}
	if payload.ChecksumV != state.ChecksumVersion {
		return nil, fmt.Errorf("unsupported checksum version: %d", payload.ChecksumV)
	}

	r := &Replay{
		GameID:    payload.GameID,
		States:    payload.States,
		Checksums: payload.Checksums,
	}
	if err := r.Verify(); err != nil {
		return nil, err
	}
	return r, nil
}

// ReplayRecorder captures every registered state of the games it records
// and writes finished replays to a directory.
type ReplayRecorder struct {
	logger    *zap.Logger
	directory string

	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
}

// NewReplayRecorder creates a recorder saving to directory.
func NewReplayRecorder(logger *zap.Logger, directory string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:    logger,
		directory: directory,
		replays:   make(map[string]*Replay),
		enabled:   make(map[string]bool),
	}
}

// StartRecording begins a fresh replay for gameID.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[gameID] = NewReplay(gameID)
	rr.enabled[gameID] = true
	rr.logger.Debug("started replay recording", zap.String("game_id", gameID))
}

// StopRecording keeps the replay in memory but ignores later states.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.enabled[gameID] = false
}

// IsRecording reports whether states of gameID are being captured.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.enabled[gameID]
}

// Record appends gs to its game's replay when recording is enabled.
func (rr *ReplayRecorder) Record(gs *model.GameState) error {
	rr.mu.RLock()
	enabled := rr.enabled[gs.ID]
	replay := rr.replays[gs.ID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return nil
	}
	return replay.RecordState(gs)
}

// Replay returns the in-memory replay of gameID.
func (rr *ReplayRecorder) Replay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.replays[gameID]
	return r, ok
}

// Save writes the replay of gameID to disk and drops it from memory.
func (rr *ReplayRecorder) Save(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay recorded for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.directory); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay",
		zap.String("game_id", gameID),
		zap.Int("states", replay.Size()),
		zap.String("directory", rr.directory),
	)
	return nil
}

// Load reads a saved replay of gameID.
func (rr *ReplayRecorder) Load(gameID string) (*Replay, error) {
	return LoadReplayFromFile(rr.directory, gameID)
}

// Discard drops the replay of gameID without saving it.
func (rr *ReplayRecorder) Discard(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
}
