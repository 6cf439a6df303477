package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"autosite/internal/types"
	"autosite/internal/utils"
)

// Store owns the rotation state file. Nothing else writes it.
type Store struct {
	path string
	now  func() time.Time
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted state, or {Index: -1} when none exists yet.
func (s *Store) Load() (types.RotationState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.RotationState{Index: -1}, nil
		}
		return types.RotationState{}, types.NewIOError("read rotation state", s.path, err)
	}

	var st types.RotationState
	if err := json.Unmarshal(data, &st); err != nil {
		return types.RotationState{}, types.NewFormatError(s.path, "rotation state is not {\"index\": int, \"last_run\": time}", err)
	}
	return st, nil
}

// Advance selects the topic after the last persisted one and persists the new
// position before returning it, so a crash later in the run never replays the
// same topic.
func (s *Store) Advance(catalog []types.Topic) (types.Topic, error) {
	if len(catalog) == 0 {
		return types.Topic{}, types.NewConfigError("rotation", "topic catalog is empty")
	}

	prev, err := s.Load()
	if err != nil {
		return types.Topic{}, err
	}

	next := nextIndex(prev.Index, len(catalog))
	st := types.RotationState{Index: next, LastRun: s.now()}

	if err := utils.WriteJSONAtomic(s.path, st); err != nil {
		return types.Topic{}, types.NewIOError("write rotation state", s.path, err)
	}

	slog.Info("Rotation advanced", "previous", prev.Index, "index", next, "topic", catalog[next].Key)
	return catalog[next], nil
}

func nextIndex(last, n int) int {
	return ((last+1)%n + n) % n
}
