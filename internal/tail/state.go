package tail

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrStateLocked is returned when another process holds the state file.
var ErrStateLocked = errors.New("tail state file is locked by another process")

// Checkpoint is the saved position of one host/unit tail.
type Checkpoint struct {
	Hostname string    `json:"hostname"`
	Unit     string    `json:"unit"`
	Cursor   string    `json:"cursor"`
	Updated  time.Time `json:"updated"`
}

type stateDoc struct {
	Version     int          `json:"version"`
	Checkpoints []Checkpoint `json:"checkpoints"`
}

// StateFile persists resume cursors between runs. An advisory lock on
// "<path>.lock" keeps two processes from writing the same file; within a
// process it is safe for concurrent use.
type StateFile struct {
	path string
	lock *flock.Flock

	mu  sync.Mutex
	doc stateDoc
}

// OpenStateFile locks path and loads any existing checkpoints.
func OpenStateFile(path string) (*StateFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateLocked, path)
	}

	s := &StateFile{path: path, lock: lock, doc: stateDoc{Version: 1}}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *StateFile) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file location.
func (s *StateFile) Path() string { return s.path }

// Load returns the saved cursor for hostname and unit.
func (s *StateFile) Load(hostname, unit string) (Checkpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cp := range s.doc.Checkpoints {
		if cp.Hostname == hostname && cp.Unit == unit {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// Save records cursor for hostname and unit and rewrites the file.
func (s *StateFile) Save(hostname, unit, cursor string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := Checkpoint{Hostname: hostname, Unit: unit, Cursor: cursor, Updated: now.UTC()}
	replaced := false
	for i := range s.doc.Checkpoints {
		if s.doc.Checkpoints[i].Hostname == hostname && s.doc.Checkpoints[i].Unit == unit {
			s.doc.Checkpoints[i] = cp
			replaced = true
			break
		}
	}
	if !replaced {
		s.doc.Checkpoints = append(s.doc.Checkpoints, cp)
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close releases the lock.
func (s *StateFile) Close() error {
	return s.lock.Unlock()
}
