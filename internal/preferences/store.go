// Package preferences records which option the user picked for each task and
// learns a preferred strategy per category from that history.
package preferences

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"maestro/internal/logging"
	"maestro/internal/types"
)

// Entry is one recorded choice.
type Entry struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"session_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Category     types.Category    `json:"task_type"`
	Description  string            `json:"task_description"`
	Parameters   map[string]any    `json:"task_parameters"`
	Constraint   *types.Constraint `json:"constraint"`
	OptionsShown []OptionSummary   `json:"options_shown"`
	Chosen       ChosenOption      `json:"chosen"`
	Result       *ResultSummary    `json:"result,omitempty"`
}

// OptionSummary is the part of an option kept in history.
type OptionSummary struct {
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	Quality     float64 `json:"quality"`
	TimeSeconds int     `json:"time_seconds"`
}

// ChosenOption is the picked option plus whether it broke a constraint.
type ChosenOption struct {
	OptionSummary
	HadViolations bool `json:"had_violations"`
}

// ResultSummary is the part of an execution result kept in history.
type ResultSummary struct {
	RunID         string  `json:"run_id,omitempty"`
	ActualCost    float64 `json:"actual_cost"`
	ActualQuality float64 `json:"actual_quality"`
	Success       bool    `json:"success"`
}

// Store persists entries. Query with an empty category returns everything.
type Store interface {
	Record(e Entry) error
	Query(category types.Category) ([]Entry, error)
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore is an append-only JSON Lines file. Every query reads the whole
// file; history stays small enough for that.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file and its directory
// are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Record appends one entry.
func (s *FileStore) Record(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal preference entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open preferences: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write preference entry: %w", err)
	}
	return nil
}

// Query reads every entry for category. Unparsable lines are skipped.
func (s *FileStore) Query(category types.Category) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var out []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			logging.PreferencesWarn("skipping malformed line %d in %s: %v", lineNo, s.path, err)
			continue
		}
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan preferences: %w", err)
	}
	return out, nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps entries in memory. Used by tests and one-shot commands.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) Query(category types.Category) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}
