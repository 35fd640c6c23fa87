// Package state persists the set of run accessions already dispatched, so an
// interrupted pipeline never re-dispatches a completed run.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// fileFormat is the persisted JSON shape.
type fileFormat struct {
	ProcessedRuns []string `json:"processed_runs"`
}

// Store holds the durable processed-run set. Membership is append-only; the
// whole set is rewritten on every save so the file always reflects the last
// fully completed run.
type Store struct {
	path      string
	processed map[string]struct{}
}

// New creates a Store backed by the given file path. The file is not read
// until Load is called.
func New(path string) *Store {
	return &Store{
		path:      path,
		processed: make(map[string]struct{}),
	}
}

// Load reads the persisted set. A missing file is a first run and loads an
// empty set.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file %s: %w", s.path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse state file %s: %w", s.path, err)
	}

	for _, run := range f.ProcessedRuns {
		s.processed[run] = struct{}{}
	}
	return nil
}

// Save rewrites the whole file with the sorted current set. The write goes
// through a temp file and rename so a crash never leaves a torn state file.
func (s *Store) Save() error {
	f := fileFormat{ProcessedRuns: s.Runs()}
	if f.ProcessedRuns == nil {
		f.ProcessedRuns = []string{}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(s.path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Processed reports whether a run accession has already been dispatched.
func (s *Store) Processed(run string) bool {
	_, ok := s.processed[run]
	return ok
}

// MarkProcessed adds a run accession to the set and persists immediately.
// Called only after the run's dispatch fully succeeded.
func (s *Store) MarkProcessed(run string) error {
	s.processed[run] = struct{}{}
	return s.Save()
}

// Runs returns the processed accessions sorted.
func (s *Store) Runs() []string {
	out := make([]string, 0, len(s.processed))
	for run := range s.processed {
		out = append(out, run)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of processed runs.
func (s *Store) Len() int {
	return len(s.processed)
}

// Reset empties the in-memory set and removes the backing file. A missing
// file is already reset.
func (s *Store) Reset() error {
	s.processed = make(map[string]struct{})
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file %s: %w", s.path, err)
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}
