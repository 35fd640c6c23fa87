package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func tempStatePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.json")
}

func TestLoad_MissingFile(t *testing.T) {
	s := New(tempStatePath(t))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := tempStatePath(t)

	s := New(path)
	// Insertion order must not matter.
	if err := s.MarkProcessed("SRR3"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}
	if err := s.MarkProcessed("SRR1"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	fresh := New(path)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := []string{"SRR1", "SRR3"}; !reflect.DeepEqual(fresh.Runs(), want) {
		t.Errorf("Runs() = %v, want %v", fresh.Runs(), want)
	}
	if !fresh.Processed("SRR3") || !fresh.Processed("SRR1") {
		t.Error("reloaded store missing marked runs")
	}
	if fresh.Processed("SRR2") {
		t.Error("Processed(SRR2) = true, want false")
	}
}

func TestSave_SortedOnDisk(t *testing.T) {
	path := tempStatePath(t)

	s := New(path)
	s.MarkProcessed("SRR9")
	s.MarkProcessed("SRR10")
	s.MarkProcessed("ERR1")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}

	var f struct {
		ProcessedRuns []string `json:"processed_runs"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("parse state file: %v", err)
	}

	// Lexicographic sort: SRR10 before SRR9.
	if want := []string{"ERR1", "SRR10", "SRR9"}; !reflect.DeepEqual(f.ProcessedRuns, want) {
		t.Errorf("persisted runs = %v, want %v", f.ProcessedRuns, want)
	}
}

func TestSave_EmptySetWritesEmptyList(t *testing.T) {
	path := tempStatePath(t)

	s := New(path)
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	var f map[string]any
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("parse state file: %v", err)
	}
	runs, ok := f["processed_runs"].([]any)
	if !ok {
		t.Fatalf("processed_runs missing or wrong type: %v", f)
	}
	if len(runs) != 0 {
		t.Errorf("processed_runs = %v, want empty list", runs)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := tempStatePath(t)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if err := s.Load(); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestReset(t *testing.T) {
	path := tempStatePath(t)

	s := New(path)
	s.MarkProcessed("SRR1")
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", s.Len())
	}

	fresh := New(path)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if fresh.Len() != 0 {
		t.Errorf("persisted set after reset has %d runs, want 0", fresh.Len())
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "state.json"))
	if err := s.MarkProcessed("SRR1"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want [state.json]", names)
	}
}
