package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.RetMax != 50 {
		t.Errorf("RetMax = %d, want 50", cfg.RetMax)
	}
	if cfg.MaxRuns != 20 {
		t.Errorf("MaxRuns = %d, want 20", cfg.MaxRuns)
	}
	if cfg.StateFile == "" {
		t.Error("StateFile default missing")
	}
	if cfg.GalaxyConfigured() {
		t.Error("defaults must not configure the platform")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
query: maize transcriptome
retmax: 10
galaxy_url: https://galaxy.example
galaxy_api_key: key1
history_per_sample: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Query != "maize transcriptome" {
		t.Errorf("Query = %q", cfg.Query)
	}
	if cfg.RetMax != 10 {
		t.Errorf("RetMax = %d, want 10", cfg.RetMax)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxRuns != 20 {
		t.Errorf("MaxRuns = %d, want default 20", cfg.MaxRuns)
	}
	if !cfg.HistoryPerSample {
		t.Error("HistoryPerSample not loaded")
	}
	if !cfg.GalaxyConfigured() {
		t.Error("expected platform configured")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NCBI_API_KEY", "envkey")
	t.Setenv("GALAXY_URL", "https://galaxy.env")
	t.Setenv("GALAXY_API_KEY", "envgalaxy")
	t.Setenv("NCBI_EMAIL", "ops@example.org")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.APIKey != "envkey" {
		t.Errorf("APIKey = %q, want envkey", cfg.APIKey)
	}
	if cfg.GalaxyURL != "https://galaxy.env" || cfg.GalaxyAPIKey != "envgalaxy" {
		t.Errorf("galaxy env not applied: %q %q", cfg.GalaxyURL, cfg.GalaxyAPIKey)
	}
	if cfg.Email != "ops@example.org" {
		t.Errorf("Email = %q", cfg.Email)
	}
}

func TestGalaxyConfigured(t *testing.T) {
	cfg := Default()
	cfg.GalaxyURL = "https://galaxy.example"
	if cfg.GalaxyConfigured() {
		t.Error("URL alone must not count as configured")
	}
	cfg.GalaxyAPIKey = "k"
	if !cfg.GalaxyConfigured() {
		t.Error("URL plus key should count as configured")
	}
}
