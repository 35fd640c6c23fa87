// Package config holds the pipeline configuration: discovery query, platform
// credentials, workflow selection, and resume settings. Values come from an
// optional YAML file, environment variables, and command-line flags, in
// increasing precedence.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration.
type Config struct {
	// Discovery.
	Query   string `yaml:"query"`
	RetMax  int    `yaml:"retmax"`
	MaxRuns int    `yaml:"max_runs"`
	Email   string `yaml:"email"`
	APIKey  string `yaml:"ncbi_api_key"`

	// Platform.
	GalaxyURL    string `yaml:"galaxy_url"`
	GalaxyAPIKey string `yaml:"galaxy_api_key"`

	// Workflow selection. Explicit IDs beat name lookup.
	SingleWorkflowID   string `yaml:"single_workflow_id"`
	SingleWorkflowName string `yaml:"single_workflow_name"`
	PairedWorkflowID   string `yaml:"paired_workflow_id"`
	PairedWorkflowName string `yaml:"paired_workflow_name"`

	// Workflow input slots.
	SingleInputLabel    string `yaml:"single_input_label"`
	PairedInputLabel    string `yaml:"paired_input_label"`
	ReferenceInputLabel string `yaml:"reference_input_label"`

	// Shared reference resource. An existing dataset ID beats fetching the
	// URL.
	ReferenceURL       string `yaml:"reference_url"`
	ReferenceDatasetID string `yaml:"reference_dataset_id"`

	// History (working context) selection.
	HistoryID        string `yaml:"history_id"`
	HistoryName      string `yaml:"history_name"`
	HistoryPerSample bool   `yaml:"history_per_sample"`

	// Resume / execution mode.
	StateFile  string `yaml:"state_file"`
	CachePath  string `yaml:"cache_path"`
	ResetState bool   `yaml:"-"`
	DryRun     bool   `yaml:"-"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Query:               `(rice[Title/Abstract] OR "Oryza sativa"[MeSH Terms])`,
		RetMax:              50,
		MaxRuns:             20,
		SingleWorkflowName:  "Rice Variant Calling (BWA-MEM2 + FreeBayes)",
		PairedWorkflowName:  "Rice Variant Calling Paired (BWA-MEM2 + FreeBayes)",
		SingleInputLabel:    "Reads FASTQ",
		PairedInputLabel:    "Reads Pair",
		ReferenceInputLabel: "Reference FASTA",
		HistoryName:         "Rice_variant_calling_inputs",
		StateFile:           ".seqferry_state.json",
	}
}

// LoadFile overlays values from a YAML file onto c. Unset file fields leave
// the existing values untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays credential values from the environment. Environment
// values win over file values but lose to explicit flags.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("NCBI_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("NCBI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("GALAXY_URL"); v != "" {
		c.GalaxyURL = v
	}
	if v := os.Getenv("GALAXY_API_KEY"); v != "" {
		c.GalaxyAPIKey = v
	}
}

// GalaxyConfigured reports whether the destination platform is configured.
// When false the pipeline performs discovery and reporting only.
func (c Config) GalaxyConfigured() bool {
	return c.GalaxyURL != "" && c.GalaxyAPIKey != ""
}
