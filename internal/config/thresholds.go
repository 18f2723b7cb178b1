// Thresholds hold the operator-tunable ops settings (loop pacing, log
// level, cache/output roots, investigation archive sizing) that a
// deployment adjusts without touching the checked-in data contracts.
// Grouping tolerances live in settings.json instead — see
// ModeSettings.GrouperConfig.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds is the full contents of thresholds.yaml.
type Thresholds struct {
	LoopDelaySeconds int    `yaml:"loop_delay_seconds"`
	LogLevel         string `yaml:"log_level"`

	CacheDir  string `yaml:"cache_dir"`
	OutputDir string `yaml:"output_dir"`

	InvestigationArchivePath     string `yaml:"investigation_archive_path"`
	InvestigationArchiveMaxBytes int64  `yaml:"investigation_archive_max_bytes"`
	InvestigationTimeoutMinutes  int    `yaml:"investigation_timeout_minutes"`

	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

// LoadThresholds reads and parses thresholds.yaml at path.
func LoadThresholds(path string) (*Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds: %w", err)
	}

	var t Thresholds
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}

	if t.LoopDelaySeconds <= 0 {
		t.LoopDelaySeconds = 20
	}
	if t.LogLevel == "" {
		t.LogLevel = "info"
	}
	if t.InvestigationTimeoutMinutes <= 0 {
		t.InvestigationTimeoutMinutes = 60
	}
	if t.CacheDir == "" {
		t.CacheDir = "data/cache"
	}
	if t.OutputDir == "" {
		t.OutputDir = "data/output"
	}

	return &t, nil
}
