// Package config loads the odds pipeline's two configuration tiers:
// JSON data contracts (source directories, matching vocabularies,
// market sets, URL templates, EV parameters — all data, not operator
// tuning) and a YAML ops file for the handful of values a deployment
// tunes (loop delay, log level, cache roots), plus an .env bootstrap
// (godotenv) for secrets and path overrides.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env is the process-level bootstrap config: secrets and path
// overrides that don't belong in a checked-in JSON/YAML file.
type Env struct {
	// SourceAPIKey authenticates against the upstream odds-feed
	// scraper/ingest service.
	SourceAPIKey string

	SettingsDir    string // root of settings/{sport}/*.json
	ThresholdsPath string // internal/config/thresholds.yaml
	OutputRoot     string // overridable root for per-country outputs
	CacheRoot      string // overridable root for lifecycle/confirmation caches
	InvestigationDBPath string

	LogLevel string
}

// LoadEnv reads .env (if present; absence is not an error) then
// environment variables, falling back to defaults for anything unset.
func LoadEnv() *Env {
	_ = godotenv.Load()

	return &Env{
		SourceAPIKey:        envStr("ODDS_SOURCE_API_KEY", ""),
		SettingsDir:         envStr("SETTINGS_DIR", "settings"),
		ThresholdsPath:      envStr("THRESHOLDS_PATH", "internal/config/thresholds.yaml"),
		OutputRoot:          envStr("OUTPUT_ROOT", ""),
		CacheRoot:           envStr("CACHE_ROOT", ""),
		InvestigationDBPath: envStr("INVESTIGATION_DB_PATH", "data/investigations.db"),
		LogLevel:            envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
