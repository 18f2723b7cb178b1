package config

import (
	"os"
	"testing"
)

func TestLoadEnv_FallsBackToDefaults(t *testing.T) {
	os.Unsetenv("ODDS_SOURCE_API_KEY")
	os.Unsetenv("SETTINGS_DIR")
	os.Unsetenv("LOG_LEVEL")

	env := LoadEnv()
	if env.SettingsDir != "settings" {
		t.Errorf("SettingsDir = %q, want default %q", env.SettingsDir, "settings")
	}
	if env.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", env.LogLevel, "info")
	}
}

func TestLoadEnv_HonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	env := LoadEnv()
	if env.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want override %q", env.LogLevel, "debug")
	}
}

func TestEnvInt_FallsBackOnUnsetOrInvalid(t *testing.T) {
	os.Unsetenv("RATE_BURST_TEST")
	if got := envInt("RATE_BURST_TEST", 7); got != 7 {
		t.Errorf("envInt unset = %d, want 7", got)
	}
	t.Setenv("RATE_BURST_TEST", "not-a-number")
	if got := envInt("RATE_BURST_TEST", 7); got != 7 {
		t.Errorf("envInt invalid = %d, want fallback 7", got)
	}
	t.Setenv("RATE_BURST_TEST", "12")
	if got := envInt("RATE_BURST_TEST", 7); got != 12 {
		t.Errorf("envInt valid = %d, want 12", got)
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("FUZZY_TEST", "0.65")
	if got := envFloat("FUZZY_TEST", 0.5); got != 0.65 {
		t.Errorf("envFloat = %v, want 0.65", got)
	}
}
