package config

import (
	"path/filepath"
	"testing"

	"github.com/fahdbohli/oddsarb/internal/urlbuild"
)

func TestLoadSettings_ForSportMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	writeFile(t, path, `{
		"football": {
			"prematch": {
				"source_directories": [{"name": "bet365", "path": "data/bet365"}],
				"output_dir": "output/football/prematch",
				"day_diff_tolerance": 1,
				"time_diff_tolerance": 90,
				"gatekeeper_threshold": 0.4,
				"strong_threshold": [0.8, 0.6],
				"moderate_threshold": [0.6, 0.5],
				"rate_per_second": 2,
				"rate_burst": 4
			}
		}
	}`)

	sf, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings error: %v", err)
	}
	ms, err := sf.ForSportMode("football", "prematch")
	if err != nil {
		t.Fatalf("ForSportMode error: %v", err)
	}
	if ms.OutputDir != "output/football/prematch" {
		t.Errorf("OutputDir = %q, want output/football/prematch", ms.OutputDir)
	}
	dirs := ms.SourceDirs()
	if len(dirs) != 1 || dirs[0].Source != "bet365" || dirs[0].Dir != "data/bet365" {
		t.Errorf("unexpected SourceDirs: %+v", dirs)
	}
	gc := ms.GrouperConfig()
	if gc.DayDiffTolerance != 1 || gc.GatekeeperThreshold != 0.4 {
		t.Errorf("unexpected GrouperConfig: %+v", gc)
	}
}

func TestForSportMode_UnknownSportErrors(t *testing.T) {
	sf := SettingsFile{"football": map[string]ModeSettings{"prematch": {}}}
	if _, err := sf.ForSportMode("hockey", "prematch"); err == nil {
		t.Error("expected an error for an unknown sport")
	}
	if _, err := sf.ForSportMode("football", "live"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestLoadMatchingHelper_BuildsConfigs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matching_helper.json")
	writeFile(t, path, `{
		"important_terms": [["united", "utd"]],
		"team_synonyms": [["man united", "manchester united"]],
		"common_team_words": ["FC", "Club"],
		"location_identifiers": ["City", "United"]
	}`)

	mh, err := LoadMatchingHelper(path)
	if err != nil {
		t.Fatalf("LoadMatchingHelper error: %v", err)
	}
	mc := mh.MatchingConfig(0.55)
	if mc.FuzzyThreshold != 0.55 {
		t.Errorf("FuzzyThreshold = %v, want 0.55", mc.FuzzyThreshold)
	}
	if len(mc.TeamSynonyms) != 1 {
		t.Errorf("expected one synonym group, got %+v", mc.TeamSynonyms)
	}

	tc := mh.TextNormConfig()
	if _, ok := tc.CommonTeamWords["fc"]; !ok {
		t.Error("expected common team words lowercased")
	}
	if _, ok := tc.LocationIdentifiers["city"]; !ok {
		t.Error("expected location identifiers lowercased")
	}
}

func TestLoadMarketSets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "market_sets.json")
	writeFile(t, path, `{"market_sets": [
		{"name": "three_way", "outcomes": ["1_odd", "draw_odd", "2_odd"]},
		{"name": "one_vs_x2", "outcomes": ["1_odd", "X2_odd"]}
	]}`)

	sets, err := LoadMarketSets(path)
	if err != nil {
		t.Fatalf("LoadMarketSets error: %v", err)
	}
	if len(sets) != 2 || sets[0].Name != "three_way" {
		t.Errorf("unexpected market sets: %+v", sets)
	}
}

func TestLoadURLBuilder_Registry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "url_builder.json")
	writeFile(t, path, `{
		"url_templates": {
			"bet365": {
				"template": "https://bet365.com/{sport}/{match_id}",
				"mappings": {},
				"slugify_fields": {}
			}
		}
	}`)

	uf, err := LoadURLBuilder(path)
	if err != nil {
		t.Fatalf("LoadURLBuilder error: %v", err)
	}
	reg := uf.Registry("football", "prematch", nil)
	got := reg.Build("bet365", urlbuild.MatchData{MatchID: "7"})
	want := "https://bet365.com/football/7"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestLoadEVFile_EVConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ev.json")
	writeFile(t, path, `{
		"method": "ONE_SHARPING",
		"sharp_source": "pinnacle",
		"target_source": "bet365",
		"odds_lo": 1.2,
		"odds_hi": 15,
		"min_overprice": 0.03
	}`)

	ef, err := LoadEVFile(path)
	if err != nil {
		t.Fatalf("LoadEVFile error: %v", err)
	}
	cfg := ef.EVConfig(nil, nil)
	if cfg.SharpSource != "pinnacle" || cfg.TargetSource != "bet365" {
		t.Errorf("unexpected EVConfig: %+v", cfg)
	}
	if cfg.OddsHi != 15 {
		t.Errorf("OddsHi = %v, want 15", cfg.OddsHi)
	}
}

func TestSportDirAndSportFile(t *testing.T) {
	if got := SportDir("settings", "football"); got != "settings/football" {
		t.Errorf("SportDir = %q", got)
	}
	if got := SportFile("settings", "football", "settings.json"); got != "settings/football/settings.json" {
		t.Errorf("SportFile = %q", got)
	}
}
