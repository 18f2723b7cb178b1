// Data-contract loaders: JSON files under settings/{sport}/ that
// describe what to ingest and how to judge a match, as opposed to
// thresholds.yaml's operator tuning. Each loader reads the file then
// unmarshals into the shapes internal/matching, internal/markets,
// internal/urlbuild, and internal/ev already expect.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fahdbohli/oddsarb/internal/ev"
	"github.com/fahdbohli/oddsarb/internal/grouper"
	"github.com/fahdbohli/oddsarb/internal/ingest"
	"github.com/fahdbohli/oddsarb/internal/markets"
	"github.com/fahdbohli/oddsarb/internal/matching"
	"github.com/fahdbohli/oddsarb/internal/textnorm"
	"github.com/fahdbohli/oddsarb/internal/urlbuild"
)

// SettingsFile is settings/{sport}/settings.json: a sport -> mode tree,
// each mode entry naming its source directories, grouper tolerances
// and output directory.
type SettingsFile map[string]map[string]ModeSettings

// ModeSettings is one settings.json[sport][mode] entry.
type ModeSettings struct {
	SourceDirectories []SourceEntry `json:"source_directories"`
	OutputDir         string        `json:"output_dir"`

	DayDiffTolerance    int       `json:"day_diff_tolerance"`
	TimeDiffTolerance   float64   `json:"time_diff_tolerance"`
	GatekeeperThreshold float64   `json:"gatekeeper_threshold"`
	StrongThreshold     []float64 `json:"strong_threshold"`
	ModerateThreshold   []float64 `json:"moderate_threshold"`

	RatePerSecond float64 `json:"rate_per_second"`
	RateBurst     int     `json:"rate_burst"`
}

type SourceEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func LoadSettings(path string) (SettingsFile, error) {
	var sf SettingsFile
	if err := readJSON(path, &sf); err != nil {
		return nil, err
	}
	return sf, nil
}

// ForSportMode returns the sport's mode entry, or an error naming
// whichever of sport/mode wasn't found.
func (sf SettingsFile) ForSportMode(sport, mode string) (ModeSettings, error) {
	bySport, ok := sf[sport]
	if !ok {
		return ModeSettings{}, fmt.Errorf("sport %q not found in settings", sport)
	}
	ms, ok := bySport[mode]
	if !ok {
		return ModeSettings{}, fmt.Errorf("mode %q not found under sport %q", mode, sport)
	}
	return ms, nil
}

// SourceDirs converts a ModeSettings into ingest.Reader inputs.
func (ms ModeSettings) SourceDirs() []ingest.SourceDir {
	dirs := make([]ingest.SourceDir, 0, len(ms.SourceDirectories))
	for _, s := range ms.SourceDirectories {
		dirs = append(dirs, ingest.SourceDir{Source: s.Name, Dir: s.Path})
	}
	return dirs
}

// GrouperConfig converts the mode's grouping tolerances into
// internal/grouper.Config.
func (ms ModeSettings) GrouperConfig() *grouper.Config {
	return &grouper.Config{
		DayDiffTolerance:    ms.DayDiffTolerance,
		TimeDiffTolerance:   ms.TimeDiffTolerance,
		GatekeeperThreshold: ms.GatekeeperThreshold,
		StrongThreshold:     ms.StrongThreshold,
		ModerateThreshold:   ms.ModerateThreshold,
	}
}

// MatchingHelperFile is settings/{sport}/matching_helper.json: the
// vocabularies internal/matching.Config needs.
type MatchingHelperFile struct {
	ImportantTerms      [][]string `json:"important_terms"`
	TeamSynonyms        [][]string `json:"team_synonyms"`
	CommonTeamWords     []string   `json:"common_team_words"`
	LocationIdentifiers []string   `json:"location_identifiers"`
}

func LoadMatchingHelper(path string) (*MatchingHelperFile, error) {
	var mh MatchingHelperFile
	if err := readJSON(path, &mh); err != nil {
		return nil, err
	}
	return &mh, nil
}

// MatchingConfig builds a matching.Config from the loaded helper file
// and the operator's fuzzy threshold override.
func (mh *MatchingHelperFile) MatchingConfig(fuzzyThreshold float64) *matching.Config {
	return &matching.Config{
		ImportantTermGroups: mh.ImportantTerms,
		TeamSynonyms:        mh.TeamSynonyms,
		FuzzyThreshold:      fuzzyThreshold,
	}
}

// TextNormConfig builds the textnorm.Config the same vocabularies feed.
func (mh *MatchingHelperFile) TextNormConfig() *textnorm.Config {
	common := make(map[string]struct{}, len(mh.CommonTeamWords))
	for _, w := range mh.CommonTeamWords {
		common[strings.ToLower(w)] = struct{}{}
	}
	locations := make(map[string]struct{}, len(mh.LocationIdentifiers))
	for _, w := range mh.LocationIdentifiers {
		locations[strings.ToLower(w)] = struct{}{}
	}
	return &textnorm.Config{
		ImportantTermGroups: mh.ImportantTerms,
		CommonTeamWords:     common,
		LocationIdentifiers: locations,
	}
}

// MarketsFile is settings/{sport}/market_sets.json: a pre-generated
// list of {name, outcomes} pairs, the serialized form of
// markets.GenerateMarketSets' output so a deployment doesn't have to
// regenerate the catalogue on every process start.
type MarketsFile struct {
	MarketSets []struct {
		Name     string   `json:"name"`
		Outcomes []string `json:"outcomes"`
	} `json:"market_sets"`
}

func LoadMarketSets(path string) (markets.MarketSets, error) {
	var mf MarketsFile
	if err := readJSON(path, &mf); err != nil {
		return nil, err
	}
	out := make(markets.MarketSets, 0, len(mf.MarketSets))
	for _, m := range mf.MarketSets {
		out = append(out, markets.MarketSet{Name: m.Name, Outcomes: m.Outcomes})
	}
	return out, nil
}

// URLBuilderFile is settings/{sport}/url_builder.json: per-source
// URL_TEMPLATES entries for internal/urlbuild.Registry.
type URLBuilderFile struct {
	Templates map[string]struct {
		Template      string                       `json:"template"`
		Mappings      map[string]map[string]string `json:"mappings"`
		SlugifyFields map[string]struct {
			RemoveDigits     bool   `json:"remove_digits"`
			SpaceReplacement string `json:"space_replacement"`
		} `json:"slugify_fields"`
	} `json:"url_templates"`
}

func LoadURLBuilder(path string) (*URLBuilderFile, error) {
	var uf URLBuilderFile
	if err := readJSON(path, &uf); err != nil {
		return nil, err
	}
	return &uf, nil
}

// Registry builds an urlbuild.Registry for the given sport/mode names.
func (uf *URLBuilderFile) Registry(sportName, modeName string, onWarn func(string, ...any)) *urlbuild.Registry {
	templates := make(map[string]urlbuild.Template, len(uf.Templates))
	for source, t := range uf.Templates {
		slugify := make(map[string]urlbuild.SlugifyRules, len(t.SlugifyFields))
		for field, r := range t.SlugifyFields {
			slugify[field] = urlbuild.SlugifyRules{RemoveDigits: r.RemoveDigits, SpaceReplacement: r.SpaceReplacement}
		}
		templates[source] = urlbuild.Template{Template: t.Template, Mappings: t.Mappings, SlugifyFields: slugify}
	}
	return urlbuild.NewRegistry(templates, sportName, modeName, onWarn)
}

// EVFile is settings/{sport}/ev.json: the +EV analyzer's tunables,
// everything internal/ev.Config needs besides the market sets and URL
// registry, which are wired in separately since they're shared with
// the arbitrage path.
type EVFile struct {
	Method       string   `json:"method"`
	SharpSource  string   `json:"sharp_source"`
	SharpGroup   []string `json:"sharp_group"`
	TargetSource string   `json:"target_source"`
	OddsLo       float64  `json:"odds_lo"`
	OddsHi       float64  `json:"odds_hi"`
	MinOverprice float64  `json:"min_overprice"`
}

func LoadEVFile(path string) (*EVFile, error) {
	var ef EVFile
	if err := readJSON(path, &ef); err != nil {
		return nil, err
	}
	return &ef, nil
}

// EVConfig assembles an ev.Config, folding in the market sets and URL
// registry a full pipeline run already loaded.
func (ef *EVFile) EVConfig(sets markets.MarketSets, urls *urlbuild.Registry) ev.Config {
	return ev.Config{
		Method:       ev.Method(ef.Method),
		SharpSource:  ef.SharpSource,
		SharpGroup:   ef.SharpGroup,
		TargetSource: ef.TargetSource,
		OddsLo:       ef.OddsLo,
		OddsHi:       ef.OddsHi,
		MinOverprice: ef.MinOverprice,
		MarketSets:   sets,
		URLs:         urls,
	}
}

// SportDir returns the conventional settings/{sport} directory under
// root, and SportFile one of its JSON files by name.
func SportDir(root, sport string) string {
	return filepath.Join(root, sport)
}

func SportFile(root, sport, name string) string {
	return filepath.Join(SportDir(root, sport), name)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
