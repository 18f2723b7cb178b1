// Package arbitrage finds the single best sure-bet (negative vig)
// opportunity across a Matching Group's market sets, picking the best
// available odd per outcome from any contributing source.
package arbitrage

import (
	"sort"
	"strings"

	"github.com/fahdbohli/oddsarb/internal/markets"
	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/urlbuild"
)

// Config bundles the market catalogue and URL registry the analyzer
// needs to build a fully annotated opportunity.
type Config struct {
	MarketSets markets.MarketSets
	URLs       *urlbuild.Registry
}

type oddPick struct {
	value  float64
	source string
	record *model.Record
}

// pickBestOdds scans every record in the group for the highest
// positive value at outcome, returning the record it came from.
func pickBestOdds(group []*model.Record, outcome string) oddPick {
	best := oddPick{}
	for _, rec := range group {
		v, ok := rec.Odd(outcome)
		if !ok || v <= best.value {
			continue
		}
		best = oddPick{value: v, source: rec.Source, record: rec}
	}
	return best
}

// checkArbitrage returns the total implied probability if picks are
// all positive, drawn from at least 2 distinct sources, and sum to
// less than 1 (a guaranteed profit); else false.
func checkArbitrage(picks map[string]oddPick) (float64, bool) {
	sources := map[string]struct{}{}
	total := 0.0
	for _, p := range picks {
		if p.value <= 0 {
			return 0, false
		}
		sources[p.source] = struct{}{}
		total += 1.0 / p.value
	}
	if len(sources) < 2 {
		return 0, false
	}
	if total >= 1 {
		return 0, false
	}
	return total, true
}

// AnalyzeOptimalArbitrage walks every market set in declared order and
// keeps the single lowest-arbitrage-percentage opportunity found,
// matching the "first encountered wins strict-improvement ties"
// tie-break rule.
func AnalyzeOptimalArbitrage(group []*model.Record, cfg Config) *model.ArbitrageOpportunity {
	if len(group) < 2 {
		return nil
	}

	bestHome := longestNonEmpty(group, func(r *model.Record) string { return r.HomeTeam })
	bestAway := longestNonEmpty(group, func(r *model.Record) string { return r.AwayTeam })

	var best *model.ArbitrageOpportunity
	bestArb := 1.0

	for _, set := range cfg.MarketSets {
		skip := false
		for _, key := range set.Outcomes {
			anyUsable := false
			for _, rec := range group {
				if _, ok := rec.Odd(key); ok {
					anyUsable = true
					break
				}
			}
			if !anyUsable {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		picks := make(map[string]oddPick, len(set.Outcomes))
		for _, key := range set.Outcomes {
			picks[key] = pickBestOdds(group, key)
		}

		arb, ok := checkArbitrage(picks)
		if !ok || arb >= bestArb {
			continue
		}

		opp := buildOpportunity(set.Name, picks, arb, cfg, bestHome, bestAway)
		best = opp
		bestArb = arb
	}

	return best
}

func buildOpportunity(
	setName string,
	picks map[string]oddPick,
	arb float64,
	cfg Config,
	bestHome, bestAway string,
) *model.ArbitrageOpportunity {
	bestOdds := make(map[string]model.ArbitragePick, len(picks))
	sourcesSet := map[string]struct{}{}
	matchIDsSet := map[string]struct{}{}
	bySource := map[string]*model.Record{}

	for key, p := range picks {
		bestOdds[key] = model.ArbitragePick{Value: p.value, Source: p.source}
		if p.value > 0 && p.source != "" && p.record != nil {
			sourcesSet[p.source] = struct{}{}
			bySource[p.source] = p.record
			if p.record.MatchID != "" {
				matchIDsSet[p.record.MatchID] = struct{}{}
			}
		}
	}

	sources := make([]string, 0, len(sourcesSet))
	for s := range sourcesSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	ids := make([]string, 0, len(matchIDsSet))
	for id := range matchIDsSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) > len(ids[j])
		}
		return ids[i] < ids[j]
	})

	opp := &model.ArbitrageOpportunity{
		ComplementarySet:    setName,
		BestOdds:            bestOdds,
		ArbitragePercentage: round4(arb),
		ArbitrageSources:    strings.Join(sources, ", "),
		UniqueID:            strings.Join(ids, "-"),
		SourceMeta:          make(map[string]map[string]any, len(sources)),
		HomeTeam:            bestHome,
		AwayTeam:            bestAway,
	}

	for source, rec := range bySource {
		meta := map[string]any{
			"country_name":      rec.Country,
			"tournament_name":   rec.TournamentName,
		}
		if rec.MatchID != "" {
			meta["match_id"] = urlbuild.IntOrString(rec.MatchID)
		}
		if rec.TournamentID != "" {
			meta["tournament_id"] = urlbuild.IntOrString(rec.TournamentID)
		}
		matchURL := rec.MatchURL
		if matchURL == "" && cfg.URLs != nil {
			matchURL = cfg.URLs.Build(source, urlbuild.MatchData{
				MatchURL:       rec.MatchURL,
				Country:        rec.Country,
				TournamentID:   rec.TournamentID,
				TournamentName: rec.TournamentName,
				MatchID:        rec.MatchID,
			})
		}
		meta["match_url"] = matchURL
		opp.SourceMeta[source] = meta
	}

	return opp
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}

// BestCountry implements spec §4.4's "Country label for the
// opportunity" rule: the shortest valid (non-empty, non-"null",
// non-"unknown") country name among the group's records, falling back
// to the first record's country, then to "unknown".
func BestCountry(group []*model.Record) string {
	invalid := map[string]struct{}{"null": {}, "unknown": {}}
	var best string
	found := false
	for _, rec := range group {
		c := strings.TrimSpace(rec.Country)
		if c == "" {
			continue
		}
		if _, bad := invalid[strings.ToLower(c)]; bad {
			continue
		}
		if !found || len(c) < len(best) {
			best = c
			found = true
		}
	}
	if found {
		return best
	}
	if len(group) > 0 && group[0].Country != "" {
		return group[0].Country
	}
	return "unknown"
}

func longestNonEmpty(group []*model.Record, pick func(*model.Record) string) string {
	var best string
	for _, rec := range group {
		v := pick(rec)
		if v == "" {
			continue
		}
		if len(v) > len(best) {
			best = v
		}
	}
	return best
}
