// Package ev implements the +EV analyzer: for each market
// set, derive a fair odd via internal/fairodds and flag a target
// source's odd as a positive-expected-value opportunity when it
// overprices that fair odd by at least a configured minimum.
package ev

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fahdbohli/oddsarb/internal/fairodds"
	"github.com/fahdbohli/oddsarb/internal/markets"
	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/urlbuild"
)

// Method selects how fair odds are derived.
type Method string

const (
	OneSharping      Method = "ONE_SHARPING"
	MultipleSharping Method = "MULTIPLE_SHARPING"
)

// Config bundles the EV settings sourced from the sport's ev.json.
type Config struct {
	Method       Method
	SharpSource  string
	SharpGroup   []string
	TargetSource string
	OddsLo       float64
	OddsHi       float64
	MinOverprice float64
	MarketSets   markets.MarketSets
	URLs         *urlbuild.Registry
}

// AnalyzeOpportunities walks every market set in group and returns
// every +EV opportunity the target source qualifies for.
// Results are unordered; callers sort for display/dedup.
func AnalyzeOpportunities(group *model.Group, cfg Config) []*model.EVOpportunity {
	if group == nil || len(group.Records) == 0 {
		return nil
	}
	bySource := group.BySource()
	target, ok := bySource[cfg.TargetSource]
	if !ok {
		return nil
	}
	switch cfg.Method {
	case OneSharping:
		if _, ok := bySource[cfg.SharpSource]; !ok {
			return nil
		}
	case MultipleSharping:
		anySharp := false
		for _, s := range cfg.SharpGroup {
			if _, ok := bySource[s]; ok {
				anySharp = true
				break
			}
		}
		if !anySharp {
			return nil
		}
	}

	var out []*model.EVOpportunity
	for _, set := range cfg.MarketSets {
		fair := FairOddsFor(set.Outcomes, cfg, bySource)
		if fair == nil {
			continue
		}
		for _, outcome := range set.Outcomes {
			fairOdd, ok := fair[outcome]
			if !ok || fairOdd < cfg.OddsLo || fairOdd > cfg.OddsHi {
				continue
			}
			targetOdd, ok := target.Odd(outcome)
			if !ok || targetOdd <= fairOdd {
				continue
			}
			overprice := targetOdd/fairOdd - 1.0
			if overprice < cfg.MinOverprice {
				continue
			}
			out = append(out, buildOpportunity(outcome, targetOdd, fairOdd, overprice, target, cfg))
		}
	}
	return out
}

// FairOddsFor dispatches to the configured fair-odds variant for one
// market set, exported so the lifecycle manager can
// recompute fair odds for a disappeared opportunity's market at
// resolution time.
func FairOddsFor(marketSet []string, cfg Config, bySource map[string]*model.Record) map[string]float64 {
	switch cfg.Method {
	case MultipleSharping:
		return fairodds.MultiSharp(marketSet, cfg.SharpGroup, bySource)
	default:
		sharp, ok := bySource[cfg.SharpSource]
		if !ok {
			return nil
		}
		return fairodds.OneSharp(marketSet, sharp)
	}
}

func buildOpportunity(outcome string, targetOdd, fairOdd, overprice float64, target *model.Record, cfg Config) *model.EVOpportunity {
	uniqueID := target.MatchID + "-" + outcome

	matchURL := target.MatchURL
	if matchURL == "" && cfg.URLs != nil {
		matchURL = cfg.URLs.Build(cfg.TargetSource, urlbuild.MatchData{
			MatchURL:       target.MatchURL,
			Country:        target.Country,
			TournamentID:   target.TournamentID,
			TournamentName: target.TournamentName,
			MatchID:        target.MatchID,
		})
	}

	return &model.EVOpportunity{
		Source:             cfg.TargetSource,
		OddName:            outcome,
		OverpricedOddValue: targetOdd,
		FairOddValue:       round4(fairOdd),
		Overprice:          round4(overprice),
		UniqueID:           uniqueID,
		SourceMeta: map[string]any{
			"country_name":    target.Country,
			"tournament_name": target.TournamentName,
			"match_id":        urlbuild.IntOrString(target.MatchID),
			"tournament_id":   urlbuild.IntOrString(target.TournamentID),
			"match_url":       matchURL,
		},
		GroupID:  target.MatchingGroupID,
		HomeTeam: target.HomeTeam,
		AwayTeam: target.AwayTeam,
	}
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}

// MarketSetFor returns the first configured market set containing
// outcome, used when re-deriving fair odds for a specific disappeared
// opportunity.
func MarketSetFor(sets markets.MarketSets, outcome string) ([]string, bool) {
	for _, set := range sets {
		for _, o := range set.Outcomes {
			if o == outcome {
				return set.Outcomes, true
			}
		}
	}
	return nil, false
}

// SortDescendingOverprice sorts opportunities highest-overprice-first,
// the ordering requires within a deduplicated EV group.
func SortDescendingOverprice(opps []*model.EVOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool { return opps[i].Overprice > opps[j].Overprice })
}

// DedupKey is the tuple dedups EV opportunities on.
func DedupKey(o *model.EVOpportunity) string {
	return strings.Join([]string{
		o.Source, o.OddName,
		formatFloat(o.OverpricedOddValue), formatFloat(o.FairOddValue),
	}, "\x1f")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
