// Package dedup collapses opportunities that refer to the same
// underlying event+market after flattening a country's group objects,
// then re-groups and sorts what remains.
package dedup

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fahdbohli/oddsarb/internal/model"
)

// Arbitrage flattens every group's arbitrage opportunities, drops
// duplicates keyed by (complementary_set, arbitrage_percentage,
// arbitrage_sources) keeping the first occurrence, re-groups under the
// original group_id, sorts ascending by percentage within each group,
// and drops any group left with no opportunities.
func Arbitrage(groups []*model.GroupObject) []*model.GroupObject {
	byGroup := make(map[string][]*model.ArbitrageOpportunity, len(groups))
	seen := make(map[string]struct{})

	for _, g := range groups {
		for _, opp := range g.ArbOpportunities {
			key := strings.Join([]string{
				opp.ComplementarySet,
				formatFloat(opp.ArbitragePercentage),
				opp.ArbitrageSources,
			}, "\x1f")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			byGroup[g.GroupID] = append(byGroup[g.GroupID], opp)
		}
	}

	var out []*model.GroupObject
	for _, g := range groups {
		opps := byGroup[g.GroupID]
		if len(opps) == 0 {
			continue
		}
		sort.SliceStable(opps, func(i, j int) bool {
			return opps[i].ArbitragePercentage < opps[j].ArbitragePercentage
		})
		clone := *g
		clone.ArbOpportunities = opps
		out = append(out, &clone)
	}
	return out
}

// EV is Arbitrage's counterpart for +EV opportunities: keyed by
// (source, outcome, target_odd, fair_odd), sorted descending by
// overprice within each group.
func EV(groups []*model.GroupObject) []*model.GroupObject {
	byGroup := make(map[string][]*model.EVOpportunity, len(groups))
	seen := make(map[string]struct{})

	for _, g := range groups {
		for _, opp := range g.EVOpportunities {
			key := strings.Join([]string{
				opp.Source,
				opp.OddName,
				formatFloat(opp.OverpricedOddValue),
				formatFloat(opp.FairOddValue),
			}, "\x1f")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			byGroup[g.GroupID] = append(byGroup[g.GroupID], opp)
		}
	}

	var out []*model.GroupObject
	for _, g := range groups {
		opps := byGroup[g.GroupID]
		if len(opps) == 0 {
			continue
		}
		sort.SliceStable(opps, func(i, j int) bool {
			return opps[i].Overprice > opps[j].Overprice
		})
		clone := *g
		clone.EVOpportunities = opps
		out = append(out, &clone)
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
