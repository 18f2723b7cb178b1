package arbitrage

import (
	"testing"

	"github.com/fahdbohli/oddsarb/internal/markets"
	"github.com/fahdbohli/oddsarb/internal/model"
)

func odds(pairs ...any) map[string]float64 {
	out := map[string]float64{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i].(string)] = pairs[i+1].(float64)
	}
	return out
}

func TestAnalyzeOptimalArbitrage_FindsArbitrage(t *testing.T) {
	group := []*model.Record{
		{Source: "bet365", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 2.2, "draw_odd", 3.4, "2_odd", 4.0)},
		{Source: "pinnacle", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 1.9, "draw_odd", 3.9, "2_odd", 4.5)},
	}
	cfg := Config{MarketSets: markets.MarketSets{
		{Name: "three_way", Outcomes: []string{"1_odd", "draw_odd", "2_odd"}},
	}}

	opp := AnalyzeOptimalArbitrage(group, cfg)
	if opp == nil {
		t.Fatal("expected an arbitrage opportunity")
	}
	if opp.ComplementarySet != "three_way" {
		t.Errorf("ComplementarySet = %q, want three_way", opp.ComplementarySet)
	}
	// Best odds: 1_odd=2.2 (bet365), draw_odd=3.9 (pinnacle), 2_odd=4.5 (pinnacle)
	// total = 1/2.2 + 1/3.9 + 1/4.5 = 0.4545 + 0.2564 + 0.2222 = 0.9332 < 1
	if opp.ArbitragePercentage <= 0 || opp.ArbitragePercentage >= 1 {
		t.Errorf("ArbitragePercentage = %v, want in (0, 1)", opp.ArbitragePercentage)
	}
}

func TestAnalyzeOptimalArbitrage_NoArbitrageWhenOverroundPositive(t *testing.T) {
	group := []*model.Record{
		{Source: "bet365", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 1.5, "draw_odd", 3.0, "2_odd", 4.0)},
		{Source: "pinnacle", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 1.4, "draw_odd", 2.9, "2_odd", 3.8)},
	}
	cfg := Config{MarketSets: markets.MarketSets{
		{Name: "three_way", Outcomes: []string{"1_odd", "draw_odd", "2_odd"}},
	}}

	opp := AnalyzeOptimalArbitrage(group, cfg)
	if opp != nil {
		t.Fatalf("expected no arbitrage, got %+v", opp)
	}
}

func TestAnalyzeOptimalArbitrage_RequiresTwoDistinctSources(t *testing.T) {
	group := []*model.Record{
		{Source: "bet365", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 2.2, "draw_odd", 3.9, "2_odd", 4.5)},
	}
	cfg := Config{MarketSets: markets.MarketSets{
		{Name: "three_way", Outcomes: []string{"1_odd", "draw_odd", "2_odd"}},
	}}
	// A single-record group never reaches AnalyzeOptimalArbitrage's
	// >= 2 check in practice (the grouper never emits size-1 groups),
	// but the function itself must not panic or fabricate an opportunity.
	opp := AnalyzeOptimalArbitrage(group, cfg)
	if opp != nil {
		t.Fatalf("expected nil for a single-record group, got %+v", opp)
	}
}

func TestAnalyzeOptimalArbitrage_SkipsMarketWithMissingOutcome(t *testing.T) {
	group := []*model.Record{
		{Source: "bet365", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 2.2, "draw_odd", 3.4)},
		{Source: "pinnacle", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 1.9, "draw_odd", 3.9)},
	}
	cfg := Config{MarketSets: markets.MarketSets{
		{Name: "three_way", Outcomes: []string{"1_odd", "draw_odd", "2_odd"}}, // 2_odd missing everywhere
		{Name: "one_vs_x2", Outcomes: []string{"1_odd", "X2_odd"}},            // X2_odd missing everywhere
	}}

	opp := AnalyzeOptimalArbitrage(group, cfg)
	if opp != nil {
		t.Fatalf("expected nil when every market set has an unfillable outcome, got %+v", opp)
	}
}

func TestAnalyzeOptimalArbitrage_PicksLowestArbitrageAcrossSets(t *testing.T) {
	group := []*model.Record{
		{Source: "bet365", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 2.2, "draw_odd", 3.0, "2_odd", 4.0, "X2_odd", 1.3)},
		{Source: "pinnacle", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Odds: odds("1_odd", 1.9, "draw_odd", 3.9, "2_odd", 4.5, "X2_odd", 1.35)},
	}
	// one_vs_x2 (1_odd=2.2, X2_odd=1.35): 1/2.2 + 1/1.35 = 0.4545 + 0.7407 = 1.195 -> not an arbitrage.
	// three_way (1_odd=2.2, draw_odd=3.9, 2_odd=4.5): ~0.933 -> an arbitrage, should be chosen.
	cfg := Config{MarketSets: markets.MarketSets{
		{Name: "one_vs_x2", Outcomes: []string{"1_odd", "X2_odd"}},
		{Name: "three_way", Outcomes: []string{"1_odd", "draw_odd", "2_odd"}},
	}}

	opp := AnalyzeOptimalArbitrage(group, cfg)
	if opp == nil {
		t.Fatal("expected an arbitrage opportunity")
	}
	if opp.ComplementarySet != "three_way" {
		t.Errorf("ComplementarySet = %q, want three_way", opp.ComplementarySet)
	}
}

func TestAnalyzeOptimalArbitrage_UniqueIDDeterministic(t *testing.T) {
	group := []*model.Record{
		{Source: "bet365", HomeTeam: "Arsenal", AwayTeam: "Chelsea", MatchID: "bbb", Odds: odds("1_odd", 2.2, "draw_odd", 3.4, "2_odd", 4.0)},
		{Source: "pinnacle", HomeTeam: "Arsenal", AwayTeam: "Chelsea", MatchID: "aa", Odds: odds("1_odd", 1.9, "draw_odd", 3.9, "2_odd", 4.5)},
	}
	cfg := Config{MarketSets: markets.MarketSets{
		{Name: "three_way", Outcomes: []string{"1_odd", "draw_odd", "2_odd"}},
	}}

	opp := AnalyzeOptimalArbitrage(group, cfg)
	if opp == nil {
		t.Fatal("expected an arbitrage opportunity")
	}
	if opp.UniqueID != "bbb-aa" {
		t.Errorf("UniqueID = %q, want bbb-aa", opp.UniqueID)
	}
}
