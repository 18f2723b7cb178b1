// Package markets generates the ordered set of market definitions
// (three_way, over/under ranges, Asian handicaps, ...) that the
// arbitrage analyzer walks in declared order to guarantee a
// deterministic "first encountered wins the tie" outcome when two
// market sets produce an equally low arbitrage percentage.
package markets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarketSet is one named betting market and its ordered outcome keys.
// Range markets get exactly 2 entries (home/away or positive/negative);
// simple markets carry the outcomes they declare (three_way has 3), so
// the length is not fixed.
type MarketSet struct {
	Name     string
	Outcomes []string
}

// MarketSets is an ordered collection: iterate it by index, never by
// building a map from it, so market-set precedence stays exactly the
// declaration order of the definitions passed to GenerateMarketSets,
// minus the ones its enabled map switches off.
type MarketSets []MarketSet

// Lookup returns the outcomes for name and whether it exists.
func (s MarketSets) Lookup(name string) ([]string, bool) {
	for _, m := range s {
		if m.Name == name {
			return m.Outcomes, true
		}
	}
	return nil, false
}

// DefinitionType distinguishes the two shapes a market definition can take.
type DefinitionType int

const (
	Simple DefinitionType = iota
	Range
)

// Definition is the Go equivalent of one entry in MARKET_DEFINITIONS.
type Definition struct {
	Name     string
	Type     DefinitionType
	Template string

	// Simple
	Outcomes []string

	// Range
	Start, End, Step float64
	UseSign          bool
	HomeTpl, AwayTpl string
}

// GenerateMarketSets expands definitions into concrete market sets,
// honoring enabled (a market absent from enabled defaults to on), and
// preserving definitions' declared order.
func GenerateMarketSets(definitions []Definition, enabled map[string]bool) MarketSets {
	var out MarketSets
	for _, def := range definitions {
		if on, ok := enabled[def.Name]; ok && !on {
			continue
		}
		switch def.Type {
		case Simple:
			out = append(out, MarketSet{Name: def.Template, Outcomes: append([]string(nil), def.Outcomes...)})
		case Range:
			out = append(out, expandRange(def)...)
		}
	}
	return out
}

func expandRange(def Definition) []MarketSet {
	var out []MarketSet
	for n := def.Start; n <= def.End+1e-9; n += def.Step {
		ns := fmtNum(n)
		var marketKey string
		var home, away string
		if def.UseSign {
			var sign, oppSign string
			if math.Abs(n) >= 1e-9 {
				if n < 0 {
					sign, oppSign = "-", ""
				} else {
					sign, oppSign = "", "-"
				}
			}
			absN := fmtNum(math.Abs(n))
			marketKey = formatTemplate(def.Template, map[string]string{"sign": sign, "n": absN})
			home = formatTemplate(def.HomeTpl, map[string]string{"sign": sign, "n": absN})
			away = formatTemplate(def.AwayTpl, map[string]string{"sign": oppSign, "n": absN})
		} else {
			marketKey = formatTemplate(def.Template, map[string]string{"n": ns})
			home = formatTemplate(def.HomeTpl, map[string]string{"n": ns})
			away = formatTemplate(def.AwayTpl, map[string]string{"n": ns})
		}
		out = append(out, MarketSet{Name: marketKey, Outcomes: []string{home, away}})
	}
	return out
}

// fmtNum formats a handicap line as 2-decimal fixed form with trailing
// zeros trimmed, forcing a ".0" back if nothing decimal remains.
func fmtNum(n float64) string {
	s := strconv.FormatFloat(n, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatTemplate(tpl string, values map[string]string) string {
	out := tpl
	for k, v := range values {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// FootballDefinitions is the concrete market catalogue for football,
// port-for-port from the three_way/handicap/over-under table.
func FootballDefinitions() []Definition {
	simple := func(name string, outcomes ...string) Definition {
		return Definition{Name: name, Type: Simple, Template: name, Outcomes: outcomes}
	}
	rng := func(name string, start, end, step float64, template, homeTpl, awayTpl string, useSign bool) Definition {
		return Definition{
			Name: name, Type: Range, Template: template,
			Start: start, End: end, Step: step,
			UseSign: useSign, HomeTpl: homeTpl, AwayTpl: awayTpl,
		}
	}

	return []Definition{
		simple("three_way", "1_odd", "draw_odd", "2_odd"),
		simple("one_vs_x2", "1_odd", "X2_odd"),
		simple("two_vs_1x", "2_odd", "1X_odd"),
		simple("x_vs_12", "draw_odd", "12_odd"),
		simple("homewin_handicap_vs_x2", "home_handicap_-0.5_odd", "X2_odd"),
		simple("awaywin_handicap_vs_1x", "away_handicap_-0.5_odd", "1X_odd"),
		simple("one_vs_x2_handicap", "1_odd", "away_handicap_0.5_odd"),
		simple("two_vs_1x_handicap", "2_odd", "home_handicap_0.5_odd"),
		simple("home_qualify_vs_away_qualify", "home_qualify_odd", "away_qualify_odd"),
		simple("both_score", "both_score_odd", "both_noscore_odd"),
		simple("home_both_halves", "home_score_both_halves_odd", "home_noscore_both_halves_odd"),
		simple("away_both_halves", "away_score_both_halves_odd", "away_noscore_both_halves_odd"),
		simple("home_second_half", "home_score_second_half_odd", "home_noscore_second_half_odd"),
		simple("away_second_half", "away_score_second_half_odd", "away_noscore_second_half_odd"),
		simple("penalty", "penalty_in_match_odd", "no_penalty_in_match_odd"),

		rng("total_over_under", 0.5, 8.5, 0.25, "under_{n}_vs_over_{n}", "under_{n}_odd", "over_{n}_odd", false),
		rng("home_team_over_under", 0.5, 8.5, 1, "home_under_{n}_vs_home_over_{n}", "home_under_{n}_odd", "home_over_{n}_odd", false),
		rng("away_team_over_under", 0.5, 8.5, 1, "away_under_{n}_vs_away_over_{n}", "away_under_{n}_odd", "away_over_{n}_odd", false),
		rng("first_half_over_under", 0.5, 8.5, 0.5, "first_half_under_{n}_vs_first_half_over_{n}", "first_half_under_{n}_odd", "first_half_over_{n}_odd", false),
		rng("second_half_over_under", 0.5, 8.5, 0.5, "second_half_under_{n}_vs_second_half_over_{n}", "second_half_under_{n}_odd", "second_half_over_{n}_odd", false),
		rng("home_first_half_over_under", 0.5, 8.5, 0.5, "home_first_half_under_{n}_vs_home_first_half_over_{n}", "home_first_half_under_{n}_odd", "home_first_half_over_{n}_odd", false),
		rng("away_first_half_over_under", 0.5, 8.5, 0.5, "away_first_half_under_{n}_vs_away_first_half_over_{n}", "away_first_half_under_{n}_odd", "away_first_half_over_{n}_odd", false),
		rng("home_second_half_over_under", 0.5, 8.5, 0.5, "home_second_half_under_{n}_vs_home_second_half_over_{n}", "home_second_half_under_{n}_odd", "home_second_half_over_{n}_odd", false),
		rng("away_second_half_over_under", 0.5, 8.5, 0.5, "away_second_half_under_{n}_vs_away_second_half_over_{n}", "away_second_half_under_{n}_odd", "away_second_half_over_{n}_odd", false),
		rng("corners_over_under", 0.5, 15.5, 0.5, "corners_under_{n}_vs_corners_over_{n}", "corners_under_{n}_odd", "corners_over_{n}_odd", false),

		rng("handicap", -8.5, 8.5, 0.25, "ah_{sign}{n}_home_vs_away", "home_handicap_{sign}{n}_odd", "away_handicap_{sign}{n}_odd", true),
		rng("first_half_handicap", -8.5, 8.5, 0.25, "first_half_ah_{sign}{n}_home_vs_away", "home_first_half_handicap_{sign}{n}_odd", "away_first_half_handicap_{sign}{n}_odd", true),
		rng("second_half_handicap", -8.5, 8.5, 0.25, "second_half_ah_{sign}{n}_home_vs_away", "home_second_half_handicap_{sign}{n}_odd", "away_second_half_handicap_{sign}{n}_odd", true),
	}
}

// AllEnabled builds an enabled-map that turns every named definition on,
// the default posture of ENABLED_MARKETS in the source catalogue.
func AllEnabled(definitions []Definition) map[string]bool {
	out := make(map[string]bool, len(definitions))
	for _, d := range definitions {
		out[d.Name] = true
	}
	return out
}

// String renders a MarketSets value for debugging/logging.
func (s MarketSets) String() string {
	var b strings.Builder
	for i, m := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s%v", m.Name, m.Outcomes)
	}
	return b.String()
}
