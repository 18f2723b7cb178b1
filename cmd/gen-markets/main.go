// Command gen-markets regenerates settings/{sport}/market_sets.json
// from internal/markets' football market catalogue. Output is a JSON
// array (not an object keyed by market name) so declaration order
// survives round-tripping, since internal/markets.MarketSets depends
// on exact order for its first-encountered-wins tie-break.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fahdbohli/oddsarb/internal/markets"
)

func main() {
	out := flag.String("out", "settings/football/market_sets.json", "output path")
	flag.Parse()

	defs := markets.FootballDefinitions()
	sets := markets.GenerateMarketSets(defs, markets.AllEnabled(defs))

	type entry struct {
		Name     string   `json:"name"`
		Outcomes []string `json:"outcomes"`
	}
	type file struct {
		MarketSets []entry `json:"market_sets"`
	}

	f := file{MarketSets: make([]entry, 0, len(sets))}
	for _, s := range sets {
		f.MarketSets = append(f.MarketSets, entry{Name: s.Name, Outcomes: s.Outcomes})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		os.Stderr.WriteString("marshal market sets: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		os.Stderr.WriteString("write " + *out + ": " + err.Error() + "\n")
		os.Exit(1)
	}
	fmt.Printf("%s generated, %d market sets\n", *out, len(f.MarketSets))
}
