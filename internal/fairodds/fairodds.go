// Package fairodds removes the bookmaker's vig from a sharp source's
// odds (or a group of sharp sources, averaged) to produce the fair
// price against which the +EV analyzer measures overprice, generalized
// to arbitrary-outcome-count market sets rather than only two/three-way
// markets.
package fairodds

import "github.com/fahdbohli/oddsarb/internal/model"

// OneSharp removes vig from a single sharp source's odds for the
// outcomes in marketSet, returning nil if any outcome is missing or
// non-positive.
func OneSharp(marketSet []string, sharp *model.Record) map[string]float64 {
	values := make([]float64, len(marketSet))
	for i, outcome := range marketSet {
		v, ok := sharp.Odd(outcome)
		if !ok {
			return nil
		}
		values[i] = v
	}
	return applyVig(marketSet, values)
}

// MultiSharp averages each outcome's odd across sharpGroup (only
// sources with a positive numeric odd contribute), then removes vig
// from the averaged odds. Aborts (nil) if any single outcome ends up
// with zero contributors.
func MultiSharp(marketSet []string, sharpGroup []string, bySource map[string]*model.Record) map[string]float64 {
	values := make([]float64, len(marketSet))
	for i, outcome := range marketSet {
		sum, count := 0.0, 0
		for _, src := range sharpGroup {
			rec, ok := bySource[src]
			if !ok {
				continue
			}
			v, ok := rec.Odd(outcome)
			if !ok {
				continue
			}
			sum += v
			count++
		}
		if count == 0 {
			return nil
		}
		values[i] = sum / float64(count)
	}
	return applyVig(marketSet, values)
}

// applyVig computes vig = Σ 1/oᵢ over values and returns each
// fairᵢ = round4(oᵢ · vig). Returns nil if vig is non-positive.
func applyVig(marketSet []string, values []float64) map[string]float64 {
	vig := 0.0
	for _, v := range values {
		if v <= 0 {
			return nil
		}
		vig += 1.0 / v
	}
	if vig <= 0 {
		return nil
	}
	out := make(map[string]float64, len(marketSet))
	for i, outcome := range marketSet {
		out[outcome] = round4(values[i] * vig)
	}
	return out
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
