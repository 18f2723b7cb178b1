// Package fuzzy provides the similarity-ratio and set-overlap helpers
// the team matcher and grouper fall back on once exact/canonical/phonetic
// comparisons fail.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Ratio returns a Ratcliff-Obershelp-style similarity in [0,1] for two
// strings. go-edlib has no Ratcliff-Obershelp implementation; Levenshtein
// similarity is used as the concrete ratio, normalized by edlib itself
// to [0,1] as 1 - distance / length of the longer string.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(score)
}

// JaccardWords returns |a∩b| / |a∪b| for two word sets, 0 if both empty.
func JaccardWords(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// JaccardScore is the larger of the Jaccard similarity on the two core
// word sets and the whole-string ratio on their joined form — the Go
// analogue of calculate_jaccard_score, which takes whichever signal is
// stronger rather than committing to one.
func JaccardScore(coreA, coreB map[string]struct{}) float64 {
	jaccard := JaccardWords(coreA, coreB)
	ratio := Ratio(joinSorted(coreA), joinSorted(coreB))
	if ratio > jaccard {
		return ratio
	}
	return jaccard
}

func joinSorted(words map[string]struct{}) string {
	out := make([]string, 0, len(words))
	for w := range words {
		out = append(out, w)
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}

// IntersectionOverMin returns |a∩b| / min(|a|,|b|), 0 if either is empty.
func IntersectionOverMin(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	return float64(inter) / float64(min)
}
