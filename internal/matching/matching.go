// Package matching implements the team-name equivalence cascade: the
// sequence of increasingly permissive comparisons the grouper and
// fixture matcher use to decide two team-name strings name the same
// team.
package matching

import (
	"regexp"
	"strings"

	"github.com/fahdbohli/oddsarb/internal/fuzzy"
	"github.com/fahdbohli/oddsarb/internal/textnorm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// Config holds the team-matching thresholds and vocabularies, threaded
// explicitly instead of living as package-level globals.
type Config struct {
	ImportantTermGroups [][]string
	TeamSynonyms        [][]string
	FuzzyThreshold      float64 // default 0.5 when zero
}

func (c *Config) threshold() float64 {
	if c.FuzzyThreshold > 0 {
		return c.FuzzyThreshold
	}
	return 0.5
}

// Matcher is the stateful (cache-bearing) team-name comparator.
type Matcher struct {
	norm *textnorm.Normalizer
	cfg  *Config
}

func New(norm *textnorm.Normalizer, cfg *Config) *Matcher {
	return &Matcher{norm: norm, cfg: cfg}
}

func (m *Matcher) fuzzyMatch(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}
	return fuzzy.Ratio(strings.ToLower(a), strings.ToLower(b)) >= threshold
}

// checkPresence is the symmetric important-term presence gate: every
// important-term group that appears anywhere in source must also show
// up, via any term in that group's relevant cluster, in target.
func (m *Matcher) checkPresence(sourceLower, targetLower string) bool {
	present := map[string]struct{}{}
	for _, group := range m.cfg.ImportantTermGroups {
		for _, term := range group {
			tl := strings.ToLower(term)
			if strings.Contains(sourceLower, tl) {
				present[tl] = struct{}{}
			}
		}
	}
	if len(present) == 0 {
		return true
	}
	for _, group := range m.cfg.ImportantTermGroups {
		relevant, inTarget := false, false
		for _, term := range group {
			tl := strings.ToLower(term)
			if _, ok := present[tl]; ok {
				relevant = true
			}
			if strings.Contains(targetLower, tl) {
				inTarget = true
			}
		}
		if relevant && !inTarget {
			return false
		}
	}
	return true
}

// CheckTeamSynonyms reports whether t1 and t2 each contain a synonym
// from the same synonym group.
func (m *Matcher) CheckTeamSynonyms(t1, t2 string) bool {
	n1 := m.norm.Normalize(t1)
	n2 := m.norm.Normalize(t2)
	for _, group := range m.cfg.TeamSynonyms {
		found1, found2 := false, false
		for _, syn := range group {
			sl := strings.ToLower(syn)
			if strings.Contains(n1, sl) {
				found1 = true
			}
			if strings.Contains(n2, sl) {
				found2 = true
			}
		}
		if found1 && found2 {
			return true
		}
	}
	return false
}

// JaccardScore combines core-word Jaccard overlap with a whole-string
// fuzzy ratio on the joined core names, taking whichever is stronger.
func (m *Matcher) JaccardScore(name1, name2 string) float64 {
	core1 := m.norm.CoreWords(name1)
	core2 := m.norm.CoreWords(name2)
	if len(core1) == 0 || len(core2) == 0 {
		return 0
	}
	return fuzzy.JaccardScore(core1, core2)
}

func stripImportantTerms(s string, groups [][]string) string {
	result := s
	for _, group := range groups {
		for _, term := range group {
			pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
			result = pattern.ReplaceAllString(result, "")
		}
	}
	return result
}

// TeamsMatch decides whether t1 and t2 name the same team, via the
// full fallback cascade: presence gate, exact/canonical/phonetic
// equality, fuzzy ratio (whole-name, phonetic, single-vs-multi-word,
// short-name), synonym co-occurrence, simplified-name equality, and
// significant-word overlap.
func (m *Matcher) TeamsMatch(t1, t2 string) bool {
	if t1 == "" || t2 == "" {
		return false
	}
	t1Lower := strings.ToLower(t1)
	t2Lower := strings.ToLower(t2)

	if !(m.checkPresence(t1Lower, t2Lower) && m.checkPresence(t2Lower, t1Lower)) {
		return false
	}

	comp1 := stripImportantTerms(t1, m.cfg.ImportantTermGroups)
	comp2 := stripImportantTerms(t2, m.cfg.ImportantTermGroups)

	n1 := m.norm.Normalize(comp1)
	n2 := m.norm.Normalize(comp2)
	if n1 == n2 {
		return true
	}

	c1 := m.norm.Canonical(comp1)
	c2 := m.norm.Canonical(comp2)
	if c1 != "" && c1 == c2 {
		return true
	}

	p1 := m.norm.Phonetic(comp1)
	p2 := m.norm.Phonetic(comp2)
	if p1 != "" && p1 == p2 {
		return true
	}

	threshold := m.cfg.threshold()
	if m.fuzzyMatch(n1, n2, threshold) {
		return true
	}
	if len(p1) > 5 && len(p2) > 5 && m.fuzzyMatch(p1, p2, threshold) {
		return true
	}

	w1 := strings.Fields(n1)
	w2 := strings.Fields(n2)
	if len(w1) == 1 && len(w2) > 1 {
		for _, other := range w2 {
			if m.fuzzyMatch(w1[0], other, threshold) ||
				m.fuzzyMatch(m.norm.Phonetic(w1[0]), m.norm.Phonetic(other), threshold) {
				return true
			}
		}
	}
	if len(w2) == 1 && len(w1) > 1 {
		for _, other := range w1 {
			if m.fuzzyMatch(w2[0], other, threshold) ||
				m.fuzzyMatch(m.norm.Phonetic(w2[0]), m.norm.Phonetic(other), threshold) {
				return true
			}
		}
	}

	if len(n1) <= 5 || len(n2) <= 5 {
		if m.fuzzyMatch(n1, n2, 0.5) {
			return true
		}
	}

	if m.CheckTeamSynonyms(t1, t2) {
		return true
	}

	s1 := m.norm.Simplify(comp1)
	s2 := m.norm.Simplify(comp2)
	if s1 != "" && s2 != "" && (s1 == s2 || m.fuzzyMatch(s1, s2, threshold)) {
		return true
	}

	sig1 := m.norm.ExtractSignificantWords(comp1)
	sig2 := m.norm.ExtractSignificantWords(comp2)
	if len(sig1) > 0 && len(sig2) > 0 {
		if len(sig1) == 1 && len(sig2) == 1 {
			w1Clean := nonAlnum.ReplaceAllString(firstOf(sig1), "")
			w2Clean := nonAlnum.ReplaceAllString(firstOf(sig2), "")
			if w1Clean == w2Clean || m.fuzzyMatch(w1Clean, w2Clean, 0.8) {
				return true
			}
			if m.norm.Phonetic(w1Clean) == m.norm.Phonetic(w2Clean) {
				return true
			}
		}
		norm1 := cleanSet(sig1)
		norm2 := cleanSet(sig2)
		if inter := fuzzy.IntersectionOverMin(norm1, norm2); inter > 0.5 {
			return true
		}
		ph1 := phoneticSet(m.norm, sig1)
		ph2 := phoneticSet(m.norm, sig2)
		if inter := fuzzy.IntersectionOverMin(ph1, ph2); inter > 0.5 {
			return true
		}
	}

	return false
}

func firstOf(set map[string]struct{}) string {
	for w := range set {
		return w
	}
	return ""
}

func cleanSet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for w := range set {
		out[nonAlnum.ReplaceAllString(w, "")] = struct{}{}
	}
	return out
}

func phoneticSet(n *textnorm.Normalizer, set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for w := range set {
		out[n.Phonetic(w)] = struct{}{}
	}
	return out
}
