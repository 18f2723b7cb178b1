package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)
	nonWordPattern       = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	nonAlnumPattern      = regexp.MustCompile(`[^a-z0-9]`)
	suffixPattern        = regexp.MustCompile(`(ienne|ien|aise|ais|oise|ois|ine|in|é)$`)

	romanNumerals = []string{
		"XVIII", "XVII", "XVI", "XIII", "XIV", "XII", "XIX", "XV",
		"VIII", "VII", "III", "XII", "XIV", "XVI", "XVII", "XIX",
		"IV", "IX", "VI", "XI", "XX", "II", "V", "X",
	}
	romanPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(romanNumerals, "|") + `)\b`)

	phoneticSubs = []struct {
		pattern *regexp.Regexp
		repl    string
	}{
		{regexp.MustCompile(`k['` + "`" + `\-\s]*un`), "kun"},
		{regexp.MustCompile(`j['` + "`" + `\-\s]*in`), "jin"},
		{regexp.MustCompile(`zh['` + "`" + `\-\s]*ou`), "zhou"},
		{regexp.MustCompile(`([aeiou])['` + "`" + `]`), "$1"},
		{regexp.MustCompile(`saint`), "st"},
		{regexp.MustCompile(`fc`), ""},
		{regexp.MustCompile(`[\s\-]+`), ""},
	}
)

// Config is the immutable, process-wide configuration threaded through
// the normalizer, matcher and grouper in place of global mutable state.
type Config struct {
	ImportantTermGroups [][]string
	CommonTeamWords     map[string]struct{}
	LocationIdentifiers map[string]struct{}
}

// Normalizer holds Config plus the memoization caches for each pure
// normalization step.
type Normalizer struct {
	cfg *Config

	normCache     *memo
	canonCache    *memo
	phoneticCache *memo
	simplifyCache *memo
}

func New(cfg *Config) *Normalizer {
	return &Normalizer{
		cfg:           cfg,
		normCache:     newMemo(10000),
		canonCache:    newMemo(10000),
		phoneticCache: newMemo(5000),
		simplifyCache: newMemo(5000),
	}
}

// RemoveAccents strips Unicode combining marks after NFD decomposition.
func RemoveAccents(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize lowercases, strips accents, removes parenthetical content,
// replaces non-word characters with spaces, collapses whitespace and
// trims.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	if v, ok := n.normCache.get(s); ok {
		return v
	}
	out := normalizeTeamName(s)
	n.normCache.put(s, out)
	return out
}

func normalizeTeamName(s string) string {
	v := RemoveAccents(strings.ToLower(s))
	v = parentheticalPattern.ReplaceAllString(v, "")
	v = nonWordPattern.ReplaceAllString(v, " ")
	v = whitespacePattern.ReplaceAllString(v, " ")
	return strings.TrimSpace(v)
}

// Canonical returns normalize(s) with every non-[a-z0-9] character removed.
func (n *Normalizer) Canonical(s string) string {
	if s == "" {
		return ""
	}
	if v, ok := n.canonCache.get(s); ok {
		return v
	}
	out := nonAlnumPattern.ReplaceAllString(n.Normalize(s), "")
	n.canonCache.put(s, out)
	return out
}

// Phonetic applies the fixed substitution cascade used for fuzzy matching.
func (n *Normalizer) Phonetic(s string) string {
	if s == "" {
		return ""
	}
	if v, ok := n.phoneticCache.get(s); ok {
		return v
	}
	result := n.Normalize(s)
	for _, sub := range phoneticSubs {
		result = sub.pattern.ReplaceAllString(result, sub.repl)
	}
	n.phoneticCache.put(s, result)
	return result
}

// Simplify removes Roman numerals II–XX, then configured common team
// words and location identifiers, then strips a terminal nationality
// suffix.
func (n *Normalizer) Simplify(s string) string {
	if s == "" {
		return ""
	}
	if v, ok := n.simplifyCache.get(s); ok {
		return v
	}
	v := n.Normalize(s)
	v = romanPattern.ReplaceAllString(v, "")
	v = whitespacePattern.ReplaceAllString(v, " ")
	v = strings.TrimSpace(v)

	words := strings.Fields(v)
	filtered := words[:0:0]
	for _, w := range words {
		if n.cfg != nil {
			if _, bad := n.cfg.CommonTeamWords[w]; bad {
				continue
			}
			if _, bad := n.cfg.LocationIdentifiers[w]; bad {
				continue
			}
		}
		filtered = append(filtered, w)
	}
	result := strings.Join(filtered, " ")
	result = suffixPattern.ReplaceAllString(result, "")
	result = strings.TrimSpace(result)
	n.simplifyCache.put(s, result)
	return result
}

// CoreWords strips simplify(s) further by removing every configured
// "important term" (whole-word, case-insensitive) and returns the
// remaining word set.
func (n *Normalizer) CoreWords(s string) map[string]struct{} {
	core := n.coreName(s)
	out := make(map[string]struct{})
	for _, w := range strings.Fields(core) {
		out[w] = struct{}{}
	}
	return out
}

func (n *Normalizer) coreName(s string) string {
	simplified := n.Simplify(s)
	if n.cfg == nil {
		return simplified
	}
	result := simplified
	for _, group := range n.cfg.ImportantTermGroups {
		for _, term := range group {
			pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
			result = pattern.ReplaceAllString(result, "")
		}
	}
	result = whitespacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// ExtractSignificantWords returns the set of normalized words longer
// than 2 characters that are not common team words or location
// identifiers.
func (n *Normalizer) ExtractSignificantWords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	if s == "" {
		return out
	}
	for _, w := range strings.Fields(n.Normalize(s)) {
		if len(w) <= 2 {
			continue
		}
		if n.cfg != nil {
			if _, bad := n.cfg.CommonTeamWords[w]; bad {
				continue
			}
			if _, bad := n.cfg.LocationIdentifiers[w]; bad {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// CountryCanonical maps a country file base name (optionally
// ".json"-suffixed) to the primary name of its synonym group by exact
// or substring match, else returns the base itself.
func CountryCanonical(base string, synGroups [][]string, synPrimary map[string]string) string {
	b := base
	if strings.HasSuffix(strings.ToLower(b), ".json") {
		b = b[:len(b)-5]
	}
	if primary, ok := synPrimary[b]; ok {
		return primary
	}
	lowerB := strings.ToLower(b)
	for _, group := range synGroups {
		if len(group) == 0 {
			continue
		}
		primary := group[0]
		for _, syn := range group {
			if strings.Contains(lowerB, strings.ToLower(syn)) {
				return primary
			}
		}
	}
	return b
}

// StripTerms removes every string in terms from s (case-insensitive,
// substring — not whole-word — matching step 2's
// "strip important terms... for subsequent string comparisons").
func StripTerms(s string, terms []string) string {
	result := s
	for _, term := range terms {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		result = pattern.ReplaceAllString(result, "")
	}
	return result
}

// FlattenTermGroups returns every term across every important-term group.
func FlattenTermGroups(groups [][]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
