package grouper

import (
	"testing"

	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/textnorm"
)

// fakeMatcher scores two team names 1.0 if they're equal case-insensitive,
// else a configurable overlap score, so grouper tests don't depend on the
// real matching/fuzzy stack.
type fakeMatcher struct {
	synonyms map[string]string // lowercase name -> canonical group
	score    map[[2]string]float64
}

func newFakeMatcher() *fakeMatcher {
	return &fakeMatcher{synonyms: map[string]string{}, score: map[[2]string]float64{}}
}

func (f *fakeMatcher) CheckTeamSynonyms(a, b string) bool {
	ca, oka := f.synonyms[lower(a)]
	cb, okb := f.synonyms[lower(b)]
	return oka && okb && ca == cb
}

func (f *fakeMatcher) JaccardScore(a, b string) float64 {
	if lower(a) == lower(b) {
		return 1.0
	}
	if s, ok := f.score[[2]string{lower(a), lower(b)}]; ok {
		return s
	}
	if s, ok := f.score[[2]string{lower(b), lower(a)}]; ok {
		return s
	}
	return 0
}

func lower(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		out = append(out, r)
	}
	return string(out)
}

func testConfig() *Config {
	return &Config{
		DayDiffTolerance:    1,
		TimeDiffTolerance:   15,
		GatekeeperThreshold: 0.55,
		StrongThreshold:     []float64{0.85, 0.75},
		ModerateThreshold:   []float64{0.65, 0.55},
	}
}

func rec(source, home, away, date, clock, id string) *model.Record {
	return &model.Record{Source: source, HomeTeam: home, AwayTeam: away, Date: date, Time: clock, MatchID: id}
}

func TestFindAllMatchingMatches_IdenticalFixtureAcrossSources(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	g := New(n, m, nil, testConfig())

	bySource := map[string][]*model.Record{
		"bet365": {rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b1")},
		"pinnacle": {
			rec("pinnacle", "Arsenal", "Chelsea", "2026-08-01", "18:00", "p1"),
		},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Records) != 2 {
		t.Fatalf("expected 2 records in group, got %d", len(groups[0].Records))
	}
}

func TestFindAllMatchingMatches_SameSourceDuplicateSignature(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	g := New(n, m, nil, testConfig())

	// One source lists the same fixture twice under different match
	// IDs (a re-scrape artifact). A group holds at most one record per
	// source, so the exact-signature pass must not group the two
	// duplicates with each other.
	bySource := map[string][]*model.Record{
		"bet365": {
			rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b1"),
			rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b2"),
		},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 0 {
		t.Fatalf("expected no group from a same-source duplicate signature, got %d", len(groups))
	}
	for _, r := range bySource["bet365"] {
		if r.MatchingGroupID != "" {
			t.Fatalf("expected %s left ungrouped, got group id %q", r.MatchID, r.MatchingGroupID)
		}
	}
}

func TestFindAllMatchingMatches_FuzzyFallback(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	m.score[[2]string{"arsenal", "arsenal fc"}] = 0.9
	m.score[[2]string{"chelsea", "chelsea fc"}] = 0.8
	g := New(n, m, nil, testConfig())

	bySource := map[string][]*model.Record{
		"bet365":   {rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b1")},
		"pinnacle": {rec("pinnacle", "Arsenal FC", "Chelsea FC", "2026-08-01", "18:10", "p1")},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group from fuzzy fallback, got %d", len(groups))
	}
}

func TestFindAllMatchingMatches_RejectsBeyondDayTolerance(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	m.score[[2]string{"arsenal", "arsenal fc"}] = 0.9
	m.score[[2]string{"chelsea", "chelsea fc"}] = 0.8
	g := New(n, m, nil, testConfig())

	bySource := map[string][]*model.Record{
		"bet365":   {rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b1")},
		"pinnacle": {rec("pinnacle", "Arsenal FC", "Chelsea FC", "2026-08-05", "18:00", "p1")},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 0 {
		t.Fatalf("expected no group across tolerance boundary, got %d", len(groups))
	}
}

func TestFindAllMatchingMatches_RejectsBelowGatekeeper(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	m.score[[2]string{"arsenal", "real madrid"}] = 0.1
	g := New(n, m, nil, testConfig())

	bySource := map[string][]*model.Record{
		"bet365":   {rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b1")},
		"pinnacle": {rec("pinnacle", "Real Madrid", "Barcelona", "2026-08-01", "18:00", "p1")},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 0 {
		t.Fatalf("expected no group below gatekeeper threshold, got %d", len(groups))
	}
}

func TestFindAllMatchingMatches_EachRecordUsedAtMostOnce(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	g := New(n, m, nil, testConfig())

	bySource := map[string][]*model.Record{
		"bet365": {
			rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "b1"),
		},
		"pinnacle": {
			rec("pinnacle", "Arsenal", "Chelsea", "2026-08-01", "18:00", "p1"),
		},
		"marathonbet": {
			rec("marathonbet", "Arsenal", "Chelsea", "2026-08-01", "18:00", "m1"),
		},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Records) != 3 {
		t.Fatalf("expected all 3 sources in one group, got %d", len(groups[0].Records))
	}
}

func TestFindAllMatchingMatches_GroupIDDeterministic(t *testing.T) {
	n := textnorm.New(&textnorm.Config{})
	m := newFakeMatcher()
	g := New(n, m, nil, testConfig())

	bySource := map[string][]*model.Record{
		"bet365":   {rec("bet365", "Arsenal", "Chelsea", "2026-08-01", "18:00", "bbb")},
		"pinnacle": {rec("pinnacle", "Arsenal", "Chelsea", "2026-08-01", "18:00", "aa")},
	}

	groups := g.FindAllMatchingMatches(bySource)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	// Longer id sorts first, equal length falls back to lexicographic.
	if groups[0].ID != "bbb-aa" {
		t.Errorf("GroupID = %q, want %q", groups[0].ID, "bbb-aa")
	}
	for _, r := range groups[0].Records {
		if r.MatchingGroupID != groups[0].ID {
			t.Errorf("record %s MatchingGroupID not stamped", r.MatchID)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"d/m/Y slash form", "01/08/2026", true},
		{"ISO form", "2026-08-01", true},
		{"empty", "", false},
		{"garbage", "not-a-date", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, ok := ParseDate(c.in)
			if ok != c.ok {
				t.Errorf("ParseDate(%q) ok = %v, want %v", c.in, ok, c.ok)
			}
		})
	}
}
