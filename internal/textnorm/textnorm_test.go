package textnorm

import "testing"

func testNormalizer() *Normalizer {
	return New(&Config{
		ImportantTermGroups: [][]string{
			{"U19", "U20", "Youth"},
			{"Women", "Ladies"},
		},
		CommonTeamWords:     map[string]struct{}{"fc": {}, "united": {}},
		LocationIdentifiers: map[string]struct{}{"city": {}},
	})
}

func TestNormalize(t *testing.T) {
	n := testNormalizer()
	cases := []struct {
		name, in, want string
	}{
		{"lowercases and strips accents", "Saint-Étienne", "saint etienne"},
		{"removes parenthetical content", "Arsenal (Reserves)", "arsenal"},
		{"collapses punctuation to spaces", "A.C. Milan!!", "a c milan"},
		{"collapses whitespace", "Real   Madrid", "real madrid"},
		{"empty input", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := n.Normalize(c.in); got != c.want {
				t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestNormalizeMemoized(t *testing.T) {
	n := testNormalizer()
	first := n.Normalize("Manchester United")
	second := n.Normalize("Manchester United")
	if first != second {
		t.Fatalf("memoized result changed: %q vs %q", first, second)
	}
}

func TestCanonical(t *testing.T) {
	n := testNormalizer()
	if got := n.Canonical("AC Milan"); got != "acmilan" {
		t.Errorf("Canonical = %q, want acmilan", got)
	}
}

func TestPhonetic(t *testing.T) {
	n := testNormalizer()
	cases := []struct{ in, want string }{
		{"Saint Etienne", "stetienne"},
		{"FC Barcelona", "barcelona"},
	}
	for _, c := range cases {
		if got := n.Phonetic(c.in); got != c.want {
			t.Errorf("Phonetic(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSimplifyRemovesRomanNumeralsAndConfiguredWords(t *testing.T) {
	n := testNormalizer()
	got := n.Simplify("Manchester United II")
	if got != "manchester" {
		t.Errorf("Simplify = %q, want manchester", got)
	}
}

func TestSimplifyStripsNationalitySuffix(t *testing.T) {
	n := testNormalizer()
	got := n.Simplify("Lyonnaise")
	if got != "lyonn" {
		t.Errorf("Simplify = %q, want lyonn", got)
	}
}

func TestCoreWordsRemovesImportantTerms(t *testing.T) {
	n := testNormalizer()
	core := n.CoreWords("Barcelona Women")
	if _, ok := core["women"]; ok {
		t.Error("expected important term 'women' removed from core words")
	}
	if _, ok := core["barcelona"]; !ok {
		t.Error("expected 'barcelona' to remain in core words")
	}
}

func TestExtractSignificantWords(t *testing.T) {
	n := testNormalizer()
	out := n.ExtractSignificantWords("Manchester United FC")
	if _, ok := out["fc"]; ok {
		t.Error("common team word 'fc' should be excluded")
	}
	if _, ok := out["united"]; ok {
		t.Error("common team word 'united' should be excluded")
	}
	if _, ok := out["manchester"]; !ok {
		t.Error("expected 'manchester' present")
	}
	if _, ok := out["fc"]; ok {
		t.Error("words <= 2 chars or common words must be dropped")
	}
}

func TestExtractSignificantWordsDropsShortWords(t *testing.T) {
	n := testNormalizer()
	out := n.ExtractSignificantWords("Ajax NY")
	if _, ok := out["ny"]; ok {
		t.Error("2-letter word should be dropped")
	}
	if _, ok := out["ajax"]; !ok {
		t.Error("expected 'ajax' present")
	}
}

func TestCountryCanonical(t *testing.T) {
	synGroups := [][]string{{"USA", "United States", "US"}}
	synPrimary := map[string]string{"usa": "USA"}

	cases := []struct {
		name, base, want string
	}{
		{"exact primary map hit", "usa.json", "USA"},
		{"substring synonym match", "United States of America", "USA"},
		{"no match returns base", "Brazil", "Brazil"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CountryCanonical(c.base, synGroups, synPrimary); got != c.want {
				t.Errorf("CountryCanonical(%q) = %q, want %q", c.base, got, c.want)
			}
		})
	}
}

func TestStripTerms(t *testing.T) {
	got := StripTerms("Arsenal U19 Youth", []string{"U19", "Youth"})
	want := "Arsenal  "
	if got != want {
		t.Errorf("StripTerms = %q, want %q", got, want)
	}
}

func TestFlattenTermGroups(t *testing.T) {
	groups := [][]string{{"a", "b"}, {"c"}}
	got := FlattenTermGroups(groups)
	if len(got) != 3 {
		t.Fatalf("expected 3 flattened terms, got %d", len(got))
	}
}
