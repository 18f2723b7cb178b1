// Package grouper implements the two-pass fixture-matching algorithm
// that turns per-source batches of Records into cross-source Matching
// Groups: an exact-signature bucketing pass followed by a fuzzy
// best-candidate pass, each unprocessed record considered at most once
// per source pair.
package grouper

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/textnorm"
)

// Config holds the grouper's tunable tolerances.
type Config struct {
	DayDiffTolerance   int
	TimeDiffTolerance  float64 // minutes
	GatekeeperThreshold float64
	// StrongThreshold/ModerateThreshold are zipped pairwise: a pair
	// passes if either side clears Strong while the other clears
	// Moderate, for any one of these threshold pairs.
	StrongThreshold   []float64
	ModerateThreshold []float64
}

// teamMatcher is satisfied by both *matching.Matcher and
// *matchcache.Cache, so the grouper can run against either the bare
// matcher or a memoized wrapper without caring which.
type teamMatcher interface {
	CheckTeamSynonyms(t1, t2 string) bool
	JaccardScore(name1, name2 string) float64
}

// Grouper runs the two-pass matching algorithm.
type Grouper struct {
	norm    *textnorm.Normalizer
	matcher teamMatcher
	cfg     *Config

	importantTermGroups [][]string
}

func New(norm *textnorm.Normalizer, matcher teamMatcher, importantTermGroups [][]string, cfg *Config) *Grouper {
	return &Grouper{norm: norm, matcher: matcher, importantTermGroups: importantTermGroups, cfg: cfg}
}

// ParseDate mirrors parse_date's tolerant multi-format parsing: first
// tries a bare d/m/Y split, then a fixed list of layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if parts := strings.Split(s, "/"); len(parts) == 3 {
		d, derr := strconv.Atoi(parts[0])
		mo, merr := strconv.Atoi(parts[1])
		y, yerr := strconv.Atoi(parts[2])
		if derr == nil && merr == nil && yerr == nil {
			t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
			if t.Year() == y && int(t.Month()) == mo && t.Day() == d {
				return t, true
			}
		}
	}
	layouts := []string{"02/01/2006", "2006-01-02", "01/02/2006", "02-01-2006", "02.01.2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sigKey(norm *textnorm.Normalizer, r *model.Record) string {
	return strings.Join([]string{
		norm.Normalize(r.HomeTeam),
		norm.Normalize(r.AwayTeam),
		r.Date,
		strings.TrimSpace(r.Time),
	}, "\x1f")
}

// FindAllMatchingMatches groups records across sources, following
// exact-signature bucketing before the fuzzy fallback pass, and
// assigns each resulting group's members a deterministic
// MatchingGroupID.
func (g *Grouper) FindAllMatchingMatches(bySource map[string][]*model.Record) []*model.Group {
	sources := make([]string, 0, len(bySource))
	for src := range bySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	processed := make(map[string]map[string]struct{}, len(sources))
	for _, src := range sources {
		processed[src] = make(map[string]struct{})
	}

	var rawGroups [][]*model.Record

	// STEP 1: exact signature buckets across all sources, keeping at
	// most one record per source in each bucket (the first one seen).
	buckets := make(map[string][]*model.Record)
	order := make([]string, 0)
	for _, src := range sources {
		for _, rec := range bySource[src] {
			key := sigKey(g.norm, rec)
			bucket, ok := buckets[key]
			if !ok {
				order = append(order, key)
			}
			if len(bucket) > 0 && bucket[len(bucket)-1].Source == rec.Source {
				continue
			}
			buckets[key] = append(bucket, rec)
		}
	}
	for _, key := range order {
		bucket := buckets[key]
		if len(bucket) > 1 {
			for _, rec := range bucket {
				processed[rec.Source][rec.MatchID] = struct{}{}
			}
			rawGroups = append(rawGroups, bucket)
		}
	}

	// STEP 2: fuzzy pass.
	for _, src1 := range sources {
		for _, m1 := range bySource[src1] {
			if _, done := processed[src1][m1.MatchID]; done {
				continue
			}
			processed[src1][m1.MatchID] = struct{}{}
			group := []*model.Record{m1}

			for _, src2 := range sources {
				if src2 == src1 {
					continue
				}
				var best *model.Record
				bestScore := 0.0

				for _, m2 := range bySource[src2] {
					if _, done := processed[src2][m2.MatchID]; done {
						continue
					}

					d1, ok1 := ParseDate(m1.Date)
					d2, ok2 := ParseDate(m2.Date)
					if !ok1 || !ok2 {
						continue
					}
					dayDiff := int(d1.Sub(d2).Hours() / 24)
					if dayDiff < 0 {
						dayDiff = -dayDiff
					}
					if dayDiff > g.cfg.DayDiffTolerance {
						continue
					}

					t1s, t2s := strings.TrimSpace(m1.Time), strings.TrimSpace(m2.Time)
					if ct1, ok1 := parseClock(t1s); ok1 {
						if ct2, ok2 := parseClock(t2s); ok2 {
							diffMin := ct1.Sub(ct2).Minutes()
							if diffMin < 0 {
								diffMin = -diffMin
							}
							if diffMin > g.cfg.TimeDiffTolerance {
								continue
							}
						} else if t1s != t2s {
							continue
						}
					} else if t1s != t2s {
						continue
					}

					text1 := strings.ToLower(m1.HomeTeam + " " + m1.AwayTeam)
					text2 := strings.ToLower(m2.HomeTeam + " " + m2.AwayTeam)
					if g.importantTermsDiffer(text1, text2) {
						continue
					}

					homeScore := g.pairScore(m1.HomeTeam, m2.HomeTeam)
					awayScore := g.pairScore(m1.AwayTeam, m2.AwayTeam)
					minScore := homeScore
					if awayScore < minScore {
						minScore = awayScore
					}
					if minScore < g.cfg.GatekeeperThreshold {
						continue
					}

					if !g.passesThresholdPairs(homeScore, awayScore) {
						continue
					}

					avg := (homeScore + awayScore) / 2
					if avg > bestScore {
						bestScore = avg
						best = m2
					}
				}

				if best != nil {
					group = append(group, best)
					processed[best.Source][best.MatchID] = struct{}{}
				}
			}

			if len(group) > 1 {
				rawGroups = append(rawGroups, group)
			}
		}
	}

	// STEP 3: annotate and build Group objects.
	out := make([]*model.Group, 0, len(rawGroups))
	for _, members := range rawGroups {
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.MatchID
		}
		sort.Slice(ids, func(i, j int) bool {
			if len(ids[i]) != len(ids[j]) {
				return len(ids[i]) > len(ids[j])
			}
			return ids[i] < ids[j]
		})
		groupID := strings.Join(ids, "-")
		for _, m := range members {
			m.MatchingGroupID = groupID
		}
		out = append(out, &model.Group{ID: groupID, Records: members})
	}
	return out
}

func (g *Grouper) pairScore(a, b string) float64 {
	if g.matcher.CheckTeamSynonyms(a, b) {
		return 1.0
	}
	return g.matcher.JaccardScore(a, b)
}

func (g *Grouper) passesThresholdPairs(homeScore, awayScore float64) bool {
	n := len(g.cfg.StrongThreshold)
	if n > len(g.cfg.ModerateThreshold) {
		n = len(g.cfg.ModerateThreshold)
	}
	for i := 0; i < n; i++ {
		strong := g.cfg.StrongThreshold[i]
		moderate := g.cfg.ModerateThreshold[i]
		if (homeScore >= strong && awayScore >= moderate) || (awayScore >= strong && homeScore >= moderate) {
			return true
		}
	}
	return false
}

func (g *Grouper) importantTermsDiffer(text1, text2 string) bool {
	for _, group := range g.importantTermGroups {
		in1 := false
		in2 := false
		for _, term := range group {
			tl := strings.ToLower(term)
			if strings.Contains(text1, tl) {
				in1 = true
			}
			if strings.Contains(text2, tl) {
				in2 = true
			}
		}
		if in1 != in2 {
			return true
		}
	}
	return false
}

// DebugSignature returns the quoted exact-signature key sigKey builds
// for r, for debugging output.
func DebugSignature(norm *textnorm.Normalizer, r *model.Record) string {
	return fmt.Sprintf("%q", sigKey(norm, r))
}
