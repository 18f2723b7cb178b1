// Package confirmation implements the arbitrage-only confirmation gate:
// an opportunity is withheld until every contributing source has
// refreshed its batch since the opportunity's birth time, and gains an
// activity duration once confirmed.
package confirmation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fahdbohli/oddsarb/internal/apperr"
	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/telemetry"
)

// Gate tracks unconfirmed opportunities' birth times and confirmed
// opportunities' first-seen activity records across cycles.
type Gate struct {
	Enabled bool

	Unconfirmed map[string]*model.UnconfirmedOpportunity
	Activity    map[string]*model.ActivityEntry
}

func New(enabled bool) *Gate {
	return &Gate{
		Enabled:     enabled,
		Unconfirmed: map[string]*model.UnconfirmedOpportunity{},
		Activity:    map[string]*model.ActivityEntry{},
	}
}

// Load reads the unconfirmed-opportunities and activity-tracker cache
// files, treating unreadable files as empty.
func Load(enabled bool, unconfirmedPath, activityPath string) *Gate {
	g := New(enabled)
	loadJSON(unconfirmedPath, &g.Unconfirmed)
	loadJSON(activityPath, &g.Activity)
	return g
}

func loadJSON(path string, out any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		telemetry.Warnf("%v", apperr.Wrap(apperr.CacheUnreadable, "parse "+path, err))
	}
}

// Save atomically persists both caches (write-to-temp + rename).
func (g *Gate) Save(unconfirmedPath, activityPath string) error {
	for path, v := range map[string]any{unconfirmedPath: g.Unconfirmed, activityPath: g.Activity} {
		if err := writeJSONAtomic(path, v); err != nil {
			return apperr.Wrap(apperr.IOWrite, "save "+path, err)
		}
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		if err2 := os.WriteFile(tmp, data, 0o644); err2 != nil {
			return err2
		}
	}
	return os.Rename(tmp, path)
}

// Process filters opps down to confirmed ones (or, when the gate is
// disabled, all of them), stamping ActivityDuration on each and
// withholding the rest in Unconfirmed for a future cycle.
func (g *Gate) Process(opps []*model.ArbitrageOpportunity, lastUpdated map[string]time.Time, now time.Time) []*model.ArbitrageOpportunity {
	var confirmed []*model.ArbitrageOpportunity
	for _, opp := range opps {
		uid := opp.UniqueID
		if uid == "" {
			continue
		}

		var birthTime time.Time
		isConfirmed := true

		if g.Enabled {
			if u, ok := g.Unconfirmed[uid]; ok {
				birthTime = u.BirthTime
			} else if a, ok := g.Activity[uid]; ok {
				birthTime = a.FirstSeen
			} else {
				birthTime = birthFromSources(opp.ArbitrageSources, lastUpdated, now)
			}
			isConfirmed = allSourcesUpdatedSince(opp.ArbitrageSources, lastUpdated, birthTime)
		} else {
			birthTime = now
		}

		if !isConfirmed {
			g.Unconfirmed[uid] = &model.UnconfirmedOpportunity{
				BirthTime:       birthTime,
				OpportunityData: opportunityToMap(opp),
			}
			continue
		}
		delete(g.Unconfirmed, uid)

		entry, existed := g.Activity[uid]
		if !existed {
			entry = &model.ActivityEntry{FirstSeen: birthTime}
			g.Activity[uid] = entry
		}
		opp.ActivityDuration = FormatDuration(now.Sub(entry.FirstSeen))
		confirmed = append(confirmed, opp)
	}
	return confirmed
}

// Prune drops unconfirmed entries for uids absent from current, and
// activity entries for absent uids unless they still carry an
// unfinished appearance-investigation log.
func (g *Gate) Prune(current map[string]struct{}) {
	for uid := range g.Unconfirmed {
		if _, ok := current[uid]; !ok {
			delete(g.Unconfirmed, uid)
		}
	}
	for uid, entry := range g.Activity {
		if _, ok := current[uid]; ok {
			continue
		}
		if entry.AppearanceLog != nil {
			continue
		}
		delete(g.Activity, uid)
	}
}

func birthFromSources(sourcesCSV string, lastUpdated map[string]time.Time, now time.Time) time.Time {
	var latest time.Time
	found := false
	for _, src := range splitSources(sourcesCSV) {
		if t, ok := lastUpdated[src]; ok {
			if !found || t.After(latest) {
				latest = t
				found = true
			}
		}
	}
	if !found {
		return now
	}
	return latest
}

func allSourcesUpdatedSince(sourcesCSV string, lastUpdated map[string]time.Time, birth time.Time) bool {
	for _, src := range splitSources(sourcesCSV) {
		t, ok := lastUpdated[src]
		if !ok || t.Before(birth) {
			return false
		}
	}
	return true
}

func splitSources(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func opportunityToMap(opp *model.ArbitrageOpportunity) map[string]any {
	data, _ := json.Marshal(opp)
	var out map[string]any
	json.Unmarshal(data, &out)
	return out
}

// FormatDuration renders a duration for display: seconds, then rounded
// minutes, then rounded hours as the magnitude grows.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return strconv.Itoa(round(seconds)) + " seconds"
	}
	minutes := round(seconds / 60)
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return strconv.Itoa(minutes) + " minutes"
	}
	hours := round(float64(minutes) / 60)
	if hours == 1 {
		return "1 hour"
	}
	return strconv.Itoa(hours) + " hours"
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
