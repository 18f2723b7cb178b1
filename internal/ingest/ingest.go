// Package ingest reads per-source, per-country match files off disk
// (accepting both a dict-with-"matches"-key and a bare-list shape, since
// scrapers emit either) and rate-limits how often a stalled source
// directory gets re-polled using golang.org/x/time/rate.Limiter.Wait.
package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fahdbohli/oddsarb/internal/apperr"
	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/telemetry"
)

// SourceDir binds a bookmaker source name to the directory its
// per-country JSON files are scraped into.
type SourceDir struct {
	Source string
	Dir    string
}

// Reader reads SourceDirs' country files, pacing re-reads of any one
// source to at most rps files/sec (burst allowance burst) so a
// slow-moving source directory can't be hammered every cycle.
type Reader struct {
	dirs     []SourceDir
	limiters map[string]*rate.Limiter
}

func NewReader(dirs []SourceDir, rps float64, burst int) *Reader {
	limiters := make(map[string]*rate.Limiter, len(dirs))
	for _, d := range dirs {
		limiters[d.Source] = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Reader{dirs: dirs, limiters: limiters}
}

// Countries returns the union of country slugs (file basenames without
// extension) present across every source directory.
func (r *Reader) Countries() ([]string, error) {
	seen := map[string]struct{}{}
	for _, d := range r.dirs {
		entries, err := os.ReadDir(d.Dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, apperr.Wrap(apperr.CacheUnreadable, "list "+d.Dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ".json")] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// ReadCountry loads every source's file for country, waiting on each
// source's rate limiter before the read. A source with no file for
// this country, or whose limiter wait is canceled by ctx, is skipped
// rather than failing the whole read.
func (r *Reader) ReadCountry(ctx context.Context, country string) map[string]*model.SourceBatch {
	out := make(map[string]*model.SourceBatch, len(r.dirs))
	for _, d := range r.dirs {
		lim := r.limiters[d.Source]
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				telemetry.Debugf("ingest: %s rate wait canceled: %v", d.Source, err)
				continue
			}
		}

		path := filepath.Join(d.Dir, country+".json")
		batch, err := readFile(path, d.Source)
		if err != nil {
			if !os.IsNotExist(err) {
				telemetry.Warnf("%v", apperr.Wrap(apperr.RecordMalformed, "read "+path, err))
			}
			continue
		}
		if batch == nil {
			continue
		}
		out[d.Source] = batch
	}
	return out
}

var knownFields = map[string]struct{}{
	"source": {}, "home_team": {}, "away_team": {}, "date": {}, "time": {},
	"country": {}, "country_name": {}, "match_id": {}, "tournament_id": {},
	"tournament_name": {}, "match_url": {}, "updated_at": {},
}

func readFile(path, source string) (*model.SourceBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	var rawMatches []any
	var updatedAt time.Time

	switch v := root.(type) {
	case map[string]any:
		if ts, ok := v["updated_at"].(string); ok {
			updatedAt, _ = time.Parse(time.RFC3339, ts)
		}
		if matches, ok := v["matches"].([]any); ok {
			rawMatches = matches
		} else {
			rawMatches = []any{v}
		}
	case []any:
		rawMatches = v
	default:
		return nil, apperr.New(apperr.RecordMalformed, "unrecognized file shape in "+path)
	}

	records := make([]*model.Record, 0, len(rawMatches))
	for _, raw := range rawMatches {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, parseRecord(m, source))
	}

	return &model.SourceBatch{Source: source, Records: records, UpdatedAt: updatedAt}, nil
}

func parseRecord(m map[string]any, source string) *model.Record {
	rec := &model.Record{
		Source:         source,
		HomeTeam:       str(m["home_team"]),
		AwayTeam:       str(m["away_team"]),
		Date:           str(m["date"]),
		Time:           str(m["time"]),
		Country:        firstNonEmpty(str(m["country_name"]), str(m["country"])),
		MatchID:        idString(m["match_id"]),
		TournamentID:   idString(m["tournament_id"]),
		TournamentName: str(m["tournament_name"]),
		MatchURL:       str(m["match_url"]),
		Odds:           map[string]float64{},
	}
	for k, v := range m {
		if _, known := knownFields[k]; known {
			continue
		}
		if f, ok := numeric(v); ok {
			rec.Odds[k] = f
		}
	}
	return rec
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
