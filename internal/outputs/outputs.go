// Package outputs writes per-country result files and prunes country
// files that were not regenerated during the current cycle — country
// files left over from a country that disappeared between cycles must
// not linger on disk.
package outputs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fahdbohli/oddsarb/internal/apperr"
	"github.com/fahdbohli/oddsarb/internal/model"
)

// Writer renders a cycle's per-country results into dir, one JSON file
// per country named after the country's slug.
type Writer struct {
	Dir string
}

func New(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Write persists resultsByCountry (country name -> that country's
// group objects) and returns the set of filenames written this cycle,
// for use by Cleanup.
func (w *Writer) Write(resultsByCountry map[string][]*model.GroupObject) (map[string]struct{}, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.IOWrite, "create output dir "+w.Dir, err)
	}

	generated := make(map[string]struct{}, len(resultsByCountry))
	countries := make([]string, 0, len(resultsByCountry))
	for c := range resultsByCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	for _, country := range countries {
		groups := resultsByCountry[country]
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })

		name := fileName(country)
		path := filepath.Join(w.Dir, name)
		if err := writeJSONAtomic(path, groups); err != nil {
			return generated, apperr.Wrap(apperr.IOWrite, "write "+path, err)
		}
		generated[name] = struct{}{}
	}
	return generated, nil
}

// Cleanup removes any *.json file under the output directory that
// wasn't in generated this cycle, dropping country files for countries
// that no longer produced any matching groups.
func (w *Writer) Cleanup(generated map[string]struct{}) error {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Wrap(apperr.IOWrite, "read output dir "+w.Dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if isReservedCacheFile(e.Name()) {
			continue
		}
		if _, ok := generated[e.Name()]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(w.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return apperr.Wrap(apperr.IOWrite, "remove stale "+e.Name(), err)
		}
	}
	return nil
}

// isReservedCacheFile excludes files other packages keep alongside the
// per-country outputs (the confirmation gate's and lifecycle manager's
// activity caches, unconfirmed_opportunities.json, the lifecycle
// snapshot, and the _cache/ subdirectory's contents) from cleanup
// sweeps.
func isReservedCacheFile(name string) bool {
	switch name {
	case "activity_tracker.json", "confirmation_activity.json", "lifecycle_activity.json",
		"unconfirmed_opportunities.json",
		"lifecycle_snapshot.json", "previous_match_data_cache.json":
		return true
	}
	return false
}

func fileName(country string) string {
	slug := strings.ToLower(strings.TrimSpace(country))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "/", "_")
	if slug == "" {
		slug = "unknown"
	}
	return slug + ".json"
}

func writeJSONAtomic(path string, v any) error {
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
