package outputs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fahdbohli/oddsarb/internal/model"
)

func TestWrite_OneFilePerCountrySlugified(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	results := map[string][]*model.GroupObject{
		"United Kingdom": {{GroupID: "g1"}},
		"France":         {{GroupID: "g2"}},
	}
	generated, err := w.Write(results)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if len(generated) != 2 {
		t.Fatalf("expected 2 files generated, got %d", len(generated))
	}
	if _, ok := generated["united_kingdom.json"]; !ok {
		t.Error("expected united_kingdom.json in generated set")
	}
	data, err := os.ReadFile(filepath.Join(dir, "france.json"))
	if err != nil {
		t.Fatalf("expected france.json to exist: %v", err)
	}
	var groups []map[string]any
	if err := json.Unmarshal(data, &groups); err != nil {
		t.Fatalf("france.json not valid JSON: %v", err)
	}
	if len(groups) != 1 || groups[0]["group_id"] != "g2" {
		t.Errorf("unexpected france.json contents: %+v", groups)
	}
}

func TestCleanup_RemovesStaleFilesNotRegenerated(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	os.WriteFile(filepath.Join(dir, "stale_country.json"), []byte("[]"), 0o644)
	os.WriteFile(filepath.Join(dir, "current_country.json"), []byte("[]"), 0o644)

	generated := map[string]struct{}{"current_country.json": {}}
	if err := w.Cleanup(generated); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "stale_country.json")); !os.IsNotExist(err) {
		t.Error("expected stale_country.json removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "current_country.json")); err != nil {
		t.Error("expected current_country.json to survive cleanup")
	}
}

func TestCleanup_SkipsReservedCacheFiles(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)
	os.WriteFile(filepath.Join(dir, "activity_tracker.json"), []byte("{}"), 0o644)

	if err := w.Cleanup(map[string]struct{}{}); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "activity_tracker.json")); err != nil {
		t.Error("expected activity_tracker.json to survive cleanup as a reserved file")
	}
}

func TestCleanup_MissingDirIsNotAnError(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := w.Cleanup(map[string]struct{}{}); err != nil {
		t.Errorf("expected nil error for a missing output dir, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"France":          "france.json",
		"United Kingdom":  "united_kingdom.json",
		"  ":              "unknown.json",
		"Bosnia/Herzegovina": "bosnia_herzegovina.json",
	}
	for in, want := range cases {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}
