// Package lifecycle implements the opportunity lifecycle state machine:
// ACTIVE → PURGATORY → PENDING → {RESOLVED, TIMED_OUT}, plus
// appearance-investigation logging when a freshly-seen opportunity can
// be attributed to a specific side's price movement.
package lifecycle

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fahdbohli/oddsarb/internal/apperr"
	"github.com/fahdbohli/oddsarb/internal/ev"
	"github.com/fahdbohli/oddsarb/internal/investigation"
	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/telemetry"
)

// Snapshot is the minimal, JSON-serializable view of one +EV
// opportunity the lifecycle manager needs to remember across cycles —
// everything a disappearance resolution or appearance investigation
// reads back out of a cached "last known opportunity".
type Snapshot struct {
	UniqueID    string  `json:"unique_id"`
	GroupID     string  `json:"group_id"`
	OddName     string  `json:"odd_name"`
	TargetOdd   float64 `json:"overpriced_odd_value"`
	FairOdd     float64 `json:"fair_odd_value"`
	Overprice   float64 `json:"overprice"`
	HomeTeam    string  `json:"home_team"`
	AwayTeam    string  `json:"away_team"`
	Duration    string  `json:"activity_duration,omitempty"`
}

func snapshotFromOpp(o *model.EVOpportunity) Snapshot {
	return Snapshot{
		UniqueID:  o.UniqueID,
		GroupID:   o.GroupID,
		OddName:   o.OddName,
		TargetOdd: o.OverpricedOddValue,
		FairOdd:   o.FairOddValue,
		Overprice: o.Overprice,
		HomeTeam:  o.HomeTeam,
		AwayTeam:  o.AwayTeam,
		Duration:  o.ActivityDuration,
	}
}

// Config bundles the toggles and paths for lifecycle tracking, plus the
// ev.Config needed to re-derive fair odds for a disappeared or
// freshly-appeared opportunity. cmd/oddsarb fills it: Enabled is on when
// an ev method is set and thresholds.yaml gives a positive investigation
// timeout, and AppearanceInvestigation and DoubleCheck are always on;
// ev.json carries none of these toggles.
type Config struct {
	Enabled                 bool // OVERPRICE_SOURCE_LOGGING
	AppearanceInvestigation bool
	DoubleCheck             bool
	InvestigationTimeout    time.Duration
	LogRoot                 string
	Mode                    string // "prematch" | "live"
	TargetSource            string
	Sport                   string

	EVConfig ev.Config

	// Archive, when set, additionally records every closed investigation
	// (resolved, timed out, or finalized appearance) into a queryable
	// SQLite history alongside the JSON log tree. Optional.
	Archive *investigation.Archive
}

// Manager holds the three persisted caches calls Lifecycle
// Caches, plus the per-uid Activity Record map.
type Manager struct {
	Active    map[string]Snapshot
	Purgatory map[string]Snapshot
	Pending   map[string]*model.PendingInvestigation
	Activity  map[string]*model.ActivityEntry
}

func NewManager() *Manager {
	return &Manager{
		Active:    map[string]Snapshot{},
		Purgatory: map[string]Snapshot{},
		Pending:   map[string]*model.PendingInvestigation{},
		Activity:  map[string]*model.ActivityEntry{},
	}
}

// Load reads the four JSON cache files, treating any unreadable or
// absent file as empty.
func Load(activePath, purgatoryPath, pendingPath, activityPath string) *Manager {
	m := NewManager()
	loadJSON(activePath, &m.Active)
	loadJSON(purgatoryPath, &m.Purgatory)
	loadJSON(pendingPath, &m.Pending)
	loadJSON(activityPath, &m.Activity)
	return m
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

// Save atomically persists all four caches (write-to-temp + rename).
func (m *Manager) Save(activePath, purgatoryPath, pendingPath, activityPath string) error {
	for path, v := range map[string]any{
		activePath:    m.Active,
		purgatoryPath: m.Purgatory,
		pendingPath:   m.Pending,
		activityPath:  m.Activity,
	} {
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
		// retry once per IOWrite policy
		if err2 := os.WriteFile(tmp, data, 0o644); err2 != nil {
			return err2
		}
	}
	return os.Rename(tmp, path)
}

// RunCycle advances every cached opportunity's state given this
// cycle's set of +EV opportunities (keyed by unique_id) and the
// matching groups they can be re-evaluated against, then replaces m's
// caches with the next cycle's state. cycleID correlates this run's
// log writes and is stamped into every log entry.
func (m *Manager) RunCycle(current map[string]*model.EVOpportunity, groupsByID map[string]*model.Group, cfg Config, now time.Time) {
	if !cfg.Enabled {
		m.Active = snapshotMap(current)
		return
	}
	cycleID := uuid.NewString()

	nextActive := snapshotMap(current)

	// Step 1: PURGATORY -> PENDING for entries still absent.
	nextPending := make(map[string]*model.PendingInvestigation, len(m.Pending))
	for uid, p := range m.Pending {
		nextPending[uid] = p
	}
	for uid, snap := range m.Purgatory {
		if _, stillGone := current[uid]; stillGone {
			continue // PURGATORY -> ACTIVE (reappeared), nothing to do
		}
		if _, already := nextPending[uid]; already {
			continue
		}
		nextPending[uid] = &model.PendingInvestigation{
			DisappearedAt: now,
			LastKnownOpp:  snapshotToMap(snap),
		}
	}

	// Step 2: ACTIVE -> PURGATORY for entries missing this cycle that
	// weren't already in last cycle's purgatory (those graduated above).
	newPurgatory := map[string]Snapshot{}
	for uid, snap := range m.Active {
		if _, ok := current[uid]; ok {
			continue
		}
		if _, wasPurgatory := m.Purgatory[uid]; wasPurgatory {
			continue
		}
		newPurgatory[uid] = snap
	}

	// Steps 3 & 4: timeout or attempt resolution for every pending entry.
	finalPending := map[string]*model.PendingInvestigation{}
	for uid, p := range nextPending {
		if now.Sub(p.DisappearedAt) > cfg.InvestigationTimeout {
			telemetry.Infof("lifecycle: investigation %s timed out after %s", uid, cfg.InvestigationTimeout)
			groupID, _ := p.LastKnownOpp["group_id"].(string)
			oddName, _ := p.LastKnownOpp["odd_name"].(string)
			m.archiveClosed(cfg, uid, groupID, oddName, "timed_out", "", now, p.LastKnownOpp)
			continue // TIMED_OUT, no log
		}
		var snap Snapshot
		if err := mapToSnapshot(p.LastKnownOpp, &snap); err != nil {
			finalPending[uid] = p
			continue
		}
		resolved := m.resolveDisappearance(uid, snap, groupsByID, cfg, cycleID, now)
		if !resolved {
			finalPending[uid] = p
		}
	}

	// Appearance investigation for newly-seen opportunities.
	if cfg.AppearanceInvestigation {
		for uid, opp := range current {
			if _, existed := m.Active[uid]; existed {
				continue
			}
			if _, wasPending := finalPending[uid]; wasPending {
				continue
			}
			m.investigateAppearance(uid, opp, groupsByID, cfg, cycleID, now)
		}
	}

	m.Active = nextActive
	m.Purgatory = newPurgatory
	m.Pending = finalPending

	// Prune activity entries for uids no longer active and without a
	// pending appearance log to finalize later.
	for uid, entry := range m.Activity {
		if _, active := current[uid]; active {
			continue
		}
		if entry.AppearanceLog != nil {
			continue
		}
		delete(m.Activity, uid)
	}
}

func snapshotMap(current map[string]*model.EVOpportunity) map[string]Snapshot {
	out := make(map[string]Snapshot, len(current))
	for uid, o := range current {
		out[uid] = snapshotFromOpp(o)
	}
	return out
}

func snapshotToMap(s Snapshot) map[string]any {
	data, _ := json.Marshal(s)
	var out map[string]any
	json.Unmarshal(data, &out)
	return out
}

func mapToSnapshot(m map[string]any, out *Snapshot) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// resolveDisappearance checks whether a pending disappearance has
// resolved. Returns true if the investigation is closed (still
// overpriced under the new odds, appearance log finalized, or
// disappearance attributed and logged); false if it should remain
// pending.
func (m *Manager) resolveDisappearance(uid string, last Snapshot, groupsByID map[string]*model.Group, cfg Config, cycleID string, now time.Time) bool {
	if entry, ok := m.Activity[uid]; ok && entry.AppearanceLog != nil {
		if !cfg.DoubleCheck {
			final := cloneMap(entry.AppearanceLog)
			final["opportunity_duration"] = last.Duration
			final["cycle_id"] = cycleID
			m.writeLog(cfg, "appearance_investigations", last.GroupID, last.OddName, final)
			overpriceSource, _ := final["overprice_source"].(string)
			m.archiveClosed(cfg, uid, last.GroupID, last.OddName, "appearance_investigations", overpriceSource, now, final)
			telemetry.Infof("lifecycle: finalized appearance investigation for %s", uid)
			delete(m.Activity, uid)
			return true
		}
	}

	group, ok := groupsByID[last.GroupID]
	if !ok {
		return false
	}
	bySource := group.BySource()
	marketSet, ok := ev.MarketSetFor(cfg.EVConfig.MarketSets, last.OddName)
	if !ok {
		return false
	}

	newFair := ev.FairOddsFor(marketSet, cfg.EVConfig, bySource)
	if newFair == nil {
		return false
	}
	newFairOdd, ok := newFair[last.OddName]
	if !ok {
		return false
	}
	target, ok := bySource[cfg.TargetSource]
	if !ok {
		return false
	}
	newTargetOdd, ok := target.Odd(last.OddName)
	if !ok {
		return false
	}

	if newTargetOdd > newFairOdd {
		newOverprice := newTargetOdd/newFairOdd - 1.0
		if newOverprice >= cfg.EVConfig.MinOverprice {
			telemetry.Infof("lifecycle: cancelling investigation for %s, still active with new odds", uid)
			return true // RESOLVED, no log
		}
	}

	if last.FairOdd <= 0 || last.TargetOdd <= 0 {
		return false
	}
	fairChangePct := math.Abs((newFairOdd - last.FairOdd) / last.FairOdd)
	targetChangePct := math.Abs((newTargetOdd - last.TargetOdd) / last.TargetOdd)

	overpriceSource := "fair_source"
	if targetChangePct > fairChangePct {
		overpriceSource = cfg.TargetSource
	}

	entry := map[string]any{
		"overprice":                  last.Overprice,
		"overprice_source":           overpriceSource,
		"odd_name":                   last.OddName,
		"old_fair_odd":               last.FairOdd,
		"old_" + cfg.TargetSource + "_odd": last.TargetOdd,
		"new_fair_odd":               round4(newFairOdd),
		"new_" + cfg.TargetSource + "_odd": newTargetOdd,
		"opportunity_duration":       last.Duration,
		"group_id":                   last.GroupID,
		"home_team":                  last.HomeTeam,
		"away_team":                  last.AwayTeam,
		"disappeared_at":             now.Format(time.RFC3339),
		"cycle_id":                   cycleID,
	}
	m.writeLog(cfg, "disappearance_investigations", last.GroupID, last.OddName, entry)
	m.archiveClosed(cfg, uid, last.GroupID, last.OddName, "disappearance_investigations", overpriceSource, now, entry)
	telemetry.Infof("lifecycle: resolved and logged disappearance for %s (overprice_source=%s)", uid, overpriceSource)
	return true
}

// investigateAppearance attributes a freshly-seen opportunity to one
// side's movement when exactly one of {fair, target} changed between
// cycles.
func (m *Manager) investigateAppearance(uid string, opp *model.EVOpportunity, groupsByID map[string]*model.Group, cfg Config, cycleID string, now time.Time) {
	prevSnap, hadPrev := m.prevMatchSnapshot(opp)
	if !hadPrev {
		return
	}
	group, ok := groupsByID[opp.GroupID]
	if !ok {
		return
	}
	bySource := group.BySource()
	marketSet, ok := ev.MarketSetFor(cfg.EVConfig.MarketSets, opp.OddName)
	if !ok {
		return
	}
	newFair := ev.FairOddsFor(marketSet, cfg.EVConfig, bySource)
	if newFair == nil {
		return
	}
	newFairOdd, ok := newFair[opp.OddName]
	if !ok {
		return
	}
	target, ok := bySource[cfg.TargetSource]
	if !ok {
		return
	}
	newTargetOdd, ok := target.Odd(opp.OddName)
	if !ok {
		return
	}

	oldFairOdd, oldTargetOdd := prevSnap.FairOdd, prevSnap.TargetOdd
	if oldFairOdd == 0 || oldTargetOdd == 0 {
		return
	}

	fairChanged := newFairOdd != oldFairOdd
	targetChanged := newTargetOdd != oldTargetOdd
	if fairChanged == targetChanged {
		return // both or neither: not attributable
	}

	var overpriceSource string
	if fairChanged && newFairOdd < oldFairOdd {
		overpriceSource = cfg.TargetSource
	} else if targetChanged && newTargetOdd > oldTargetOdd {
		overpriceSource = "fair_source"
	} else {
		return
	}

	log := map[string]any{
		"overprice":                  opp.Overprice,
		"overprice_source":           overpriceSource,
		"odd_name":                   opp.OddName,
		"old_fair_odd":               oldFairOdd,
		"old_" + cfg.TargetSource + "_odd": oldTargetOdd,
		"new_fair_odd":               round4(newFairOdd),
		"new_" + cfg.TargetSource + "_odd": newTargetOdd,
		"group_id":                   opp.GroupID,
		"home_team":                  opp.HomeTeam,
		"away_team":                  opp.AwayTeam,
		"appeared_at":                now.Format(time.RFC3339),
		"cycle_id":                   cycleID,
	}
	m.writeLog(cfg, "appearance_investigations", opp.GroupID, opp.OddName, log)

	m.Activity[uid] = &model.ActivityEntry{FirstSeen: now, AppearanceLog: log}
}

// prevMatchSnapshot recovers the previous cycle's fair/target odds for
// opp's outcome from the last cycle's active cache, if any.
func (m *Manager) prevMatchSnapshot(opp *model.EVOpportunity) (Snapshot, bool) {
	s, ok := m.Active[opp.UniqueID]
	return s, ok
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}

// writeLog appends entry to the JSON array at
// logRoot/mode/target/sport/date/overpriceSource/groupID/investigationType/{oddName}.json,
// creating directories as needed and retrying a failed write once.
func (m *Manager) writeLog(cfg Config, investigationType, groupID, oddName string, entry map[string]any) {
	overpriceSource, _ := entry["overprice_source"].(string)
	today := time.Now().Format("02-01-2006")
	dir := filepath.Join(cfg.LogRoot, cfg.Mode, cfg.TargetSource, cfg.Sport, today, overpriceSource, groupID, investigationType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		telemetry.Warnf("%v", apperr.Wrap(apperr.IOWrite, "mkdir "+dir, err))
		return
	}
	sanitized := strings.ReplaceAll(oddName, "/", "_")
	path := filepath.Join(dir, sanitized+".json")

	var logs []map[string]any
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &logs)
	}
	logs = append(logs, entry)

	if err := writeJSONAtomic(path, logs); err != nil {
		telemetry.Warnf("%v", apperr.Wrap(apperr.IOWrite, "write "+path, err))
	}
}

// archiveClosed records a closed investigation into cfg.Archive, if
// configured. Archiving is best-effort: a failure here must not block
// the lifecycle cycle that produced it.
func (m *Manager) archiveClosed(cfg Config, uid, groupID, oddName, investigationType, overpriceSource string, closedAt time.Time, payload map[string]any) {
	if cfg.Archive == nil {
		return
	}
	err := cfg.Archive.Record(investigation.Record{
		UniqueID:          uid,
		GroupID:           groupID,
		OddName:           oddName,
		InvestigationType: investigationType,
		OverpriceSource:   overpriceSource,
		ClosedAt:          closedAt,
		Payload:           payload,
	})
	if err != nil {
		telemetry.Warnf("lifecycle: archive investigation %s: %v", uid, err)
	}
}

