package lifecycle

import (
	"testing"
	"time"

	"github.com/fahdbohli/oddsarb/internal/model"
)

func opp(uid, groupID, odd string) *model.EVOpportunity {
	return &model.EVOpportunity{UniqueID: uid, GroupID: groupID, OddName: odd, OverpricedOddValue: 2.5, FairOddValue: 2.0, Overprice: 0.25}
}

func TestRunCycle_DisabledJustMirrorsCurrent(t *testing.T) {
	m := NewManager()
	current := map[string]*model.EVOpportunity{"u1": opp("u1", "g1", "1_odd")}
	m.RunCycle(current, nil, Config{Enabled: false}, time.Now())

	if len(m.Active) != 1 {
		t.Fatalf("expected Active to mirror current, got %d entries", len(m.Active))
	}
	if _, ok := m.Active["u1"]; !ok {
		t.Error("expected u1 present in Active")
	}
}

func TestRunCycle_MissingOpportunityMovesToPurgatory(t *testing.T) {
	m := NewManager()
	m.Active["u1"] = snapshotFromOpp(opp("u1", "g1", "1_odd"))
	cfg := Config{Enabled: true, InvestigationTimeout: time.Hour}

	// u1 absent from current this cycle.
	m.RunCycle(map[string]*model.EVOpportunity{}, map[string]*model.Group{}, cfg, time.Now())

	if _, ok := m.Purgatory["u1"]; !ok {
		t.Error("expected u1 to move to purgatory when it disappears")
	}
	if _, ok := m.Active["u1"]; ok {
		t.Error("expected u1 removed from active")
	}
}

func TestRunCycle_PurgatoryGraduatesToActiveOnReappearance(t *testing.T) {
	m := NewManager()
	m.Purgatory["u1"] = snapshotFromOpp(opp("u1", "g1", "1_odd"))
	cfg := Config{Enabled: true, InvestigationTimeout: time.Hour}

	current := map[string]*model.EVOpportunity{"u1": opp("u1", "g1", "1_odd")}
	m.RunCycle(current, map[string]*model.Group{}, cfg, time.Now())

	if _, ok := m.Active["u1"]; !ok {
		t.Error("expected u1 to graduate back to active on reappearance")
	}
	if _, ok := m.Purgatory["u1"]; ok {
		t.Error("expected u1 removed from purgatory once reappeared")
	}
}

func TestRunCycle_PurgatoryGraduatesToPendingWhenStillAbsent(t *testing.T) {
	m := NewManager()
	m.Purgatory["u1"] = snapshotFromOpp(opp("u1", "g1", "1_odd"))
	cfg := Config{Enabled: true, InvestigationTimeout: time.Hour}

	m.RunCycle(map[string]*model.EVOpportunity{}, map[string]*model.Group{}, cfg, time.Now())

	if _, ok := m.Pending["u1"]; !ok {
		t.Error("expected u1 to graduate to pending when still absent")
	}
}

func TestRunCycle_PendingTimesOutAfterInvestigationWindow(t *testing.T) {
	m := NewManager()
	past := time.Now().Add(-2 * time.Hour)
	m.Pending["u1"] = &model.PendingInvestigation{
		DisappearedAt: past,
		LastKnownOpp: map[string]any{
			"unique_id": "u1", "group_id": "g1", "odd_name": "1_odd",
			"overpriced_odd_value": 2.5, "fair_odd_value": 2.0, "overprice": 0.25,
		},
	}
	cfg := Config{Enabled: true, InvestigationTimeout: time.Hour}

	m.RunCycle(map[string]*model.EVOpportunity{}, map[string]*model.Group{}, cfg, time.Now())

	if _, ok := m.Pending["u1"]; ok {
		t.Error("expected u1 to be removed from pending after timing out")
	}
}
