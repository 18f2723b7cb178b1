package model

import "testing"

func TestRecord_Odd(t *testing.T) {
	r := &Record{Odds: map[string]float64{"1_odd": 2.2, "draw_odd": 0}}

	if v, ok := r.Odd("1_odd"); !ok || v != 2.2 {
		t.Errorf("Odd(1_odd) = (%v, %v), want (2.2, true)", v, ok)
	}
	if _, ok := r.Odd("draw_odd"); ok {
		t.Error("expected a non-positive odd to be treated as missing")
	}
	if _, ok := r.Odd("2_odd"); ok {
		t.Error("expected an absent outcome to be treated as missing")
	}
}

func TestRecord_Odd_NilReceiverSafe(t *testing.T) {
	var r *Record
	if _, ok := r.Odd("1_odd"); ok {
		t.Error("expected a nil record to report the outcome as missing")
	}
}

func TestGroup_SourcesPreservesOrder(t *testing.T) {
	g := &Group{Records: []*Record{
		{Source: "bet365"}, {Source: "pinnacle"}, {Source: "marathonbet"},
	}}
	sources := g.Sources()
	want := []string{"bet365", "pinnacle", "marathonbet"}
	for i, s := range want {
		if sources[i] != s {
			t.Errorf("Sources()[%d] = %q, want %q", i, sources[i], s)
		}
	}
}

func TestGroup_BySource(t *testing.T) {
	g := &Group{Records: []*Record{
		{Source: "bet365", HomeTeam: "Arsenal"},
		{Source: "pinnacle", HomeTeam: "Arsenal"},
	}}
	by := g.BySource()
	if len(by) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(by))
	}
	if by["bet365"].HomeTeam != "Arsenal" {
		t.Error("expected bet365 record indexed correctly")
	}
}
