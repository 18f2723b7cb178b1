// Package model holds the shared data types that flow through the
// matching, arbitrage, fair-odds, +EV and lifecycle stages: Match
// Records, Matching Groups, Market Sets and the two opportunity kinds.
package model

import "time"

// Record is a single bookmaker's view of a fixture. Odds are keyed by
// outcome name (e.g. "1_odd", "over_2.5_odd", "home_handicap_-0.5_odd").
//
// Record is immutable after ingestion except for MatchingGroupID,
// which the grouper sets; Source is set at ingestion.
type Record struct {
	Source      string             `json:"source"`
	HomeTeam    string             `json:"home_team"`
	AwayTeam    string             `json:"away_team"`
	Date        string             `json:"date"` // as read from the source, pre-parse
	Time        string             `json:"time"`
	Country     string             `json:"country_name"`
	MatchID     string             `json:"match_id,omitempty"`
	TournamentID   string          `json:"tournament_id,omitempty"`
	TournamentName string          `json:"tournament_name,omitempty"`
	MatchURL    string             `json:"match_url,omitempty"`
	Odds        map[string]float64 `json:"-"`

	// MatchingGroupID is assigned by the grouper once this record joins a group.
	MatchingGroupID string `json:"-"`
}

// Odd returns the outcome's odd and whether it is a usable (positive)
// numeric value; non-positive and non-numeric odds are treated
// identically to "missing".
func (r *Record) Odd(outcome string) (float64, bool) {
	if r == nil || r.Odds == nil {
		return 0, false
	}
	v, ok := r.Odds[outcome]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// SourceBatch is a single source's file for one country: its records
// plus an optional batch-level update timestamp.
type SourceBatch struct {
	Source    string
	Records   []*Record
	UpdatedAt time.Time // zero value means absent
}

// Group is an ordered set of Records from distinct sources the grouper
// judged to refer to the same fixture. Invariant: at most one record
// per source.
type Group struct {
	ID       string
	Records  []*Record
}

// Sources returns each member's Source tag in group order.
func (g *Group) Sources() []string {
	out := make([]string, len(g.Records))
	for i, r := range g.Records {
		out[i] = r.Source
	}
	return out
}

// BySource indexes the group's records by source, last-write-wins
// (groups never carry two records from the same source, so this is
// just a convenience lookup).
func (g *Group) BySource() map[string]*Record {
	m := make(map[string]*Record, len(g.Records))
	for _, r := range g.Records {
		m[r.Source] = r
	}
	return m
}
