package model

import "time"

// ActivityEntry tracks, for one opportunity unique-id, when it was
// first seen and any pending appearance-investigation log.
type ActivityEntry struct {
	FirstSeen     time.Time      `json:"first_seen"`
	AppearanceLog map[string]any `json:"appearance_log,omitempty"`
}

// PendingInvestigation is a confirmed disappearance awaiting resolution
// or timeout.
type PendingInvestigation struct {
	DisappearedAt time.Time      `json:"disappeared_at"`
	LastKnownOpp  map[string]any `json:"last_known_opp"`
}

// UnconfirmedOpportunity is an arbitrage opportunity withheld by the
// confirmation gate until every contributing source has refreshed
// since its birth.
type UnconfirmedOpportunity struct {
	BirthTime       time.Time      `json:"birth_time"`
	OpportunityData map[string]any `json:"opportunity_data"`
}
