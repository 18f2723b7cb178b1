package model

import "encoding/json"

// OddPick records a single outcome's winning odd and the source it came from.
type OddPick struct {
	Outcome string
	Value   float64
	Source  string
}

// ArbitragePick is the serialized form of an OddPick inside an opportunity.
type ArbitragePick struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// ArbitrageOpportunity is a Matching Group + Market Set + per-outcome
// best-odds picks whose inverse sum is < 1.
type ArbitrageOpportunity struct {
	ComplementarySet    string                   `json:"complementary_set"`
	BestOdds            map[string]ArbitragePick `json:"best_odds"`
	ArbitragePercentage float64                  `json:"arbitrage_percentage"`
	ArbitrageSources    string                   `json:"arbitrage_sources"`
	UniqueID            string                   `json:"unique_id"`

	// Per-source metadata, flattened onto the opportunity at serialization
	// time as "{source}_match_id" etc.
	SourceMeta map[string]map[string]any `json:"-"`

	GroupID          string `json:"group_id,omitempty"`
	HomeTeam         string `json:"home_team,omitempty"`
	AwayTeam         string `json:"away_team,omitempty"`
	ActivityDuration string `json:"activity_duration,omitempty"`
}

// MarshalJSON flattens SourceMeta onto the opportunity using a
// per-source key convention ("{source}_match_id", "tournament_{source}",
// ...) instead of nesting it under a separate object.
func (o *ArbitrageOpportunity) MarshalJSON() ([]byte, error) {
	type alias ArbitrageOpportunity
	out := map[string]any{}
	data, err := json.Marshal((*alias)(o))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for source, meta := range o.SourceMeta {
		if v, ok := meta["country_name"]; ok {
			out[source+"_country_name"] = v
		}
		if v, ok := meta["tournament_name"]; ok {
			out["tournament_"+source] = v
		}
		if v, ok := meta["match_id"]; ok {
			out[source+"_match_id"] = v
		}
		if v, ok := meta["tournament_id"]; ok {
			out[source+"_tournament_id"] = v
		}
		if v, ok := meta["match_url"]; ok {
			out[source+"_match_url"] = v
		}
	}
	return json.Marshal(out)
}

// EVOpportunity is a Matching Group + one outcome + a fair-odd estimate
// + target-source odd + overprice.
type EVOpportunity struct {
	Source             string  `json:"source"`
	OddName            string  `json:"odd_name"`
	OverpricedOddValue float64 `json:"overpriced_odd_value"`
	FairOddValue       float64 `json:"fair_odd_value"`
	Overprice          float64 `json:"overprice"`
	UniqueID           string  `json:"unique_id"`

	SourceMeta map[string]any `json:"-"`

	GroupID          string `json:"group_id,omitempty"`
	HomeTeam         string `json:"home_team,omitempty"`
	AwayTeam         string `json:"away_team,omitempty"`
	ActivityDuration string `json:"activity_duration,omitempty"`
}

// MarshalJSON flattens SourceMeta the same way
// ArbitrageOpportunity.MarshalJSON does, keyed by the single target
// source this opportunity was found against.
func (o *EVOpportunity) MarshalJSON() ([]byte, error) {
	type alias EVOpportunity
	out := map[string]any{}
	data, err := json.Marshal((*alias)(o))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	source := o.Source
	if v, ok := o.SourceMeta["country_name"]; ok {
		out[source+"_country_name"] = v
	}
	if v, ok := o.SourceMeta["tournament_name"]; ok {
		out["tournament_"+source] = v
	}
	if v, ok := o.SourceMeta["match_id"]; ok {
		out[source+"_match_id"] = v
	}
	if v, ok := o.SourceMeta["tournament_id"]; ok {
		out[source+"_tournament_id"] = v
	}
	if v, ok := o.SourceMeta["match_url"]; ok {
		out[source+"_match_url"] = v
	}
	return json.Marshal(out)
}

// GroupObject is the per-country output envelope:
// {group_id, home_team, away_team, date, time, country, all_sources, opportunities}.
type GroupObject struct {
	GroupID    string   `json:"group_id"`
	HomeTeam   string   `json:"home_team"`
	AwayTeam   string   `json:"away_team"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Country    string   `json:"country"`
	AllSources []string `json:"all_sources"`

	ArbOpportunities []*ArbitrageOpportunity `json:"-"`
	EVOpportunities  []*EVOpportunity        `json:"-"`
}

// MarshalJSON serializes whichever opportunity slice is populated
// (a group is either an arbitrage result or a +EV result, never both)
// under the single "opportunities" key the output format names.
func (g *GroupObject) MarshalJSON() ([]byte, error) {
	type envelope struct {
		GroupID      string   `json:"group_id"`
		HomeTeam     string   `json:"home_team"`
		AwayTeam     string   `json:"away_team"`
		Date         string   `json:"date"`
		Time         string   `json:"time"`
		Country      string   `json:"country"`
		AllSources   []string `json:"all_sources"`
		Opportunities any     `json:"opportunities"`
	}
	e := envelope{
		GroupID:    g.GroupID,
		HomeTeam:   g.HomeTeam,
		AwayTeam:   g.AwayTeam,
		Date:       g.Date,
		Time:       g.Time,
		Country:    g.Country,
		AllSources: g.AllSources,
	}
	switch {
	case len(g.ArbOpportunities) > 0:
		e.Opportunities = g.ArbOpportunities
	case len(g.EVOpportunities) > 0:
		e.Opportunities = g.EVOpportunities
	default:
		e.Opportunities = []any{}
	}
	return json.Marshal(e)
}
