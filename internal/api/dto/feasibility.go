package dto

type PairResponse struct {
	Index               int    `json:"index"`
	FromReservationID   string `json:"from_reservation_id"`
	ToReservationID     string `json:"to_reservation_id"`
	FromAddress         string `json:"from_address"`
	ToAddress           string `json:"to_address"`
	ScheduledGapSeconds int64  `json:"scheduled_gap_seconds"`
	TravelSeconds       *int64 `json:"travel_seconds"`
	Verdict             string `json:"verdict"`
	Reason              string `json:"reason,omitempty"`
}

type FeasibilityResponse struct {
	GroupID string         `json:"group_id"`
	Pairs   []PairResponse `json:"pairs"`
	// Summary counts pairs per verdict.
	Summary map[string]int `json:"summary"`
}

type RouteLinkRequest struct {
	Optimize bool `json:"optimize"`
}

type RouteLinkResponse struct {
	GroupID string `json:"group_id"`
	URL     string `json:"url"`
}
