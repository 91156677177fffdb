package dto

import "time"

type AssignRequest struct {
	ReservationID string `json:"reservation_id"`
}

type AssignBatchRequest struct {
	ReservationIDs []string `json:"reservation_ids"`
}

type MoveRequest struct {
	ToGroupID string `json:"to_group_id"`
}

type ReorderRequest struct {
	Position int `json:"position"`
}

type CompleteRequest struct {
	CompletedAt *time.Time `json:"completed_at"`
}

type AssignmentResponse struct {
	ID            string     `json:"id"`
	ReservationID string     `json:"reservation_id"`
	Position      int        `json:"position"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ResultResponse reports a sequencing mutation. Note is set when the call
// succeeded without changing anything.
type ResultResponse struct {
	GroupID  string               `json:"group_id"`
	Changed  bool                 `json:"changed"`
	Note     string               `json:"note,omitempty"`
	Inserted int                  `json:"inserted"`
	Moved    int                  `json:"moved"`
	Skipped  int                  `json:"skipped"`
	Stops    []AssignmentResponse `json:"stops"`
}
