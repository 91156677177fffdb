package domain

// Verdict classifies whether the scheduled gap between two consecutive
// stops leaves enough time for the estimated drive.
type Verdict string

const (
	VerdictOK      Verdict = "OK"
	VerdictWarning Verdict = "WARNING"
	VerdictError   Verdict = "ERROR"
	VerdictUnknown Verdict = "UNKNOWN"
)

// ClassifyGap applies the travel margin rule:
//
//	OK       gap >= 1.5 * travel
//	WARNING  travel <= gap < 1.5 * travel
//	ERROR    gap < travel
//
// Integer arithmetic (2*gap vs 3*travel) keeps the 1.5 threshold exact.
func ClassifyGap(scheduledGapSeconds, travelSeconds int64) Verdict {
	switch {
	case 2*scheduledGapSeconds >= 3*travelSeconds:
		return VerdictOK
	case scheduledGapSeconds >= travelSeconds:
		return VerdictWarning
	default:
		return VerdictError
	}
}

// PairResult is the verdict for one adjacent pair of stops.
type PairResult struct {
	// Index is the 1-based position of the From stop.
	Index               int
	FromReservationID   string
	ToReservationID     string
	FromAddress         string
	ToAddress           string
	ScheduledGapSeconds int64
	// TravelSeconds is zero when Verdict is VerdictUnknown.
	TravelSeconds int64
	Verdict       Verdict
	// Reason explains an unknown verdict.
	Reason string
}
