package domain

import (
	"strings"
	"time"
)

// Represents a delivery order owned by the reservation store.
// The sequencing engine only reads the identifier, the scheduled
// delivery time and the address; everything else lives elsewhere.
type Reservation struct {
	ID          string
	ServiceDate time.Time
	ScheduledAt time.Time
	Address     string
}

// NormalizeAddress collapses runs of whitespace so equal addresses
// produce equal cache keys.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DateKey renders a service date the way it is persisted and compared.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDate parses a YYYY-MM-DD service date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}
