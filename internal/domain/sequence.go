package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Sequence is the ordered stop list of a single group.
//
// Mutating methods keep positions dense (exactly 1..N) and return the
// assignments whose stored position or group changed, so the caller can
// persist only those rows.
type Sequence struct {
	stops []Assignment
}

// NewSequence orders the assignments by their stored position.
// Positions are taken as-is; call Compact to repair gaps.
func NewSequence(assignments []Assignment) *Sequence {
	stops := slices.Clone(assignments)
	slices.SortStableFunc(stops, func(a, b Assignment) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return &Sequence{stops: stops}
}

func (s *Sequence) Len() int { return len(s.stops) }

// Stops returns a copy of the sequence in delivery order.
func (s *Sequence) Stops() []Assignment { return slices.Clone(s.stops) }

// Find returns the stop for a reservation and whether it exists.
func (s *Sequence) Find(reservationID string) (Assignment, bool) {
	i := s.index(reservationID)
	if i < 0 {
		return Assignment{}, false
	}
	return s.stops[i], true
}

// PositionOf returns the reservation's 1-based place in delivery order, or 0.
func (s *Sequence) PositionOf(reservationID string) int {
	return s.index(reservationID) + 1
}

func (s *Sequence) index(reservationID string) int {
	return slices.IndexFunc(s.stops, func(a Assignment) bool {
		return a.ReservationID == reservationID
	})
}

// Counts returns the total and completed stop counts.
func (s *Sequence) Counts() (total, completed int) {
	for _, a := range s.stops {
		if a.IsCompleted() {
			completed++
		}
	}
	return len(s.stops), completed
}

// NextPosition is one past the highest stored position.
func (s *Sequence) NextPosition() int {
	highest := 0
	for _, a := range s.stops {
		highest = max(highest, a.Position)
	}
	return highest + 1
}

// Append places a at the end of the sequence and returns it with its new position.
func (s *Sequence) Append(a Assignment) Assignment {
	a.Position = s.NextPosition()
	s.stops = append(s.stops, a)
	return a
}

// Remove takes the reservation's stop out of the sequence and closes the gap.
func (s *Sequence) Remove(reservationID string) (removed Assignment, shifted []Assignment, ok bool) {
	i := s.index(reservationID)
	if i < 0 {
		return Assignment{}, nil, false
	}
	removed = s.stops[i]
	s.stops = slices.Delete(s.stops, i, i+1)
	return removed, s.renumber(), true
}

// MoveTo places the reservation's stop at newPosition. Stops between the old
// and new position shift by one slot toward the vacated position.
func (s *Sequence) MoveTo(reservationID string, newPosition int) ([]Assignment, error) {
	i := s.index(reservationID)
	if i < 0 {
		return nil, fmt.Errorf("move to position: %w", ErrAssignmentNotFound)
	}
	if newPosition < 1 || newPosition > len(s.stops) {
		return nil, fmt.Errorf(
			"move to position: %w: position %d not in [1, %d]",
			ErrOutOfRange, newPosition, len(s.stops),
		)
	}

	stop := s.stops[i]
	s.stops = slices.Delete(s.stops, i, i+1)
	s.stops = slices.Insert(s.stops, newPosition-1, stop)
	return s.renumber(), nil
}

// SortByTime reorders stops by ascending key; equal keys keep their current order.
func (s *Sequence) SortByTime(key func(Assignment) time.Time) []Assignment {
	slices.SortStableFunc(s.stops, func(a, b Assignment) int {
		return key(a).Compare(key(b))
	})
	return s.renumber()
}

// Compact rewrites positions to 1..N in current order.
func (s *Sequence) Compact() []Assignment {
	return s.renumber()
}

// IsDense reports whether the positions are exactly 1..N in order.
func (s *Sequence) IsDense() bool {
	for i, a := range s.stops {
		if a.Position != i+1 {
			return false
		}
	}
	return true
}

// Set replaces the stored stop for a reservation already in the sequence.
func (s *Sequence) Set(a Assignment) bool {
	i := s.index(a.ReservationID)
	if i < 0 {
		return false
	}
	s.stops[i] = a
	return true
}

func (s *Sequence) renumber() []Assignment {
	var changed []Assignment
	for i := range s.stops {
		if s.stops[i].Position != i+1 {
			s.stops[i].Position = i + 1
			changed = append(changed, s.stops[i])
		}
	}
	return changed
}
