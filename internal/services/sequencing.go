package services

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SequencingService assigns reservations to groups and maintains each
// group's delivery order.
//
// Every mutation runs in a single store transaction: it loads the groups it
// touches, applies the change to their in-memory sequences, writes the rows
// that changed and finally saves each touched group's counters under its
// version. Removing a stop always closes the gap it leaves, so positions are
// exactly 1..N after every successful call.
type SequencingService struct {
	store        ports.AssignmentStore
	reservations ports.ReservationRepository
	now          func() time.Time
}

func NewSequencingService(store ports.AssignmentStore, reservations ports.ReservationRepository) *SequencingService {
	return &SequencingService{store: store, reservations: reservations, now: time.Now}
}

// AssignSingle appends a reservation to the end of a group. A reservation
// held by another group is taken from it in the same transaction.
func (s *SequencingService) AssignSingle(
	ctx context.Context,
	groupID uuid.UUID,
	reservationID string,
) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.AssignSingle")(&err)

	id := strings.TrimSpace(reservationID)
	if id == "" {
		return nil, fmt.Errorf("assign single: %w: reservation id is empty", domain.ErrInvalidArgument)
	}

	res, err := s.assign(ctx, groupID, []string{id})
	if err != nil {
		return nil, fmt.Errorf("assign single: %w", err)
	}
	return res, nil
}

// AssignBatch appends several reservations to a group as one contiguous
// block. Reservations already in the group are skipped and keep their place.
func (s *SequencingService) AssignBatch(
	ctx context.Context,
	groupID uuid.UUID,
	reservationIDs []string,
) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.AssignBatch")(&err)

	if len(reservationIDs) == 0 {
		return nil, fmt.Errorf("assign batch: %w", domain.ErrEmptyBatch)
	}

	seen := make(map[string]struct{}, len(reservationIDs))
	ids := make([]string, 0, len(reservationIDs))
	for i, raw := range reservationIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, fmt.Errorf("assign batch: %w: reservation id at index %d is empty", domain.ErrInvalidArgument, i)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	res, err := s.assign(ctx, groupID, ids)
	if err != nil {
		return nil, fmt.Errorf("assign batch: %w", err)
	}
	return res, nil
}

func (s *SequencingService) assign(ctx context.Context, groupID uuid.UUID, ids []string) (*domain.Result, error) {
	// Reservations are external; check them before holding a transaction.
	for _, id := range ids {
		if _, err := s.reservations.GetReservation(ctx, id); err != nil {
			return nil, err
		}
	}

	var result *domain.Result
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		w := newWorkset(tx)
		target, err := w.load(ctx, groupID)
		if err != nil {
			return err
		}

		result = &domain.Result{GroupID: groupID}
		for _, id := range ids {
			prior, err := tx.FindByReservation(ctx, id)
			if err != nil {
				return err
			}

			if prior != nil && prior.GroupID == groupID {
				result.Skipped++
				continue
			}

			if prior != nil {
				src, err := w.load(ctx, prior.GroupID)
				if err != nil {
					return err
				}
				removed, shifted, ok := src.seq.Remove(id)
				if !ok {
					return fmt.Errorf("reservation %q: %w", id, domain.ErrConflict)
				}
				if err := w.remove(ctx, src, removed); err != nil {
					return err
				}
				w.update(src, shifted...)
				result.Moved++

				slog.Info("assignment superseded",
					"req_id", obs.RequestID(ctx), "reservation_id", id,
					"from_group", prior.GroupID, "to_group", groupID)
			}

			a := target.seq.Append(domain.NewAssignment(groupID, id))
			if err := w.insert(ctx, target, a); err != nil {
				return err
			}
			result.Inserted++
		}

		if result.Inserted == 0 {
			result.Note = domain.NoteAlreadyAssigned
			result.Stops = target.seq.Stops()
			return nil
		}

		if err := w.flush(ctx); err != nil {
			return err
		}
		result.Stops = target.seq.Stops()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MoveToGroup moves a reservation's stop from one group to the end of
// another, keeping its completion state. The source group is renumbered to
// close the gap.
func (s *SequencingService) MoveToGroup(
	ctx context.Context,
	reservationID string,
	fromGroupID uuid.UUID,
	toGroupID uuid.UUID,
) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.MoveToGroup")(&err)

	if fromGroupID == toGroupID {
		return nil, fmt.Errorf("move to group: %w: source and target group are the same", domain.ErrInvalidArgument)
	}

	var result *domain.Result
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		w := newWorkset(tx)
		src, err := w.load(ctx, fromGroupID)
		if err != nil {
			return err
		}
		dst, err := w.load(ctx, toGroupID)
		if err != nil {
			return err
		}

		a, shifted, ok := src.seq.Remove(reservationID)
		if !ok {
			return fmt.Errorf("reservation %q in group %s: %w", reservationID, fromGroupID, domain.ErrAssignmentNotFound)
		}
		w.update(src, shifted...)

		a.GroupID = toGroupID
		moved := dst.seq.Append(a)
		w.update(dst, moved)

		if err := w.flush(ctx); err != nil {
			return err
		}

		result = &domain.Result{GroupID: toGroupID, Moved: 1, Stops: dst.seq.Stops()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("move to group: %w", err)
	}

	return result, nil
}

// ReorderByPosition moves a stop to newPosition within its group; the stops
// in between shift one place toward the vacated slot.
func (s *SequencingService) ReorderByPosition(
	ctx context.Context,
	groupID uuid.UUID,
	reservationID string,
	newPosition int,
) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.ReorderByPosition")(&err)

	res, err := s.reorder(ctx, groupID, reservationID, func(_, count int) (int, domain.Note, error) {
		if newPosition < 1 || newPosition > count {
			return 0, domain.NoteNone, fmt.Errorf("%w: position %d not in [1, %d]", domain.ErrOutOfRange, newPosition, count)
		}
		return newPosition, domain.NoteNone, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder by position: %w", err)
	}
	return res, nil
}

// MoveUp swaps a stop with the one before it. The first stop stays put and
// the result carries domain.NoteAtBoundary.
func (s *SequencingService) MoveUp(ctx context.Context, groupID uuid.UUID, reservationID string) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.MoveUp")(&err)

	res, err := s.reorder(ctx, groupID, reservationID, func(current, _ int) (int, domain.Note, error) {
		if current == 1 {
			return current, domain.NoteAtBoundary, nil
		}
		return current - 1, domain.NoteNone, nil
	})
	if err != nil {
		return nil, fmt.Errorf("move up: %w", err)
	}
	return res, nil
}

// MoveDown swaps a stop with the one after it. The last stop stays put and
// the result carries domain.NoteAtBoundary.
func (s *SequencingService) MoveDown(ctx context.Context, groupID uuid.UUID, reservationID string) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.MoveDown")(&err)

	res, err := s.reorder(ctx, groupID, reservationID, func(current, count int) (int, domain.Note, error) {
		if current == count {
			return current, domain.NoteAtBoundary, nil
		}
		return current + 1, domain.NoteNone, nil
	})
	if err != nil {
		return nil, fmt.Errorf("move down: %w", err)
	}
	return res, nil
}

// targetFunc picks the new position given the stop's current position and
// the group size. A non-empty note means "leave the sequence as it is".
type targetFunc func(current, count int) (int, domain.Note, error)

func (s *SequencingService) reorder(
	ctx context.Context,
	groupID uuid.UUID,
	reservationID string,
	target targetFunc,
) (*domain.Result, error) {
	var result *domain.Result
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		w := newWorkset(tx)
		st, err := w.load(ctx, groupID)
		if err != nil {
			return err
		}

		current := st.seq.PositionOf(reservationID)
		if current == 0 {
			return fmt.Errorf("reservation %q in group %s: %w", reservationID, groupID, domain.ErrAssignmentNotFound)
		}

		newPosition, note, err := target(current, st.seq.Len())
		if err != nil {
			return err
		}
		if note == domain.NoteNone && newPosition == current && st.seq.IsDense() {
			note = domain.NoteUnchanged
		}

		result = &domain.Result{GroupID: groupID, Note: note}
		if note != domain.NoteNone {
			result.Stops = st.seq.Stops()
			return nil
		}

		changed, err := st.seq.MoveTo(reservationID, newPosition)
		if err != nil {
			return err
		}
		w.update(st, changed...)

		if err := w.flush(ctx); err != nil {
			return err
		}
		result.Moved = len(changed)
		result.Stops = st.seq.Stops()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SortByDeliveryTime renumbers a group's stops 1..N by ascending scheduled
// time. Stops with equal times keep their relative order.
func (s *SequencingService) SortByDeliveryTime(ctx context.Context, groupID uuid.UUID) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.SortByDeliveryTime")(&err)

	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("sort by delivery time: %w", err)
	}

	stops, err := s.store.ListAssignments(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("sort by delivery time: %w", err)
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("sort by delivery time: %w", domain.ErrEmptyGroup)
	}

	scheduled := make(map[string]time.Time, len(stops))
	for _, a := range stops {
		r, err := s.reservations.GetReservation(ctx, a.ReservationID)
		if err != nil {
			return nil, fmt.Errorf("sort by delivery time: %w", err)
		}
		scheduled[a.ReservationID] = r.ScheduledAt
	}

	var result *domain.Result
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		w := newWorkset(tx)
		st, err := w.load(ctx, groupID)
		if err != nil {
			return err
		}
		if st.seq.Len() == 0 {
			return domain.ErrEmptyGroup
		}

		for _, a := range st.seq.Stops() {
			if _, ok := scheduled[a.ReservationID]; !ok {
				// A stop was added after the scheduled times were read.
				return fmt.Errorf("group %s changed while sorting: %w", groupID, domain.ErrConflict)
			}
		}

		changed := st.seq.SortByTime(func(a domain.Assignment) time.Time {
			return scheduled[a.ReservationID]
		})

		result = &domain.Result{GroupID: groupID}
		if len(changed) == 0 {
			result.Note = domain.NoteUnchanged
			result.Stops = st.seq.Stops()
			return nil
		}

		w.update(st, changed...)
		if err := w.flush(ctx); err != nil {
			return err
		}
		result.Moved = len(changed)
		result.Stops = st.seq.Stops()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sort by delivery time: %w", err)
	}

	return result, nil
}

// CompleteAssignment marks a stop delivered at the given time (now when
// zero). Completing a delivered stop returns domain.NoteAlreadyCompleted.
func (s *SequencingService) CompleteAssignment(
	ctx context.Context,
	groupID uuid.UUID,
	reservationID string,
	at time.Time,
) (_ *domain.Result, err error) {
	defer obs.Time(ctx, "sequencing.CompleteAssignment")(&err)

	if at.IsZero() {
		at = s.now()
	}

	var result *domain.Result
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		w := newWorkset(tx)
		st, err := w.load(ctx, groupID)
		if err != nil {
			return err
		}

		a, ok := st.seq.Find(reservationID)
		if !ok {
			return fmt.Errorf("reservation %q in group %s: %w", reservationID, groupID, domain.ErrAssignmentNotFound)
		}

		result = &domain.Result{GroupID: groupID}
		if !a.Complete(at) {
			result.Note = domain.NoteAlreadyCompleted
			result.Stops = st.seq.Stops()
			return nil
		}

		st.seq.Set(a)
		w.update(st, a)
		if err := w.flush(ctx); err != nil {
			return err
		}
		result.Stops = st.seq.Stops()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}

	return result, nil
}
