package services

import (
	"cmp"
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/ports"
	"slices"

	"github.com/google/uuid"
)

// groupState is a group and its sequence as read inside the current transaction.
type groupState struct {
	group   *domain.DeliveryGroup
	seq     *domain.Sequence
	touched bool
}

// workset collects the groups a mutation reads and the rows it changes,
// then writes them back in one pass at the end of the transaction.
type workset struct {
	tx     ports.AssignmentTx
	groups map[uuid.UUID]*groupState
	order  []uuid.UUID
	dirty  map[uuid.UUID]domain.Assignment
}

func newWorkset(tx ports.AssignmentTx) *workset {
	return &workset{
		tx:     tx,
		groups: make(map[uuid.UUID]*groupState),
		dirty:  make(map[uuid.UUID]domain.Assignment),
	}
}

// load reads a group and its assignments once per transaction.
func (w *workset) load(ctx context.Context, groupID uuid.UUID) (*groupState, error) {
	if st, ok := w.groups[groupID]; ok {
		return st, nil
	}

	g, err := w.tx.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	as, err := w.tx.ListAssignments(ctx, groupID)
	if err != nil {
		return nil, err
	}

	st := &groupState{group: g, seq: domain.NewSequence(as)}
	w.groups[groupID] = st
	w.order = append(w.order, groupID)
	return st, nil
}

// update records rows whose stored group, position or completion changed.
func (w *workset) update(st *groupState, as ...domain.Assignment) {
	st.touched = true
	for _, a := range as {
		w.dirty[a.ID] = a
	}
}

// remove deletes an assignment row and drops any pending update for it.
func (w *workset) remove(ctx context.Context, st *groupState, a domain.Assignment) error {
	st.touched = true
	delete(w.dirty, a.ID)
	return w.tx.DeleteAssignment(ctx, a.ID)
}

// insert writes a new assignment row.
func (w *workset) insert(ctx context.Context, st *groupState, a domain.Assignment) error {
	st.touched = true
	return w.tx.InsertAssignment(ctx, a)
}

// flush compacts any touched group left with gaps, writes pending row
// updates, then recounts and saves every touched group. Saving fails with
// domain.ErrConflict when another writer changed one of the groups since
// it was loaded.
func (w *workset) flush(ctx context.Context) error {
	for _, id := range w.order {
		if st := w.groups[id]; st.touched && !st.seq.IsDense() {
			w.update(st, st.seq.Compact()...)
		}
	}

	if len(w.dirty) > 0 {
		rows := make([]domain.Assignment, 0, len(w.dirty))
		for _, a := range w.dirty {
			rows = append(rows, a)
		}
		slices.SortFunc(rows, func(a, b domain.Assignment) int {
			if c := cmp.Compare(a.GroupID.String(), b.GroupID.String()); c != 0 {
				return c
			}
			return cmp.Compare(a.Position, b.Position)
		})

		if err := w.tx.UpdateAssignments(ctx, rows); err != nil {
			return err
		}
		clear(w.dirty)
	}

	for _, id := range w.order {
		st := w.groups[id]
		if !st.touched {
			continue
		}
		st.group.Recount(st.seq)
		if err := w.tx.SaveCounters(ctx, st.group); err != nil {
			return err
		}
	}

	return nil
}
