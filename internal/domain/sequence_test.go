package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSequence(t *testing.T, ids ...string) *Sequence {
	t.Helper()

	groupID := uuid.New()
	seq := NewSequence(nil)
	for _, id := range ids {
		seq.Append(NewAssignment(groupID, id))
	}
	require.True(t, seq.IsDense())
	return seq
}

func order(seq *Sequence) []string {
	out := make([]string, 0, seq.Len())
	for _, a := range seq.Stops() {
		out = append(out, a.ReservationID)
	}
	return out
}

func TestSequenceAppendUsesNextPosition(t *testing.T) {
	seq := buildSequence(t, "A", "B")

	added := seq.Append(NewAssignment(uuid.New(), "C"))

	assert.Equal(t, 3, added.Position)
	assert.Equal(t, []string{"A", "B", "C"}, order(seq))
}

func TestSequenceAppendAfterGap(t *testing.T) {
	seq := NewSequence([]Assignment{
		{ReservationID: "A", Position: 1},
		{ReservationID: "B", Position: 4},
	})

	added := seq.Append(Assignment{ReservationID: "C"})

	assert.Equal(t, 5, added.Position)
	assert.False(t, seq.IsDense())
}

func TestSequenceMoveToShiftsNeighbours(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C", "D")

	changed, err := seq.MoveTo("D", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "D", "B", "C"}, order(seq))
	assert.True(t, seq.IsDense())
	// A keeps its slot; every other stop moved.
	assert.Len(t, changed, 3)
}

func TestSequenceMoveToDownTheList(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C", "D")

	_, err := seq.MoveTo("A", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "A", "D"}, order(seq))
	assert.True(t, seq.IsDense())
}

func TestSequenceMoveToRoundTrip(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C", "D", "E")
	before := order(seq)

	_, err := seq.MoveTo("B", 5)
	require.NoError(t, err)
	_, err = seq.MoveTo("B", 2)
	require.NoError(t, err)

	assert.Equal(t, before, order(seq))
}

func TestSequenceMoveToSamePositionChangesNothing(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C")

	changed, err := seq.MoveTo("B", 2)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestSequenceMoveToOutOfRange(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C")

	for _, pos := range []int{0, -1, 4} {
		_, err := seq.MoveTo("A", pos)
		assert.ErrorIs(t, err, ErrOutOfRange, "position %d", pos)
	}
	assert.Equal(t, []string{"A", "B", "C"}, order(seq))
}

func TestSequenceMoveToUnknownReservation(t *testing.T) {
	seq := buildSequence(t, "A")

	_, err := seq.MoveTo("Z", 1)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSequenceRemoveCompacts(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C", "D")

	removed, shifted, ok := seq.Remove("B")
	require.True(t, ok)

	assert.Equal(t, "B", removed.ReservationID)
	assert.Equal(t, []string{"A", "C", "D"}, order(seq))
	assert.True(t, seq.IsDense())
	assert.Len(t, shifted, 2)
}

func TestSequenceSortByTime(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	at := map[string]time.Time{
		"A": base.Add(2 * time.Hour),
		"B": base,
		"C": base.Add(time.Hour),
		"D": base,
	}
	seq := buildSequence(t, "A", "B", "C", "D")

	seq.SortByTime(func(a Assignment) time.Time { return at[a.ReservationID] })

	// B and D share a time; B was first before sorting.
	assert.Equal(t, []string{"B", "D", "C", "A"}, order(seq))
	assert.True(t, seq.IsDense())
}

func TestSequenceCounts(t *testing.T) {
	seq := buildSequence(t, "A", "B", "C")
	b, _ := seq.Find("B")
	require.True(t, b.Complete(time.Now()))
	require.True(t, seq.Set(b))

	total, completed := seq.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, completed)
}
