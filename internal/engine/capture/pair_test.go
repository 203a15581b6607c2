package capture

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumilearn/activity-backend/internal/model"
)

func pairRows(n int) []model.PairOption {
	out := make([]model.PairOption, n)
	for i := range out {
		out[i] = model.PairOption{
			ID:       uuid.New(),
			LeftID:   uuid.New(),
			RightID:  uuid.New(),
			Sequence: i,
		}
	}
	return out
}

func TestPairInitialAssignmentByPosition(t *testing.T) {
	rows := pairRows(4)
	u := NewPairUnit(rows, rand.New(rand.NewSource(1)), true)

	// Every anchor starts occupied and the pool starts empty.
	assert.True(t, u.Complete())
	assert.Empty(t, u.Pool())
	for _, anchor := range u.Anchors() {
		assert.NotNil(t, u.AssignedTo(anchor))
	}
}

func TestPairShuffleOff(t *testing.T) {
	rows := pairRows(4)
	u := NewPairUnit(rows, nil, false)

	anchors := u.Anchors()
	require.Len(t, anchors, 4)
	for i, row := range rows {
		assert.Equal(t, row.LeftID, anchors[i])
		assert.Equal(t, row.RightID, *u.AssignedTo(row.LeftID))
	}
}

func TestPairSwapBetweenAnchors(t *testing.T) {
	rows := pairRows(3)
	u := NewPairUnit(rows, nil, false)

	a, b := rows[0].LeftID, rows[1].LeftID
	itemA, itemB := rows[0].RightID, rows[1].RightID

	require.NoError(t, u.Drop(itemA, b))
	assert.Equal(t, itemB, *u.AssignedTo(a))
	assert.Equal(t, itemA, *u.AssignedTo(b))
	assert.True(t, u.Complete())
}

func TestPairPoolDisplacesOccupant(t *testing.T) {
	rows := pairRows(2)
	u := NewPairUnit(rows, nil, false)

	// Free one item, then drop it on the other occupied anchor.
	require.NoError(t, u.ReturnToPool(rows[0].RightID))
	assert.Equal(t, []uuid.UUID{rows[0].RightID}, u.Pool())
	assert.Nil(t, u.AssignedTo(rows[0].LeftID))
	assert.False(t, u.Complete())

	require.NoError(t, u.Drop(rows[0].RightID, rows[1].LeftID))
	assert.Equal(t, rows[0].RightID, *u.AssignedTo(rows[1].LeftID))
	assert.Equal(t, []uuid.UUID{rows[1].RightID}, u.Pool())
}

func TestPairDropOnEmptyAnchor(t *testing.T) {
	rows := pairRows(2)
	u := NewPairUnit(rows, nil, false)

	require.NoError(t, u.ReturnToPool(rows[1].RightID))
	require.NoError(t, u.Drop(rows[0].RightID, rows[1].LeftID))

	assert.Nil(t, u.AssignedTo(rows[0].LeftID))
	assert.Equal(t, rows[0].RightID, *u.AssignedTo(rows[1].LeftID))
}

func TestPairItemNeverDuplicated(t *testing.T) {
	rows := pairRows(5)
	u := NewPairUnit(rows, rand.New(rand.NewSource(7)), true)

	moves := []struct{ item, anchor int }{
		{0, 3}, {2, 0}, {4, 4}, {1, 2}, {3, 1}, {0, 0},
	}
	for _, m := range moves {
		require.NoError(t, u.Drop(rows[m.item].RightID, rows[m.anchor].LeftID))

		seen := make(map[uuid.UUID]int)
		for _, anchor := range u.Anchors() {
			if item := u.AssignedTo(anchor); item != nil {
				seen[*item]++
			}
		}
		for _, item := range u.Pool() {
			seen[item]++
		}
		require.Len(t, seen, 5)
		for _, n := range seen {
			require.Equal(t, 1, n)
		}
	}
}

func TestPairAnswerFollowsAnchorOrder(t *testing.T) {
	rows := pairRows(3)
	u := NewPairUnit(rows, nil, false)
	require.NoError(t, u.ReturnToPool(rows[1].RightID))

	ans := u.Answer()
	require.Len(t, ans.Pairs, 2)
	assert.Equal(t, rows[0].LeftID, ans.Pairs[0].LeftID)
	assert.Equal(t, rows[2].LeftID, ans.Pairs[1].LeftID)
}

func TestPairRestoreSkipsUnknownIDs(t *testing.T) {
	rows := pairRows(3)
	u := NewPairUnit(rows, nil, false)

	skipped := u.Restore(model.Answer{Pairs: []model.PairSelection{
		{LeftID: rows[0].LeftID, RightID: rows[2].RightID},
		{LeftID: uuid.New(), RightID: rows[1].RightID},
	}})
	assert.Equal(t, 1, skipped)
	assert.Equal(t, rows[2].RightID, *u.AssignedTo(rows[0].LeftID))
	assert.Nil(t, u.AssignedTo(rows[1].LeftID))
}

func TestPairRestoreSkipsDuplicateAssignments(t *testing.T) {
	rows := pairRows(2)
	u := NewPairUnit(rows, nil, false)

	// The same item claimed by both anchors: the first claim wins and
	// the second counts as skipped.
	skipped := u.Restore(model.Answer{Pairs: []model.PairSelection{
		{LeftID: rows[0].LeftID, RightID: rows[0].RightID},
		{LeftID: rows[1].LeftID, RightID: rows[0].RightID},
	}})
	assert.Equal(t, 1, skipped)
	assert.Equal(t, rows[0].RightID, *u.AssignedTo(rows[0].LeftID))
	assert.Nil(t, u.AssignedTo(rows[1].LeftID))
	assert.False(t, u.Complete())
	assert.Equal(t, []uuid.UUID{rows[1].RightID}, u.Pool())

	// Same anchor claimed twice.
	skipped = u.Restore(model.Answer{Pairs: []model.PairSelection{
		{LeftID: rows[0].LeftID, RightID: rows[0].RightID},
		{LeftID: rows[0].LeftID, RightID: rows[1].RightID},
	}})
	assert.Equal(t, 1, skipped)
	assert.Equal(t, rows[0].RightID, *u.AssignedTo(rows[0].LeftID))
}

func TestPairInvariantUnderRandomOps(t *testing.T) {
	rows := pairRows(6)
	rng := rand.New(rand.NewSource(99))
	u := NewPairUnit(rows, rng, true)

	for step := 0; step < 500; step++ {
		item := rows[rng.Intn(len(rows))].RightID
		if rng.Intn(4) == 0 {
			require.NoError(t, u.ReturnToPool(item))
		} else {
			require.NoError(t, u.Drop(item, rows[rng.Intn(len(rows))].LeftID))
		}

		// Every item exists exactly once, on an anchor or in the pool.
		seen := make(map[uuid.UUID]int, len(rows))
		for _, anchor := range u.Anchors() {
			if it := u.AssignedTo(anchor); it != nil {
				seen[*it]++
			}
		}
		for _, it := range u.Pool() {
			seen[it]++
		}
		require.Len(t, seen, len(rows), "step %d", step)
		for _, n := range seen {
			require.Equal(t, 1, n, "step %d", step)
		}
	}
}

func TestPairLockedInViewMode(t *testing.T) {
	rows := pairRows(2)
	u := NewPairUnit(rows, nil, false)
	u.SetMode(ModeView)

	assert.ErrorIs(t, u.Drop(rows[0].RightID, rows[1].LeftID), ErrLocked)
	assert.ErrorIs(t, u.ReturnToPool(rows[0].RightID), ErrLocked)
}
