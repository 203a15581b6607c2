package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoZones() []Target {
	return []Target{
		{Key: "left", Rect: Rect{X: 0, Y: 0, W: 100, H: 100}},
		{Key: "right", Rect: Rect{X: 100, Y: 0, W: 100, H: 100}},
	}
}

func TestPointerDragDrops(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets(twoZones())

	require.NoError(t, tr.Begin(SourcePointer, "tile-1", Point{X: 10, Y: 10}))
	assert.True(t, tr.Active())

	hover, changed, err := tr.Move(Point{X: 150, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, "right", hover)
	assert.True(t, changed)

	res, err := tr.End(Point{X: 150, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDrop, res.Outcome)
	assert.Equal(t, "tile-1", res.Item)
	assert.Equal(t, "right", res.Target)
	assert.False(t, tr.Active())
}

func TestTouchBelowSlopIsTap(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets(twoZones())

	require.NoError(t, tr.Begin(SourceTouch, "tile-1", Point{X: 50, Y: 50}))

	// Jitter within the slop distance must not start a drag.
	hover, changed, err := tr.Move(Point{X: 54, Y: 53})
	require.NoError(t, err)
	assert.Empty(t, hover)
	assert.False(t, changed)
	assert.False(t, tr.ScrollLocked())

	res, err := tr.End(Point{X: 54, Y: 53})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTap, res.Outcome)
	assert.Empty(t, res.Target)
}

func TestTouchCrossingSlopDrags(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets(twoZones())

	require.NoError(t, tr.Begin(SourceTouch, "tile-2", Point{X: 50, Y: 50}))

	hover, changed, err := tr.Move(Point{X: 70, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, "left", hover)
	assert.True(t, changed)
	assert.True(t, tr.ScrollLocked())

	res, err := tr.End(Point{X: 150, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDrop, res.Outcome)
	assert.Equal(t, "right", res.Target)
}

func TestHoverReportsChangesOnly(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets(twoZones())

	require.NoError(t, tr.Begin(SourcePointer, "tile-1", Point{X: 10, Y: 10}))

	_, changed, err := tr.Move(Point{X: 20, Y: 20})
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = tr.Move(Point{X: 30, Y: 30})
	require.NoError(t, err)
	assert.False(t, changed)

	hover, changed, err := tr.Move(Point{X: 500, Y: 500})
	require.NoError(t, err)
	assert.Empty(t, hover)
	assert.True(t, changed)
}

func TestReleaseOutsideTargetsCancels(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets(twoZones())

	require.NoError(t, tr.Begin(SourcePointer, "tile-1", Point{X: 10, Y: 10}))
	res, err := tr.End(Point{X: 500, Y: 500})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancel, res.Outcome)
}

func TestSingleGestureAtATime(t *testing.T) {
	tr := NewTracker()

	require.NoError(t, tr.Begin(SourcePointer, "a", Point{}))
	assert.ErrorIs(t, tr.Begin(SourceTouch, "b", Point{}), ErrDragActive)

	tr.Abort()
	assert.False(t, tr.Active())
	require.NoError(t, tr.Begin(SourceTouch, "b", Point{}))
}

func TestMoveAndEndRequireActiveDrag(t *testing.T) {
	tr := NewTracker()

	_, _, err := tr.Move(Point{})
	assert.ErrorIs(t, err, ErrNoDrag)
	_, err = tr.End(Point{})
	assert.ErrorIs(t, err, ErrNoDrag)
}

func TestPointerNeverLocksScroll(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Begin(SourcePointer, "a", Point{}))
	_, _, err := tr.Move(Point{X: 50, Y: 50})
	require.NoError(t, err)
	assert.False(t, tr.ScrollLocked())
}

func TestLayoutChangeMidDrag(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets(twoZones())

	require.NoError(t, tr.Begin(SourcePointer, "tile-1", Point{X: 10, Y: 10}))
	hover, _, err := tr.Move(Point{X: 150, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, "right", hover)

	// The zones shift; the same sample now lands elsewhere.
	tr.SetTargets([]Target{{Key: "left", Rect: Rect{X: 100, Y: 0, W: 100, H: 100}}})
	hover, changed, err := tr.Move(Point{X: 150, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, "left", hover)
	assert.True(t, changed)
}

func TestOverlappingTargetsTopmostWins(t *testing.T) {
	tr := NewTracker()
	tr.SetTargets([]Target{
		{Key: "under", Rect: Rect{X: 0, Y: 0, W: 200, H: 200}},
		{Key: "over", Rect: Rect{X: 50, Y: 50, W: 100, H: 100}},
	})

	require.NoError(t, tr.Begin(SourcePointer, "a", Point{X: 0, Y: 0}))
	hover, _, err := tr.Move(Point{X: 75, Y: 75})
	require.NoError(t, err)
	assert.Equal(t, "over", hover)
}
