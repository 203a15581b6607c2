// Package gesture normalizes pointer and touch input into a single
// drag lifecycle. Client code streams raw samples; the tracker decides
// when a drag really starts, which drop target is hovered, and whether
// release means a drop, a tap, or a cancel.
package gesture

import "errors"

// Source identifies the input device that initiated a gesture.
type Source string

const (
	SourcePointer Source = "pointer"
	SourceTouch   Source = "touch"
)

// TouchSlop is the distance in CSS pixels a touch must travel before
// it is treated as a drag instead of a tap.
const TouchSlop = 10.0

// Point is a screen coordinate sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p falls inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Target is a registered drop zone.
type Target struct {
	Key  string `json:"key"`
	Rect Rect   `json:"rect"`
}

type phase int

const (
	phaseIdle phase = iota
	// armed: a touch is down on an item but has not yet crossed the
	// slop distance, so it may still turn out to be a tap.
	phaseArmed
	phaseDragging
)

// Outcome classifies how a gesture ended.
type Outcome string

const (
	// OutcomeDrop means the item was released over a registered target.
	OutcomeDrop Outcome = "drop"
	// OutcomeTap means a touch ended without ever crossing the slop
	// distance. Nothing is dropped.
	OutcomeTap Outcome = "tap"
	// OutcomeCancel means the drag ended outside every target or was
	// aborted.
	OutcomeCancel Outcome = "cancel"
)

// Result describes a finished gesture.
type Result struct {
	Outcome Outcome
	Item    string
	Target  string
}

var (
	ErrDragActive = errors.New("gesture: a drag is already active")
	ErrNoDrag     = errors.New("gesture: no active drag")
)

// Tracker runs the drag state machine for one client. It is not safe
// for concurrent use; the owning session drives it from a single
// goroutine.
type Tracker struct {
	targets []Target

	state  phase
	source Source
	item   string
	origin Point
	hover  string
}

// NewTracker returns an idle tracker with no registered targets.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetTargets replaces the registered drop zones. The client reports
// these whenever its layout changes, including mid-drag; the current
// hover is re-evaluated on the next move sample.
func (t *Tracker) SetTargets(targets []Target) {
	t.targets = targets
}

// Active reports whether a gesture is in flight.
func (t *Tracker) Active() bool {
	return t.state != phaseIdle
}

// ScrollLocked reports whether the client should suppress scrolling.
// Only a touch gesture that has committed to dragging locks scroll; an
// armed touch may still become a scroll or a tap.
func (t *Tracker) ScrollLocked() bool {
	return t.state == phaseDragging && t.source == SourceTouch
}

// Hover returns the key of the currently hovered target, or "".
func (t *Tracker) Hover() string {
	return t.hover
}

// Item returns the key of the item being dragged, or "".
func (t *Tracker) Item() string {
	return t.item
}

// Begin starts tracking a gesture on the given item. Pointer gestures
// drag immediately; touch gestures stay armed until they cross the
// slop distance.
func (t *Tracker) Begin(source Source, item string, at Point) error {
	if t.state != phaseIdle {
		return ErrDragActive
	}
	t.source = source
	t.item = item
	t.origin = at
	t.hover = ""
	if source == SourceTouch {
		t.state = phaseArmed
	} else {
		t.state = phaseDragging
	}
	return nil
}

// Move feeds a position sample. It returns the hovered target key and
// whether the hover changed since the previous sample. An armed touch
// promotes to dragging once it crosses the slop distance; samples
// before that report no hover.
func (t *Tracker) Move(at Point) (hover string, changed bool, err error) {
	switch t.state {
	case phaseIdle:
		return "", false, ErrNoDrag
	case phaseArmed:
		if !t.exceedsSlop(at) {
			return "", false, nil
		}
		t.state = phaseDragging
	}
	hover = t.hitTest(at)
	changed = hover != t.hover
	t.hover = hover
	return hover, changed, nil
}

// End finishes the gesture at the given position. A touch that never
// crossed the slop distance is a tap; otherwise the item drops on the
// target under the release point, or the gesture cancels if there is
// none.
func (t *Tracker) End(at Point) (Result, error) {
	if t.state == phaseIdle {
		return Result{}, ErrNoDrag
	}
	res := Result{Item: t.item}
	if t.state == phaseArmed {
		res.Outcome = OutcomeTap
	} else if target := t.hitTest(at); target != "" {
		res.Outcome = OutcomeDrop
		res.Target = target
	} else {
		res.Outcome = OutcomeCancel
	}
	t.reset()
	return res, nil
}

// Abort cancels any gesture in flight. Aborting an idle tracker is a
// no-op.
func (t *Tracker) Abort() {
	t.reset()
}

func (t *Tracker) reset() {
	t.state = phaseIdle
	t.source = ""
	t.item = ""
	t.hover = ""
}

func (t *Tracker) exceedsSlop(at Point) bool {
	dx := at.X - t.origin.X
	dy := at.Y - t.origin.Y
	return dx*dx+dy*dy > TouchSlop*TouchSlop
}

// hitTest returns the key of the topmost target containing p. Later
// registrations win, mirroring document paint order.
func (t *Tracker) hitTest(p Point) string {
	for i := len(t.targets) - 1; i >= 0; i-- {
		if t.targets[i].Rect.Contains(p) {
			return t.targets[i].Key
		}
	}
	return ""
}
