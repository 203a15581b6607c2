// Package capture implements the per-question answer units. Each unit
// owns the working answer for one question and enforces the editing
// rules of its shape; the surrounding session decides when a unit
// becomes read-only.
package capture

import (
	"errors"

	"github.com/lumilearn/activity-backend/internal/model"
)

// Mode gates mutation of a unit.
type Mode int

const (
	// ModeEditable accepts selections and placements.
	ModeEditable Mode = iota
	// ModeSubmitted freezes the unit after a graded submission.
	ModeSubmitted
	// ModeView renders a historical answer without accepting edits.
	ModeView
)

var (
	ErrLocked        = errors.New("capture: unit is not editable")
	ErrUnknownOption = errors.New("capture: option not in catalog")
	ErrUnknownAnchor = errors.New("capture: anchor not in catalog")
	ErrUnknownItem   = errors.New("capture: item not in catalog")
	ErrUnknownCell   = errors.New("capture: cell not in catalog")
	ErrUnknownTile   = errors.New("capture: tile not in catalog")
)

// Unit is the common surface of the three answer shapes.
type Unit interface {
	Shape() model.Shape
	Mode() Mode
	SetMode(Mode)

	// Answer snapshots the current working answer in normalized form.
	Answer() model.Answer

	// Complete reports whether the unit holds enough of an answer to
	// submit.
	Complete() bool

	// Reset clears the working answer back to the unit's initial state.
	Reset()

	// Restore loads a previously recorded answer. Entries referencing
	// ids absent from the catalog are skipped; the count of skipped
	// entries is returned and the matching slots stay empty.
	Restore(prior model.Answer) int
}

// ForQuestion builds the unit matching the question's shape. rng and
// shuffle only affect the pair-match shape, which presents its lists
// in randomized order on a fresh attempt.
func ForQuestion(q *model.Question, shape model.Shape, rng Shuffler, shuffle bool) Unit {
	switch shape {
	case model.ShapePairMatch:
		return NewPairUnit(q.PairOptions, rng, shuffle)
	case model.ShapeSpatial:
		return NewSpatialUnit(q.SpatialCells, q.SpatialTiles)
	default:
		return NewChoiceUnit(q.ChoiceOptions)
	}
}

// Shuffler is the subset of math/rand used for list ordering.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}
