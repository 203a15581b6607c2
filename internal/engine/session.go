// Package engine runs one student's attempt at one activity: question
// sequencing, answer capture, drag gesture handling and submission
// reconciliation. A session is single-goroutine; its owner (the
// websocket read loop or an HTTP handler) serializes all calls.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/engine/gesture"
	"github.com/lumilearn/activity-backend/internal/model"
)

var (
	ErrViewOnly      = errors.New("engine: attempt is view-only")
	ErrShapeMismatch = errors.New("engine: operation does not match the activity shape")
	ErrNoQuestion    = errors.New("engine: activity has no questions")
	ErrBadItemKey    = errors.New("engine: drag item key is not a valid id")
)

// PoolTarget is the drop zone key for returning an item to the pool.
const PoolTarget = "pool"

// AnchorTargetPrefix prefixes pair-match anchor drop zone keys.
const AnchorTargetPrefix = "anchor:"

// Config tunes session construction.
type Config struct {
	// ViewOnly locks every unit; the attempt can be browsed but not
	// answered. Used for past activities.
	ViewOnly bool
	// FreeNavigation lifts the forward navigation restriction while no
	// question has been submitted. Set for brand-new attempts; once the
	// first answer lands the usual rules take over.
	FreeNavigation bool
	// Rand drives list shuffling. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// DragEffect reports what a finished gesture did to the working
// answer.
type DragEffect struct {
	Outcome gesture.Outcome `json:"outcome"`
	Item    string          `json:"item,omitempty"`
	Target  string          `json:"target,omitempty"`
	// Applied is false when the gesture ended without touching the
	// answer, e.g. a tap or a cancel.
	Applied bool `json:"applied"`
}

// Session is a live attempt. Construct one per connection with
// NewSession and drive it from a single goroutine.
type Session struct {
	activity  *model.Activity
	questions map[uuid.UUID]*model.Question

	units   map[uuid.UUID]capture.Unit
	seq     *Sequencer
	coord   *Coordinator
	tracker *gesture.Tracker

	cfg Config
	log zerolog.Logger
}

// NewSession rebuilds the attempt described by the snapshot and
// positions it at the first unanswered question.
func NewSession(cfg Config, snap Snapshot, svc AnswerService, log zerolog.Logger) (*Session, error) {
	if len(snap.Questions) == 0 {
		return nil, ErrNoQuestion
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	log = log.With().
		Str("component", "engine").
		Str("activity_id", snap.Activity.ID.String()).
		Logger()

	units, seq, coord := rebuild(snap, svc, rng, cfg.ViewOnly, log)

	questions := make(map[uuid.UUID]*model.Question, len(snap.Questions))
	for _, q := range snap.Questions {
		questions[q.ID] = q
	}

	return &Session{
		activity:  snap.Activity,
		questions: questions,
		units:     units,
		seq:       seq,
		coord:     coord,
		tracker:   gesture.NewTracker(),
		cfg:       cfg,
		log:       log,
	}, nil
}

// Activity returns the activity under attempt.
func (s *Session) Activity() *model.Activity { return s.activity }

// Len returns the number of questions.
func (s *Session) Len() int { return s.seq.Len() }

// ViewOnly reports whether the attempt is locked for browsing.
func (s *Session) ViewOnly() bool { return s.cfg.ViewOnly }

// Phase returns the attempt phase.
func (s *Session) Phase() Phase { return s.seq.Phase() }

// Current returns the active question, its capture unit and index.
func (s *Session) Current() (*model.Question, capture.Unit, int) {
	id, idx := s.seq.Current()
	return s.questions[id], s.units[id], idx
}

// Record returns the answer record for a question, or nil when the
// question was never submitted. Rendering code must not color an
// answer without one.
func (s *Session) Record(questionID uuid.UUID) *Record {
	return s.coord.Record(questionID)
}

// Navigate jumps to the question at the target index, subject to the
// sequencing rules.
func (s *Session) Navigate(target int) error {
	s.tracker.Abort()
	return s.seq.Goto(target, s.freeNavigation())
}

func (s *Session) freeNavigation() bool {
	if s.cfg.ViewOnly || s.activity.Status == model.ActivityStatusPast {
		return true
	}
	return s.cfg.FreeNavigation && s.seq.Fresh()
}

// Select picks an option on the current single-choice question.
func (s *Session) Select(optionID uuid.UUID) error {
	if s.cfg.ViewOnly {
		return ErrViewOnly
	}
	_, unit, _ := s.Current()
	choice, ok := unit.(*capture.ChoiceUnit)
	if !ok {
		return ErrShapeMismatch
	}
	return choice.Select(optionID)
}

// SetLayout registers the client's current drop zone rectangles.
func (s *Session) SetLayout(targets []gesture.Target) {
	s.tracker.SetTargets(targets)
}

// BeginDrag starts a gesture on an item of the current question.
func (s *Session) BeginDrag(source gesture.Source, item string, at gesture.Point) error {
	if s.cfg.ViewOnly {
		return ErrViewOnly
	}
	if _, err := uuid.Parse(item); err != nil {
		return ErrBadItemKey
	}
	return s.tracker.Begin(source, item, at)
}

// MoveDrag feeds a position sample and reports hover changes.
func (s *Session) MoveDrag(at gesture.Point) (hover string, changed bool, err error) {
	return s.tracker.Move(at)
}

// ScrollLocked reports whether the client should suppress scrolling.
func (s *Session) ScrollLocked() bool { return s.tracker.ScrollLocked() }

// AbortDrag cancels any gesture in flight.
func (s *Session) AbortDrag() { s.tracker.Abort() }

// EndDrag finishes the gesture and applies its outcome to the current
// question's answer.
func (s *Session) EndDrag(at gesture.Point) (*DragEffect, error) {
	res, err := s.tracker.End(at)
	if err != nil {
		return nil, err
	}
	effect := &DragEffect{Outcome: res.Outcome, Item: res.Item, Target: res.Target}
	if res.Outcome != gesture.OutcomeDrop {
		return effect, nil
	}

	itemID, err := uuid.Parse(res.Item)
	if err != nil {
		return nil, ErrBadItemKey
	}
	_, unit, _ := s.Current()
	switch u := unit.(type) {
	case *capture.PairUnit:
		err = s.applyPairDrop(u, itemID, res.Target)
	case *capture.SpatialUnit:
		err = s.applySpatialDrop(u, itemID, res.Target)
	default:
		return nil, ErrShapeMismatch
	}
	if err != nil {
		return nil, err
	}
	effect.Applied = true
	return effect, nil
}

func (s *Session) applyPairDrop(u *capture.PairUnit, itemID uuid.UUID, target string) error {
	if target == PoolTarget {
		return u.ReturnToPool(itemID)
	}
	raw, ok := strings.CutPrefix(target, AnchorTargetPrefix)
	if !ok {
		return capture.ErrUnknownAnchor
	}
	anchorID, err := uuid.Parse(raw)
	if err != nil {
		return capture.ErrUnknownAnchor
	}
	return u.Drop(itemID, anchorID)
}

func (s *Session) applySpatialDrop(u *capture.SpatialUnit, tileID uuid.UUID, target string) error {
	if target == PoolTarget {
		return u.Remove(tileID)
	}
	return u.Place(tileID, target)
}

// Remove sends an item straight back to the pool without a gesture.
// This is the keyboard-accessible path.
func (s *Session) Remove(item string) error {
	if s.cfg.ViewOnly {
		return ErrViewOnly
	}
	itemID, err := uuid.Parse(item)
	if err != nil {
		return ErrBadItemKey
	}
	_, unit, _ := s.Current()
	switch u := unit.(type) {
	case *capture.PairUnit:
		return u.ReturnToPool(itemID)
	case *capture.SpatialUnit:
		return u.Remove(itemID)
	default:
		return ErrShapeMismatch
	}
}

// Submit grades the current question. The sequencer stays put so the
// client can show feedback; DismissFeedback moves on.
func (s *Session) Submit(ctx context.Context) (*model.Verdict, error) {
	if s.cfg.ViewOnly {
		return nil, ErrViewOnly
	}
	s.tracker.Abort()
	id, _ := s.seq.Current()
	verdict, err := s.coord.Submit(ctx, id, s.units[id])
	if err != nil {
		return nil, err
	}
	s.seq.MarkSubmitted(id)
	verdict.ActivityCompleted = s.seq.AllSubmitted()
	s.log.Debug().
		Str("question_id", id.String()).
		Bool("is_correct", verdict.IsCorrect).
		Msg("question submitted")
	return verdict, nil
}

// DismissFeedback advances past the just-answered question. It
// reports true when no unanswered question remains.
func (s *Session) DismissFeedback() (done bool) {
	if _, ok := s.seq.Advance(); ok {
		return false
	}
	return true
}
