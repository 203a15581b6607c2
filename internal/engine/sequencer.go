package engine

import (
	"errors"

	"github.com/google/uuid"
)

// Phase is the coarse lifecycle of an attempt.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
)

var ErrNavigationBlocked = errors.New("engine: navigation to that question is not allowed")

// Sequencer owns question ordering and the navigation rules of an
// attempt. Students may revisit submitted questions and reach the
// first unanswered one, but never jump past it.
type Sequencer struct {
	ids       []uuid.UUID
	submitted map[uuid.UUID]bool
	current   int
	started   bool
}

func NewSequencer(ids []uuid.UUID) *Sequencer {
	return &Sequencer{
		ids:       ids,
		submitted: make(map[uuid.UUID]bool, len(ids)),
	}
}

func (s *Sequencer) Len() int { return len(s.ids) }

// Current returns the active question id and its index.
func (s *Sequencer) Current() (uuid.UUID, int) {
	if len(s.ids) == 0 {
		return uuid.Nil, -1
	}
	return s.ids[s.current], s.current
}

// IDAt returns the question id at the given index.
func (s *Sequencer) IDAt(index int) (uuid.UUID, bool) {
	if index < 0 || index >= len(s.ids) {
		return uuid.Nil, false
	}
	return s.ids[index], true
}

func (s *Sequencer) Submitted(id uuid.UUID) bool {
	return s.submitted[id]
}

func (s *Sequencer) MarkSubmitted(id uuid.UUID) {
	s.submitted[id] = true
	s.started = true
}

// Fresh reports whether no question has a submission yet.
func (s *Sequencer) Fresh() bool {
	return len(s.submitted) == 0
}

func (s *Sequencer) AllSubmitted() bool {
	if len(s.ids) == 0 {
		return false
	}
	for _, id := range s.ids {
		if !s.submitted[id] {
			return false
		}
	}
	return true
}

// FirstUnanswered returns the index of the first question without a
// submission, or len(ids) when everything is answered.
func (s *Sequencer) FirstUnanswered() int {
	for i, id := range s.ids {
		if !s.submitted[id] {
			return i
		}
	}
	return len(s.ids)
}

// Phase derives the attempt phase from the submission set.
func (s *Sequencer) Phase() Phase {
	switch {
	case s.AllSubmitted():
		return PhaseComplete
	case s.started:
		return PhaseInProgress
	default:
		return PhaseNotStarted
	}
}

// CanNavigate reports whether a jump to the target index is allowed.
// free bypasses the forward restriction, used for completed or
// view-only attempts.
func (s *Sequencer) CanNavigate(target int, free bool) bool {
	if target < 0 || target >= len(s.ids) {
		return false
	}
	if free || s.AllSubmitted() || s.submitted[s.ids[target]] {
		return true
	}
	return target <= s.FirstUnanswered()
}

// Goto moves to the target index, enforcing CanNavigate.
func (s *Sequencer) Goto(target int, free bool) error {
	if !s.CanNavigate(target, free) {
		return ErrNavigationBlocked
	}
	s.current = target
	s.started = true
	return nil
}

// Resume positions the attempt at the first unanswered question, or
// at the last question when everything is answered. Calling it again
// on an untouched sequencer lands in the same place.
func (s *Sequencer) Resume() int {
	idx := s.FirstUnanswered()
	if idx >= len(s.ids) {
		idx = len(s.ids) - 1
	}
	if idx < 0 {
		idx = 0
	}
	s.current = idx
	return idx
}

// Advance moves to the next unanswered question after the current
// position, wrapping to earlier gaps. It reports false when no
// unanswered question remains.
func (s *Sequencer) Advance() (uuid.UUID, bool) {
	n := len(s.ids)
	for step := 1; step <= n; step++ {
		idx := (s.current + step) % n
		if !s.submitted[s.ids[idx]] {
			s.current = idx
			return s.ids[idx], true
		}
	}
	return uuid.Nil, false
}
