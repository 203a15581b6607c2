package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/model"
)

var (
	ErrAlreadySubmitted   = errors.New("engine: question already has an answer record")
	ErrSubmissionInFlight = errors.New("engine: a submission for this question is in flight")
	ErrIncompleteAnswer   = errors.New("engine: answer is not complete enough to submit")
)

// AnswerService grades and persists a normalized answer, returning
// the reconciled verdict. The engine never grades locally.
type AnswerService interface {
	Submit(ctx context.Context, questionID uuid.UUID, answer model.Answer) (*model.Verdict, error)
}

// Record is the engine's memory of one graded question. A verdict may
// only color the screen when a record exists.
type Record struct {
	Answer  model.Answer
	Verdict *model.Verdict
}

// Coordinator serializes submissions per question and guarantees each
// question is graded at most once. A failed grading call leaves no
// trace, so the student can retry.
type Coordinator struct {
	svc      AnswerService
	inflight map[uuid.UUID]bool
	records  map[uuid.UUID]*Record
}

func NewCoordinator(svc AnswerService) *Coordinator {
	return &Coordinator{
		svc:      svc,
		inflight: make(map[uuid.UUID]bool),
		records:  make(map[uuid.UUID]*Record),
	}
}

// Seed registers a historical record without grading, used when
// rebuilding an attempt from persisted submissions.
func (c *Coordinator) Seed(questionID uuid.UUID, rec Record) {
	c.records[questionID] = &rec
}

// Record returns the answer record for a question, or nil.
func (c *Coordinator) Record(questionID uuid.UUID) *Record {
	return c.records[questionID]
}

// Submit snapshots the unit's answer and sends it for grading. On
// success the unit freezes and the record is stored; on failure the
// unit stays editable with its answer intact.
func (c *Coordinator) Submit(ctx context.Context, questionID uuid.UUID, unit capture.Unit) (*model.Verdict, error) {
	if c.records[questionID] != nil {
		return nil, ErrAlreadySubmitted
	}
	if c.inflight[questionID] {
		return nil, ErrSubmissionInFlight
	}
	if !unit.Complete() {
		return nil, ErrIncompleteAnswer
	}

	c.inflight[questionID] = true
	defer delete(c.inflight, questionID)

	answer := unit.Answer()
	verdict, err := c.svc.Submit(ctx, questionID, answer)
	if err != nil {
		return nil, err
	}

	c.records[questionID] = &Record{Answer: answer, Verdict: verdict}
	unit.SetMode(capture.ModeSubmitted)
	return verdict, nil
}
