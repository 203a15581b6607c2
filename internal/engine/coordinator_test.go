package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/model"
)

// stubService counts grading calls and can fail on demand.
type stubService struct {
	calls    int
	err      error
	last     model.Answer
	onSubmit func(questionID uuid.UUID)
}

func (s *stubService) Submit(_ context.Context, questionID uuid.UUID, answer model.Answer) (*model.Verdict, error) {
	s.calls++
	s.last = answer
	if s.onSubmit != nil {
		s.onSubmit(questionID)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &model.Verdict{QuestionID: questionID, IsCorrect: true, PointsEarned: 1}, nil
}

func completeChoiceUnit(t *testing.T) (*capture.ChoiceUnit, uuid.UUID) {
	t.Helper()
	opt := model.ChoiceOption{ID: uuid.New()}
	u := capture.NewChoiceUnit([]model.ChoiceOption{opt})
	require.NoError(t, u.Select(opt.ID))
	return u, opt.ID
}

func TestCoordinatorSubmitOnce(t *testing.T) {
	svc := &stubService{}
	c := NewCoordinator(svc)
	unit, optID := completeChoiceUnit(t)
	q := uuid.New()

	verdict, err := c.Submit(context.Background(), q, unit)
	require.NoError(t, err)
	assert.True(t, verdict.IsCorrect)
	assert.Equal(t, optID, *svc.last.OptionID)
	assert.Equal(t, capture.ModeSubmitted, unit.Mode())

	_, err = c.Submit(context.Background(), q, unit)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, svc.calls)
}

func TestCoordinatorReentrantSubmitBlocked(t *testing.T) {
	// The service itself tries to submit again mid-flight, the way a
	// double-fired UI event would.
	svc := &stubService{}
	c := NewCoordinator(svc)
	unit, _ := completeChoiceUnit(t)
	q := uuid.New()

	var reentrantErr error
	svc.onSubmit = func(questionID uuid.UUID) {
		_, reentrantErr = c.Submit(context.Background(), questionID, unit)
	}

	_, err := c.Submit(context.Background(), q, unit)
	require.NoError(t, err)
	assert.ErrorIs(t, reentrantErr, ErrSubmissionInFlight)
	assert.Equal(t, 1, svc.calls)
}

func TestCoordinatorIncompleteAnswer(t *testing.T) {
	svc := &stubService{}
	c := NewCoordinator(svc)
	unit := capture.NewChoiceUnit([]model.ChoiceOption{{ID: uuid.New()}})

	_, err := c.Submit(context.Background(), uuid.New(), unit)
	assert.ErrorIs(t, err, ErrIncompleteAnswer)
	assert.Zero(t, svc.calls)
}

func TestCoordinatorFailureLeavesNoTrace(t *testing.T) {
	svc := &stubService{err: errors.New("grading backend down")}
	c := NewCoordinator(svc)
	unit, optID := completeChoiceUnit(t)
	q := uuid.New()

	_, err := c.Submit(context.Background(), q, unit)
	require.Error(t, err)
	assert.Nil(t, c.Record(q))
	assert.Equal(t, capture.ModeEditable, unit.Mode())
	assert.Equal(t, optID, *unit.Selected())

	// The retry goes through once the backend recovers.
	svc.err = nil
	_, err = c.Submit(context.Background(), q, unit)
	require.NoError(t, err)
	assert.NotNil(t, c.Record(q))
}

func TestCoordinatorSeededRecordBlocksResubmit(t *testing.T) {
	svc := &stubService{}
	c := NewCoordinator(svc)
	unit, optID := completeChoiceUnit(t)
	q := uuid.New()

	c.Seed(q, Record{Answer: model.Answer{OptionID: &optID}})

	_, err := c.Submit(context.Background(), q, unit)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Zero(t, svc.calls)
}
