package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumilearn/activity-backend/internal/engine/capture"
	"github.com/lumilearn/activity-backend/internal/engine/gesture"
	"github.com/lumilearn/activity-backend/internal/model"
)

func choiceSnapshot(n int) Snapshot {
	act := &model.Activity{ID: uuid.New(), Shape: model.ShapeSingleChoice, Status: model.ActivityStatusPublished}
	questions := make([]*model.Question, n)
	for i := range questions {
		questions[i] = &model.Question{
			ID:         uuid.New(),
			ActivityID: act.ID,
			Sequence:   i,
			ChoiceOptions: []model.ChoiceOption{
				{ID: uuid.New(), Sequence: 0},
				{ID: uuid.New(), Sequence: 1},
				{ID: uuid.New(), Sequence: 2},
			},
		}
	}
	return Snapshot{Activity: act, Questions: questions}
}

func pairSnapshot() Snapshot {
	act := &model.Activity{ID: uuid.New(), Shape: model.ShapePairMatch, Status: model.ActivityStatusPublished}
	q := &model.Question{ID: uuid.New(), ActivityID: act.ID}
	for i := 0; i < 3; i++ {
		q.PairOptions = append(q.PairOptions, model.PairOption{
			ID:       uuid.New(),
			LeftID:   uuid.New(),
			RightID:  uuid.New(),
			Sequence: i,
		})
	}
	return Snapshot{Activity: act, Questions: []*model.Question{q}}
}

func spatialSnapshot() Snapshot {
	act := &model.Activity{ID: uuid.New(), Shape: model.ShapeSpatial, Status: model.ActivityStatusPublished}
	q := &model.Question{
		ID:         uuid.New(),
		ActivityID: act.ID,
		Rows:       1,
		Cols:       2,
		SpatialCells: []model.SpatialCell{
			{ID: uuid.New(), Position: "C1R1"},
			{ID: uuid.New(), Position: "C2R1"},
		},
		SpatialTiles: []model.SpatialTile{
			{ID: uuid.New(), Points: 2},
			{ID: uuid.New(), Points: 3},
		},
	}
	return Snapshot{Activity: act, Questions: []*model.Question{q}}
}

func testSession(t *testing.T, cfg Config, snap Snapshot, svc AnswerService) *Session {
	t.Helper()
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(42))
	}
	s, err := NewSession(cfg, snap, svc, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSessionFreshChoiceFlow(t *testing.T) {
	svc := &stubService{}
	snap := choiceSnapshot(3)
	s := testSession(t, Config{}, snap, svc)

	assert.Equal(t, PhaseNotStarted, s.Phase())
	q, _, idx := s.Current()
	assert.Equal(t, snap.Questions[0].ID, q.ID)
	assert.Zero(t, idx)

	// Answer every question in order, dismissing feedback between.
	for i := 0; i < 3; i++ {
		q, _, _ := s.Current()
		require.NoError(t, s.Select(q.ChoiceOptions[1].ID))
		verdict, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, q.ID, verdict.QuestionID)
		assert.Equal(t, i == 2, verdict.ActivityCompleted)
		assert.Equal(t, i == 2, s.DismissFeedback())
	}

	assert.Equal(t, PhaseComplete, s.Phase())
	assert.Equal(t, 3, svc.calls)
}

func TestSessionSubmitTwiceRejected(t *testing.T) {
	svc := &stubService{}
	s := testSession(t, Config{}, choiceSnapshot(1), svc)

	q, _, _ := s.Current()
	require.NoError(t, s.Select(q.ChoiceOptions[0].ID))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, svc.calls)
}

func TestSessionNavigationRestriction(t *testing.T) {
	svc := &stubService{}
	snap := choiceSnapshot(5)

	// Two questions already on record.
	snap.Submissions = []*model.Submission{
		{QuestionID: snap.Questions[0].ID, Answer: model.Answer{OptionID: &snap.Questions[0].ChoiceOptions[0].ID}},
		{QuestionID: snap.Questions[1].ID, Answer: model.Answer{OptionID: &snap.Questions[1].ChoiceOptions[2].ID}},
	}
	s := testSession(t, Config{}, snap, svc)

	// Resumes at the first unanswered question.
	_, _, idx := s.Current()
	assert.Equal(t, 2, idx)

	assert.NoError(t, s.Navigate(0))
	assert.NoError(t, s.Navigate(2))
	assert.ErrorIs(t, s.Navigate(3), ErrNavigationBlocked)
	assert.ErrorIs(t, s.Navigate(4), ErrNavigationBlocked)
}

func TestSessionFreshAttemptNavigatesFreely(t *testing.T) {
	svc := &stubService{}
	s := testSession(t, Config{FreeNavigation: true}, choiceSnapshot(5), svc)

	// Nothing answered yet: any index is reachable.
	require.NoError(t, s.Navigate(3))
	require.NoError(t, s.Navigate(0))

	// The freedom ends with the first submission.
	q, _, _ := s.Current()
	require.NoError(t, s.Select(q.ChoiceOptions[0].ID))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Navigate(4), ErrNavigationBlocked)
	assert.NoError(t, s.Navigate(1))
}

func TestSessionReviewKeepsFullVerdict(t *testing.T) {
	snap := choiceSnapshot(2)
	snap.Activity.Status = model.ActivityStatusPast
	q := snap.Questions[0]
	chosen := q.ChoiceOptions[0].ID
	correct := q.ChoiceOptions[2].ID
	snap.Submissions = []*model.Submission{
		{QuestionID: q.ID, Answer: model.Answer{OptionID: &chosen}},
	}
	snap.Verdicts = map[uuid.UUID]*model.Verdict{
		q.ID: {QuestionID: q.ID, CorrectOptionID: &correct, MaxPoints: 5},
	}
	s := testSession(t, Config{ViewOnly: true}, snap, &stubService{})

	// The regraded verdict survives the rebuild, so review can still
	// show the revealed option.
	rec := s.Record(q.ID)
	require.NotNil(t, rec)
	require.NotNil(t, rec.Verdict.CorrectOptionID)
	assert.Equal(t, correct, *rec.Verdict.CorrectOptionID)
}

func TestSessionResumeIsIdempotent(t *testing.T) {
	svc := &stubService{}
	snap := choiceSnapshot(3)
	chosen := snap.Questions[0].ChoiceOptions[1].ID
	snap.Submissions = []*model.Submission{
		{QuestionID: snap.Questions[0].ID, Answer: model.Answer{OptionID: &chosen}, IsCorrect: true, PointsEarned: 2},
	}

	for i := 0; i < 2; i++ {
		s := testSession(t, Config{}, snap, svc)
		_, _, idx := s.Current()
		assert.Equal(t, 1, idx)

		rec := s.Record(snap.Questions[0].ID)
		require.NotNil(t, rec)
		assert.Equal(t, chosen, *rec.Answer.OptionID)
		assert.True(t, rec.Verdict.IsCorrect)

		// No record for unanswered questions, so nothing to color.
		assert.Nil(t, s.Record(snap.Questions[1].ID))
	}
	assert.Zero(t, svc.calls)
}

func TestSessionViewOnlyLocksEverything(t *testing.T) {
	svc := &stubService{}
	snap := choiceSnapshot(2)
	snap.Activity.Status = model.ActivityStatusPast
	s := testSession(t, Config{ViewOnly: true}, snap, svc)

	q, _, _ := s.Current()
	assert.ErrorIs(t, s.Select(q.ChoiceOptions[0].ID), ErrViewOnly)
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrViewOnly)
	assert.ErrorIs(t, s.BeginDrag(gesture.SourcePointer, uuid.NewString(), gesture.Point{}), ErrViewOnly)

	// Past activities browse freely.
	assert.NoError(t, s.Navigate(1))
	assert.NoError(t, s.Navigate(0))
}

func TestSessionPairDragFlow(t *testing.T) {
	svc := &stubService{}
	snap := pairSnapshot()
	s := testSession(t, Config{}, snap, svc)

	_, unit, _ := s.Current()
	pair := unit.(*capture.PairUnit)
	anchors := pair.Anchors()
	itemOnFirst := *pair.AssignedTo(anchors[0])

	// One wide pool strip and one anchor zone.
	s.SetLayout([]gesture.Target{
		{Key: PoolTarget, Rect: gesture.Rect{X: 0, Y: 200, W: 300, H: 100}},
		{Key: AnchorTargetPrefix + anchors[1].String(), Rect: gesture.Rect{X: 0, Y: 0, W: 100, H: 100}},
	})

	// Drag the first anchor's item onto the second anchor: swap.
	require.NoError(t, s.BeginDrag(gesture.SourcePointer, itemOnFirst.String(), gesture.Point{X: 5, Y: 5}))
	_, _, err := s.MoveDrag(gesture.Point{X: 50, Y: 50})
	require.NoError(t, err)
	effect, err := s.EndDrag(gesture.Point{X: 50, Y: 50})
	require.NoError(t, err)
	assert.True(t, effect.Applied)
	assert.Equal(t, itemOnFirst, *pair.AssignedTo(anchors[1]))
	assert.NotNil(t, pair.AssignedTo(anchors[0]))

	// Drag it off to the pool.
	require.NoError(t, s.BeginDrag(gesture.SourcePointer, itemOnFirst.String(), gesture.Point{X: 50, Y: 50}))
	effect, err = s.EndDrag(gesture.Point{X: 150, Y: 250})
	require.NoError(t, err)
	assert.True(t, effect.Applied)
	assert.Nil(t, pair.AssignedTo(anchors[1]))
	assert.False(t, pair.Complete())
}

func TestSessionTouchTapDoesNotDrop(t *testing.T) {
	svc := &stubService{}
	snap := spatialSnapshot()
	s := testSession(t, Config{}, snap, svc)

	_, unit, _ := s.Current()
	spatial := unit.(*capture.SpatialUnit)
	tile := spatial.Pool()[0]

	s.SetLayout([]gesture.Target{
		{Key: "C1R1", Rect: gesture.Rect{X: 0, Y: 0, W: 100, H: 100}},
	})

	require.NoError(t, s.BeginDrag(gesture.SourceTouch, tile.String(), gesture.Point{X: 50, Y: 50}))
	effect, err := s.EndDrag(gesture.Point{X: 52, Y: 51})
	require.NoError(t, err)
	assert.Equal(t, gesture.OutcomeTap, effect.Outcome)
	assert.False(t, effect.Applied)
	assert.Empty(t, spatial.CellTiles("C1R1"))
}

func TestSessionPartialSpatialSubmit(t *testing.T) {
	svc := &stubService{}
	snap := spatialSnapshot()
	s := testSession(t, Config{}, snap, svc)

	_, unit, _ := s.Current()
	spatial := unit.(*capture.SpatialUnit)

	// Submitting an empty grid is refused.
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteAnswer)

	s.SetLayout([]gesture.Target{
		{Key: "C2R1", Rect: gesture.Rect{X: 100, Y: 0, W: 100, H: 100}},
	})
	tile := spatial.Pool()[0]
	require.NoError(t, s.BeginDrag(gesture.SourcePointer, tile.String(), gesture.Point{X: 10, Y: 10}))
	_, err = s.EndDrag(gesture.Point{X: 150, Y: 50})
	require.NoError(t, err)

	// One placed tile out of two is enough.
	verdict, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, svc.last.Placements, 1)
	assert.Equal(t, tile, svc.last.Placements[0].TileID)
	assert.True(t, verdict.ActivityCompleted)
}

func TestSessionShuffleOnlyWithoutRecord(t *testing.T) {
	snap := pairSnapshot()
	rows := snap.Questions[0].PairOptions

	// With a stored answer the lists keep catalog order so the replay
	// lines up with the record.
	snap.Submissions = []*model.Submission{{
		QuestionID: snap.Questions[0].ID,
		Answer: model.Answer{Pairs: []model.PairSelection{
			{LeftID: rows[0].LeftID, RightID: rows[1].RightID},
		}},
	}}
	s := testSession(t, Config{}, snap, &stubService{})

	_, unit, _ := s.Current()
	pair := unit.(*capture.PairUnit)
	anchors := pair.Anchors()
	for i, row := range rows {
		assert.Equal(t, row.LeftID, anchors[i])
	}
	assert.Equal(t, rows[1].RightID, *pair.AssignedTo(rows[0].LeftID))
	assert.Nil(t, pair.AssignedTo(rows[1].LeftID))
}

func TestSessionNavigateAbortsDrag(t *testing.T) {
	svc := &stubService{}
	snap := choiceSnapshot(2)
	s := testSession(t, Config{FreeNavigation: true}, snap, svc)

	require.NoError(t, s.BeginDrag(gesture.SourcePointer, uuid.NewString(), gesture.Point{}))
	require.NoError(t, s.Navigate(1))
	_, err := s.EndDrag(gesture.Point{})
	assert.ErrorIs(t, err, gesture.ErrNoDrag)
}

func TestSessionEmptyActivityRejected(t *testing.T) {
	snap := choiceSnapshot(0)
	_, err := NewSession(Config{}, snap, &stubService{}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoQuestion)
}
