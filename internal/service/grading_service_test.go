package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumilearn/activity-backend/internal/model"
)

func TestReconcileChoice(t *testing.T) {
	correct := uuid.New()
	qk := QuestionKey{OptionID: &correct, MaxPoints: 5}
	questionID := uuid.New()

	v := reconcile(model.ShapeSingleChoice, questionID, qk, model.Answer{OptionID: &correct})
	assert.True(t, v.IsCorrect)
	assert.Equal(t, 5, v.PointsEarned)
	assert.Equal(t, correct, *v.CorrectOptionID)

	wrong := uuid.New()
	v = reconcile(model.ShapeSingleChoice, questionID, qk, model.Answer{OptionID: &wrong})
	assert.False(t, v.IsCorrect)
	assert.Zero(t, v.PointsEarned)
	// The correct option is still revealed for coloring.
	assert.Equal(t, correct, *v.CorrectOptionID)
}

func TestReconcilePairsPartialCredit(t *testing.T) {
	leftA, leftB := uuid.New(), uuid.New()
	rightA, rightB := uuid.New(), uuid.New()
	qk := QuestionKey{
		Pairs: map[string]PairKey{
			leftA.String(): {RightID: rightA.String(), Points: 2},
			leftB.String(): {RightID: rightB.String(), Points: 3},
		},
		MaxPoints: 5,
	}

	// One row right, one swapped.
	v := reconcile(model.ShapePairMatch, uuid.New(), qk, model.Answer{Pairs: []model.PairSelection{
		{LeftID: leftA, RightID: rightA},
		{LeftID: leftB, RightID: rightA},
	}})
	assert.False(t, v.IsCorrect)
	assert.Equal(t, 2, v.PointsEarned)
	require.Len(t, v.PairResults, 2)

	correctRows := 0
	for _, row := range v.PairResults {
		if row.IsCorrect {
			correctRows++
		}
		assert.NotEqual(t, uuid.Nil, row.CorrectRightID)
	}
	assert.Equal(t, 1, correctRows)

	// Both right.
	v = reconcile(model.ShapePairMatch, uuid.New(), qk, model.Answer{Pairs: []model.PairSelection{
		{LeftID: leftA, RightID: rightA},
		{LeftID: leftB, RightID: rightB},
	}})
	assert.True(t, v.IsCorrect)
	assert.Equal(t, 5, v.PointsEarned)
}

func TestReconcilePairsMissingRow(t *testing.T) {
	left := uuid.New()
	right := uuid.New()
	qk := QuestionKey{
		Pairs:     map[string]PairKey{left.String(): {RightID: right.String(), Points: 1}},
		MaxPoints: 1,
	}

	v := reconcile(model.ShapePairMatch, uuid.New(), qk, model.Answer{})
	assert.False(t, v.IsCorrect)
	require.Len(t, v.PairResults, 1)
	assert.Nil(t, v.PairResults[0].RightID)
}

func TestReconcilePlacementsWallet(t *testing.T) {
	tileA, tileB := uuid.New(), uuid.New()
	qk := QuestionKey{
		Tiles: map[string]TileKey{
			tileA.String(): {Positions: []string{"C1R1", "C2R1"}, Points: 3},
			tileB.String(): {Positions: []string{"C1R2"}, Points: 4},
		},
		MaxPoints: 7,
		Wallet:    5,
	}

	// One correct, one misplaced. Wallet counts every placed tile.
	v := reconcile(model.ShapeSpatial, uuid.New(), qk, model.Answer{Placements: []model.Placement{
		{TileID: tileA, Position: "C2R1"},
		{TileID: tileB, Position: "C2R1"},
	}})
	assert.False(t, v.IsCorrect)
	assert.Equal(t, 3, v.PointsEarned)
	require.NotNil(t, v.Wallet)
	assert.Equal(t, 5, v.Wallet.Initial)
	assert.Equal(t, 7, v.Wallet.Used)
	assert.Zero(t, v.Wallet.Remaining)

	// A tile may be correct in any of its listed cells.
	v = reconcile(model.ShapeSpatial, uuid.New(), qk, model.Answer{Placements: []model.Placement{
		{TileID: tileA, Position: "C1R1"},
	}})
	assert.True(t, v.IsCorrect)
	assert.Equal(t, 3, v.PointsEarned)
	assert.Equal(t, 2, v.Wallet.Remaining)
}

func TestBuildQuestionKey(t *testing.T) {
	q := &model.Question{
		ID: uuid.New(),
		ChoiceOptions: []model.ChoiceOption{
			{ID: uuid.New(), IsCorrect: false, Points: 2},
			{ID: uuid.New(), IsCorrect: true, Points: 4},
		},
	}
	key := buildQuestionKey(model.ShapeSingleChoice, q)
	require.NotNil(t, key.OptionID)
	assert.Equal(t, q.ChoiceOptions[1].ID, *key.OptionID)
	assert.Equal(t, 4, key.MaxPoints)

	spatial := &model.Question{
		ID:           uuid.New(),
		WalletPoints: 10,
		SpatialTiles: []model.SpatialTile{
			{ID: uuid.New(), Points: 3, CorrectPositions: []string{"C1R1"}},
			{ID: uuid.New(), Points: 2, CorrectPositions: []string{"C2R1"}},
		},
	}
	key = buildQuestionKey(model.ShapeSpatial, spatial)
	assert.Equal(t, 5, key.MaxPoints)
	assert.Equal(t, 10, key.Wallet)
	assert.Len(t, key.Tiles, 2)
}
