package capture

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumilearn/activity-backend/internal/model"
)

func choiceOptions(n int) []model.ChoiceOption {
	out := make([]model.ChoiceOption, n)
	for i := range out {
		out[i] = model.ChoiceOption{ID: uuid.New(), Sequence: i}
	}
	return out
}

func TestChoiceSelectReplaces(t *testing.T) {
	opts := choiceOptions(4)
	u := NewChoiceUnit(opts)
	assert.False(t, u.Complete())

	require.NoError(t, u.Select(opts[0].ID))
	require.NoError(t, u.Select(opts[2].ID))

	require.NotNil(t, u.Selected())
	assert.Equal(t, opts[2].ID, *u.Selected())
	assert.True(t, u.Complete())
	assert.Equal(t, opts[2].ID, *u.Answer().OptionID)
}

func TestChoiceRejectsUnknownOption(t *testing.T) {
	u := NewChoiceUnit(choiceOptions(2))
	assert.ErrorIs(t, u.Select(uuid.New()), ErrUnknownOption)
	assert.False(t, u.Complete())
}

func TestChoiceLockedAfterSubmit(t *testing.T) {
	opts := choiceOptions(2)
	u := NewChoiceUnit(opts)
	require.NoError(t, u.Select(opts[0].ID))

	u.SetMode(ModeSubmitted)
	assert.ErrorIs(t, u.Select(opts[1].ID), ErrLocked)
	assert.Equal(t, opts[0].ID, *u.Selected())
}

func TestChoiceRestore(t *testing.T) {
	opts := choiceOptions(3)
	u := NewChoiceUnit(opts)

	skipped := u.Restore(model.Answer{OptionID: &opts[1].ID})
	assert.Zero(t, skipped)
	assert.Equal(t, opts[1].ID, *u.Selected())

	// An id not in the catalog leaves the slot empty.
	stale := uuid.New()
	skipped = u.Restore(model.Answer{OptionID: &stale})
	assert.Equal(t, 1, skipped)
	assert.Nil(t, u.Selected())
}
