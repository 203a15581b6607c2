package capture

import (
	"github.com/google/uuid"

	"github.com/lumilearn/activity-backend/internal/model"
)

// ChoiceUnit captures a single-choice answer. Selecting again simply
// replaces the previous pick.
type ChoiceUnit struct {
	options  map[uuid.UUID]struct{}
	selected *uuid.UUID
	mode     Mode
}

func NewChoiceUnit(options []model.ChoiceOption) *ChoiceUnit {
	u := &ChoiceUnit{options: make(map[uuid.UUID]struct{}, len(options))}
	for _, o := range options {
		u.options[o.ID] = struct{}{}
	}
	return u
}

func (u *ChoiceUnit) Shape() model.Shape { return model.ShapeSingleChoice }
func (u *ChoiceUnit) Mode() Mode         { return u.mode }
func (u *ChoiceUnit) SetMode(m Mode)     { u.mode = m }

// Select picks an option, replacing any earlier selection.
func (u *ChoiceUnit) Select(optionID uuid.UUID) error {
	if u.mode != ModeEditable {
		return ErrLocked
	}
	if _, ok := u.options[optionID]; !ok {
		return ErrUnknownOption
	}
	id := optionID
	u.selected = &id
	return nil
}

// Selected returns the current pick, or nil.
func (u *ChoiceUnit) Selected() *uuid.UUID {
	if u.selected == nil {
		return nil
	}
	id := *u.selected
	return &id
}

func (u *ChoiceUnit) Answer() model.Answer {
	return model.Answer{OptionID: u.Selected()}
}

func (u *ChoiceUnit) Complete() bool {
	return u.selected != nil
}

func (u *ChoiceUnit) Reset() {
	u.selected = nil
}

func (u *ChoiceUnit) Restore(prior model.Answer) int {
	u.selected = nil
	if prior.OptionID == nil {
		return 0
	}
	if _, ok := u.options[*prior.OptionID]; !ok {
		return 1
	}
	id := *prior.OptionID
	u.selected = &id
	return 0
}
