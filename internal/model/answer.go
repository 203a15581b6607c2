package model

import (
	"github.com/google/uuid"
)

// Answer is a normalized per-question answer. Exactly one field group
// is populated, matching the question's shape.
type Answer struct {
	OptionID   *uuid.UUID      `json:"option_id,omitempty"`
	Pairs      []PairSelection `json:"pairs,omitempty"`
	Placements []Placement     `json:"placements,omitempty"`
}

// PairSelection records one anchor/item assignment made by the student.
type PairSelection struct {
	LeftID  uuid.UUID `json:"left_id"`
	RightID uuid.UUID `json:"right_id"`
}

// Placement records one tile placed into a grid cell. Order within a
// cell follows placement order.
type Placement struct {
	TileID   uuid.UUID `json:"tile_id"`
	Position string    `json:"position"`
}

// IsEmpty reports whether the answer carries no selection at all.
func (a Answer) IsEmpty() bool {
	return a.OptionID == nil && len(a.Pairs) == 0 && len(a.Placements) == 0
}

// WalletInfo reports wallet consumption for a spatial submission.
type WalletInfo struct {
	Initial   int `json:"initial"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// PairResult is the per-row outcome of a pair-match submission.
type PairResult struct {
	LeftID         uuid.UUID  `json:"left_id"`
	RightID        *uuid.UUID `json:"right_id,omitempty"`
	CorrectRightID uuid.UUID  `json:"correct_right_id"`
	IsCorrect      bool       `json:"is_correct"`
}

// PlacementResult is the per-tile outcome of a spatial submission.
type PlacementResult struct {
	TileID       uuid.UUID `json:"tile_id"`
	Position     string    `json:"position"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
}

// Verdict is the reconciled result returned after a submission. It is
// the only source the client may use to color answers.
type Verdict struct {
	QuestionID   uuid.UUID `json:"question_id"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
	MaxPoints    int       `json:"max_points"`

	CorrectOptionID  *uuid.UUID        `json:"correct_option_id,omitempty"`
	PairResults      []PairResult      `json:"pair_results,omitempty"`
	PlacementResults []PlacementResult `json:"placement_results,omitempty"`
	Wallet           *WalletInfo       `json:"wallet,omitempty"`

	ActivityCompleted bool `json:"activity_completed"`
}

// SubmitChoiceRequest is the payload for answering a single-choice question.
type SubmitChoiceRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	OptionID   uuid.UUID `json:"option_id" binding:"required"`
}

// SubmitPairsRequest is the payload for answering a pair-match question.
type SubmitPairsRequest struct {
	QuestionID uuid.UUID           `json:"question_id" binding:"required"`
	Pairs      []PairSelectionBody `json:"pairs" binding:"required,min=1,dive"`
}

// PairSelectionBody is one pair assignment inside SubmitPairsRequest.
type PairSelectionBody struct {
	LeftID  uuid.UUID `json:"left_id" binding:"required"`
	RightID uuid.UUID `json:"right_id" binding:"required"`
}

// SubmitPlacementsRequest is the payload for answering a spatial question.
type SubmitPlacementsRequest struct {
	QuestionID uuid.UUID       `json:"question_id" binding:"required"`
	Placements []PlacementBody `json:"placements" binding:"required,min=1,dive"`
}

// PlacementBody is one tile placement inside SubmitPlacementsRequest.
type PlacementBody struct {
	TileID   uuid.UUID `json:"tile_id" binding:"required"`
	Position string    `json:"position" binding:"required,max=10"`
}
