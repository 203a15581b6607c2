package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Question is one step of an activity. Exactly one of the option
// catalogs is populated, matching the parent activity's shape.
type Question struct {
	ID          uuid.UUID `json:"id"`
	ActivityID  uuid.UUID `json:"activity_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sequence    int       `json:"sequence"`

	// Grid dimensions and wallet budget, spatial shape only.
	Rows         int `json:"rows,omitempty"`
	Cols         int `json:"cols,omitempty"`
	WalletPoints int `json:"wallet_points,omitempty"`

	ChoiceOptions []ChoiceOption `json:"choice_options,omitempty"`
	PairOptions   []PairOption   `json:"pair_options,omitempty"`
	SpatialCells  []SpatialCell  `json:"spatial_cells,omitempty"`
	SpatialTiles  []SpatialTile  `json:"spatial_tiles,omitempty"`
}

// ChoiceOption is a single-choice answer option.
type ChoiceOption struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"`
	IsCorrect bool      `json:"-"`
	Points    int       `json:"-"`
	Sequence  int       `json:"sequence"`
}

// PairOption is one correct left/right pairing. LeftID and RightID are
// the identifiers shown to the client for the anchor and the draggable
// item; the row itself, pairing them, never leaves the server.
type PairOption struct {
	ID         uuid.UUID `json:"id"`
	LeftID     uuid.UUID `json:"left_id"`
	RightID    uuid.UUID `json:"right_id"`
	LeftText   string    `json:"left_text"`
	LeftImage  string    `json:"left_image,omitempty"`
	RightText  string    `json:"right_text"`
	RightImage string    `json:"right_image,omitempty"`
	Points     int       `json:"-"`
	Sequence   int       `json:"sequence"`
}

// SpatialCell is a drop target in the placement grid. Position is a
// "C<col>R<row>" coordinate, e.g. "C2R1".
type SpatialCell struct {
	ID       uuid.UUID `json:"id"`
	Position string    `json:"position"`
	Label    string    `json:"label,omitempty"`
	Image    string    `json:"image,omitempty"`
	Sequence int       `json:"sequence"`
}

// SpatialTile is a draggable item of a spatial question. A tile may be
// correct in more than one cell.
type SpatialTile struct {
	ID               uuid.UUID `json:"id"`
	Text             string    `json:"text"`
	Image            string    `json:"image,omitempty"`
	Points           int       `json:"-"`
	CorrectPositions []string  `json:"-"`
	Sequence         int       `json:"sequence"`
}

// CellPosition formats a grid coordinate as stored on SpatialCell.
func CellPosition(col, row int) string {
	return fmt.Sprintf("C%dR%d", col, row)
}
