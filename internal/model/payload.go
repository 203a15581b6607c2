package model

import (
	"github.com/google/uuid"
)

// ActivityPayload is the cached student-facing form of an activity.
// Option catalogs are sanitized: nothing in it reveals which answer
// is correct.
type ActivityPayload struct {
	ActivityID  uuid.UUID            `json:"activity_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Shape       Shape                `json:"shape"`
	Status      ActivityStatus       `json:"status"`
	Questions   []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question with the answer key stripped. Pair
// rows are split into independent anchor and item lists so the stored
// pairing never reaches the client.
type QuestionForStudent struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Sequence     int       `json:"sequence"`
	Rows         int       `json:"rows,omitempty"`
	Cols         int       `json:"cols,omitempty"`
	WalletPoints int       `json:"wallet_points,omitempty"`

	ChoiceOptions []ChoiceOption   `json:"choice_options,omitempty"`
	PairAnchors   []PairSide       `json:"pair_anchors,omitempty"`
	PairItems     []PairSide       `json:"pair_items,omitempty"`
	SpatialCells  []SpatialCell    `json:"spatial_cells,omitempty"`
	SpatialTiles  []TileForStudent `json:"spatial_tiles,omitempty"`
}

// PairSide is one side of a pair row as shown to the client.
type PairSide struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Image string    `json:"image,omitempty"`
}

// TileForStudent is a draggable tile with its wallet cost visible but
// its correct cells hidden.
type TileForStudent struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Image    string    `json:"image,omitempty"`
	Points   int       `json:"points"`
	Sequence int       `json:"sequence"`
}

// ForStudent strips the question down to what the client may see.
func (q *Question) ForStudent() QuestionForStudent {
	out := QuestionForStudent{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		Sequence:     q.Sequence,
		Rows:         q.Rows,
		Cols:         q.Cols,
		WalletPoints: q.WalletPoints,

		ChoiceOptions: q.ChoiceOptions,
		SpatialCells:  q.SpatialCells,
	}
	for _, row := range q.PairOptions {
		out.PairAnchors = append(out.PairAnchors, PairSide{ID: row.LeftID, Text: row.LeftText, Image: row.LeftImage})
		out.PairItems = append(out.PairItems, PairSide{ID: row.RightID, Text: row.RightText, Image: row.RightImage})
	}
	for _, t := range q.SpatialTiles {
		out.SpatialTiles = append(out.SpatialTiles, TileForStudent{
			ID: t.ID, Text: t.Text, Image: t.Image, Points: t.Points, Sequence: t.Sequence,
		})
	}
	return out
}
