package capture

import (
	"github.com/google/uuid"

	"github.com/lumilearn/activity-backend/internal/model"
)

// SpatialUnit captures a grid placement answer. Cells hold zero or
// more tiles in placement order; a tile occupies at most one cell.
type SpatialUnit struct {
	cellOrder []string
	cellSet   map[string]struct{}
	tiles     map[uuid.UUID]model.SpatialTile
	tileOrder []uuid.UUID

	// placed maps cell position to the tiles dropped there, oldest
	// first. Positions with no tiles are absent from the map.
	placed map[string][]uuid.UUID
	mode   Mode
}

func NewSpatialUnit(cells []model.SpatialCell, tiles []model.SpatialTile) *SpatialUnit {
	u := &SpatialUnit{
		cellOrder: make([]string, 0, len(cells)),
		cellSet:   make(map[string]struct{}, len(cells)),
		tiles:     make(map[uuid.UUID]model.SpatialTile, len(tiles)),
		tileOrder: make([]uuid.UUID, 0, len(tiles)),
		placed:    make(map[string][]uuid.UUID),
	}
	for _, c := range cells {
		u.cellOrder = append(u.cellOrder, c.Position)
		u.cellSet[c.Position] = struct{}{}
	}
	for _, t := range tiles {
		u.tiles[t.ID] = t
		u.tileOrder = append(u.tileOrder, t.ID)
	}
	return u
}

func (u *SpatialUnit) Shape() model.Shape { return model.ShapeSpatial }
func (u *SpatialUnit) Mode() Mode         { return u.mode }
func (u *SpatialUnit) SetMode(m Mode)     { u.mode = m }

// Place drops a tile into a cell, removing it from any cell it
// occupied before. Placing a tile where it already sits moves it to
// the end of that cell's order.
func (u *SpatialUnit) Place(tileID uuid.UUID, position string) error {
	if u.mode != ModeEditable {
		return ErrLocked
	}
	if _, ok := u.tiles[tileID]; !ok {
		return ErrUnknownTile
	}
	if _, ok := u.cellSet[position]; !ok {
		return ErrUnknownCell
	}
	u.detach(tileID)
	u.placed[position] = append(u.placed[position], tileID)
	return nil
}

// Remove returns a tile to the pool.
func (u *SpatialUnit) Remove(tileID uuid.UUID) error {
	if u.mode != ModeEditable {
		return ErrLocked
	}
	if _, ok := u.tiles[tileID]; !ok {
		return ErrUnknownTile
	}
	u.detach(tileID)
	return nil
}

func (u *SpatialUnit) detach(tileID uuid.UUID) {
	for pos, ids := range u.placed {
		for i, id := range ids {
			if id == tileID {
				ids = append(ids[:i], ids[i+1:]...)
				if len(ids) == 0 {
					delete(u.placed, pos)
				} else {
					u.placed[pos] = ids
				}
				return
			}
		}
	}
}

// CellTiles returns the tiles in a cell, oldest placement first.
func (u *SpatialUnit) CellTiles(position string) []uuid.UUID {
	ids := u.placed[position]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

// Pool returns unplaced tiles in catalog order.
func (u *SpatialUnit) Pool() []uuid.UUID {
	onGrid := make(map[uuid.UUID]struct{})
	for _, ids := range u.placed {
		for _, id := range ids {
			onGrid[id] = struct{}{}
		}
	}
	var out []uuid.UUID
	for _, id := range u.tileOrder {
		if _, ok := onGrid[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// WalletUsed sums the point cost of every placed tile.
func (u *SpatialUnit) WalletUsed() int {
	total := 0
	for _, ids := range u.placed {
		for _, id := range ids {
			total += u.tiles[id].Points
		}
	}
	return total
}

// Answer lists placements in grid order, then placement order within
// each cell.
func (u *SpatialUnit) Answer() model.Answer {
	var placements []model.Placement
	for _, pos := range u.cellOrder {
		for _, id := range u.placed[pos] {
			placements = append(placements, model.Placement{TileID: id, Position: pos})
		}
	}
	return model.Answer{Placements: placements}
}

// Complete reports whether at least one tile is on the grid. Partial
// placements are submittable.
func (u *SpatialUnit) Complete() bool {
	return len(u.placed) > 0
}

func (u *SpatialUnit) Reset() {
	u.placed = make(map[string][]uuid.UUID)
}

func (u *SpatialUnit) Restore(prior model.Answer) int {
	u.placed = make(map[string][]uuid.UUID)
	skipped := 0
	for _, p := range prior.Placements {
		_, tileOK := u.tiles[p.TileID]
		_, cellOK := u.cellSet[p.Position]
		if !tileOK || !cellOK {
			skipped++
			continue
		}
		u.detach(p.TileID)
		u.placed[p.Position] = append(u.placed[p.Position], p.TileID)
	}
	return skipped
}
