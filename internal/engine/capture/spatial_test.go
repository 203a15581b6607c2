package capture

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumilearn/activity-backend/internal/model"
)

func spatialFixture() ([]model.SpatialCell, []model.SpatialTile) {
	cells := []model.SpatialCell{
		{ID: uuid.New(), Position: "C1R1", Sequence: 0},
		{ID: uuid.New(), Position: "C2R1", Sequence: 1},
		{ID: uuid.New(), Position: "C1R2", Sequence: 2},
	}
	tiles := []model.SpatialTile{
		{ID: uuid.New(), Points: 3, Sequence: 0},
		{ID: uuid.New(), Points: 5, Sequence: 1},
		{ID: uuid.New(), Points: 2, Sequence: 2},
	}
	return cells, tiles
}

func TestSpatialPlaceMovesBetweenCells(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	require.NoError(t, u.Place(tiles[0].ID, "C1R1"))
	require.NoError(t, u.Place(tiles[0].ID, "C2R1"))

	// The old cell is emptied, not left with a stale copy.
	assert.Empty(t, u.CellTiles("C1R1"))
	assert.Equal(t, []uuid.UUID{tiles[0].ID}, u.CellTiles("C2R1"))
	assert.Len(t, u.Pool(), 2)
}

func TestSpatialCellHoldsMultipleTiles(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	require.NoError(t, u.Place(tiles[1].ID, "C1R1"))
	require.NoError(t, u.Place(tiles[0].ID, "C1R1"))

	assert.Equal(t, []uuid.UUID{tiles[1].ID, tiles[0].ID}, u.CellTiles("C1R1"))
	assert.Equal(t, 8, u.WalletUsed())
}

func TestSpatialRemoveReturnsToPool(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	require.NoError(t, u.Place(tiles[0].ID, "C1R1"))
	require.NoError(t, u.Remove(tiles[0].ID))

	assert.Empty(t, u.CellTiles("C1R1"))
	assert.Len(t, u.Pool(), 3)
	assert.False(t, u.Complete())
}

func TestSpatialPartialPlacementIsComplete(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	assert.False(t, u.Complete())
	require.NoError(t, u.Place(tiles[2].ID, "C1R2"))
	assert.True(t, u.Complete())
}

func TestSpatialRejectsUnknownIDs(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	assert.ErrorIs(t, u.Place(uuid.New(), "C1R1"), ErrUnknownTile)
	assert.ErrorIs(t, u.Place(tiles[0].ID, "C9R9"), ErrUnknownCell)
	assert.ErrorIs(t, u.Remove(uuid.New()), ErrUnknownTile)
}

func TestSpatialAnswerGridOrder(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	require.NoError(t, u.Place(tiles[2].ID, "C1R2"))
	require.NoError(t, u.Place(tiles[0].ID, "C1R1"))
	require.NoError(t, u.Place(tiles[1].ID, "C1R1"))

	ans := u.Answer()
	require.Len(t, ans.Placements, 3)
	assert.Equal(t, "C1R1", ans.Placements[0].Position)
	assert.Equal(t, tiles[0].ID, ans.Placements[0].TileID)
	assert.Equal(t, tiles[1].ID, ans.Placements[1].TileID)
	assert.Equal(t, "C1R2", ans.Placements[2].Position)
}

func TestSpatialRestoreSkipsUnknownIDs(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)

	skipped := u.Restore(model.Answer{Placements: []model.Placement{
		{TileID: tiles[0].ID, Position: "C2R1"},
		{TileID: uuid.New(), Position: "C1R1"},
		{TileID: tiles[1].ID, Position: "C7R7"},
	}})
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []uuid.UUID{tiles[0].ID}, u.CellTiles("C2R1"))
	assert.Empty(t, u.CellTiles("C1R1"))
}

func TestSpatialInvariantUnderRandomOps(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)
	rng := rand.New(rand.NewSource(13))

	for step := 0; step < 500; step++ {
		tile := tiles[rng.Intn(len(tiles))].ID
		if rng.Intn(4) == 0 {
			require.NoError(t, u.Remove(tile))
		} else {
			require.NoError(t, u.Place(tile, cells[rng.Intn(len(cells))].Position))
		}

		// Every tile exists exactly once, in one cell or in the pool,
		// and emptied cells leave no key behind.
		seen := make(map[uuid.UUID]int, len(tiles))
		for _, c := range cells {
			ids := u.CellTiles(c.Position)
			for _, id := range ids {
				seen[id]++
			}
		}
		for _, id := range u.Pool() {
			seen[id]++
		}
		require.Len(t, seen, len(tiles), "step %d", step)
		for _, n := range seen {
			require.Equal(t, 1, n, "step %d", step)
		}
	}
}

func TestSpatialLockedAfterSubmit(t *testing.T) {
	cells, tiles := spatialFixture()
	u := NewSpatialUnit(cells, tiles)
	require.NoError(t, u.Place(tiles[0].ID, "C1R1"))

	u.SetMode(ModeSubmitted)
	assert.ErrorIs(t, u.Place(tiles[1].ID, "C1R1"), ErrLocked)
	assert.ErrorIs(t, u.Remove(tiles[0].ID), ErrLocked)
}
