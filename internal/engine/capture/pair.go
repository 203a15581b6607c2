package capture

import (
	"github.com/google/uuid"

	"github.com/lumilearn/activity-backend/internal/model"
)

// PairUnit captures a pair-match answer. Anchors are the fixed left
// column, items the draggable right column. On a fresh attempt both
// columns are shuffled independently and items start assigned to
// anchors by position, so the student rearranges rather than fills.
type PairUnit struct {
	anchors []uuid.UUID
	items   []uuid.UUID

	anchorSet map[uuid.UUID]struct{}
	itemSet   map[uuid.UUID]struct{}

	// assigned maps anchor id to the item currently placed on it.
	assigned map[uuid.UUID]uuid.UUID
	mode     Mode
}

func NewPairUnit(rows []model.PairOption, rng Shuffler, shuffle bool) *PairUnit {
	u := &PairUnit{
		anchors:   make([]uuid.UUID, 0, len(rows)),
		items:     make([]uuid.UUID, 0, len(rows)),
		anchorSet: make(map[uuid.UUID]struct{}, len(rows)),
		itemSet:   make(map[uuid.UUID]struct{}, len(rows)),
		assigned:  make(map[uuid.UUID]uuid.UUID, len(rows)),
	}
	for _, row := range rows {
		u.anchors = append(u.anchors, row.LeftID)
		u.items = append(u.items, row.RightID)
		u.anchorSet[row.LeftID] = struct{}{}
		u.itemSet[row.RightID] = struct{}{}
	}
	if shuffle && rng != nil {
		rng.Shuffle(len(u.anchors), func(i, j int) {
			u.anchors[i], u.anchors[j] = u.anchors[j], u.anchors[i]
		})
		rng.Shuffle(len(u.items), func(i, j int) {
			u.items[i], u.items[j] = u.items[j], u.items[i]
		})
	}
	for i, anchor := range u.anchors {
		u.assigned[anchor] = u.items[i]
	}
	return u
}

func (u *PairUnit) Shape() model.Shape { return model.ShapePairMatch }
func (u *PairUnit) Mode() Mode         { return u.mode }
func (u *PairUnit) SetMode(m Mode)     { u.mode = m }

// Anchors returns the left column in display order.
func (u *PairUnit) Anchors() []uuid.UUID {
	out := make([]uuid.UUID, len(u.anchors))
	copy(out, u.anchors)
	return out
}

// AssignedTo returns the item currently placed on the anchor, or nil.
func (u *PairUnit) AssignedTo(anchorID uuid.UUID) *uuid.UUID {
	item, ok := u.assigned[anchorID]
	if !ok {
		return nil
	}
	return &item
}

// Pool returns unassigned items in display order.
func (u *PairUnit) Pool() []uuid.UUID {
	placed := make(map[uuid.UUID]struct{}, len(u.assigned))
	for _, item := range u.assigned {
		placed[item] = struct{}{}
	}
	var out []uuid.UUID
	for _, item := range u.items {
		if _, ok := placed[item]; !ok {
			out = append(out, item)
		}
	}
	return out
}

// Drop places an item on an anchor. If the item sat on another anchor
// the two occupants swap; if it came from the pool a displaced
// occupant returns to the pool.
func (u *PairUnit) Drop(itemID, anchorID uuid.UUID) error {
	if u.mode != ModeEditable {
		return ErrLocked
	}
	if _, ok := u.itemSet[itemID]; !ok {
		return ErrUnknownItem
	}
	if _, ok := u.anchorSet[anchorID]; !ok {
		return ErrUnknownAnchor
	}

	var from *uuid.UUID
	for anchor, item := range u.assigned {
		if item == itemID {
			a := anchor
			from = &a
			break
		}
	}
	if from != nil && *from == anchorID {
		return nil
	}

	occupant, occupied := u.assigned[anchorID]
	if from != nil {
		if occupied {
			u.assigned[*from] = occupant
		} else {
			delete(u.assigned, *from)
		}
	}
	u.assigned[anchorID] = itemID
	return nil
}

// ReturnToPool removes an item from whatever anchor holds it.
func (u *PairUnit) ReturnToPool(itemID uuid.UUID) error {
	if u.mode != ModeEditable {
		return ErrLocked
	}
	if _, ok := u.itemSet[itemID]; !ok {
		return ErrUnknownItem
	}
	for anchor, item := range u.assigned {
		if item == itemID {
			delete(u.assigned, anchor)
			return nil
		}
	}
	return nil
}

func (u *PairUnit) Answer() model.Answer {
	var pairs []model.PairSelection
	for _, anchor := range u.anchors {
		if item, ok := u.assigned[anchor]; ok {
			pairs = append(pairs, model.PairSelection{LeftID: anchor, RightID: item})
		}
	}
	return model.Answer{Pairs: pairs}
}

// Complete reports whether every anchor has an item.
func (u *PairUnit) Complete() bool {
	return len(u.assigned) == len(u.anchors)
}

func (u *PairUnit) Reset() {
	u.assigned = make(map[uuid.UUID]uuid.UUID, len(u.anchors))
	for i, anchor := range u.anchors {
		u.assigned[anchor] = u.items[i]
	}
}

// Restore replays a prior answer. Pairs with unknown ids are skipped,
// as is any pair that would put a second item on an anchor or the same
// item on a second anchor; each item sits on at most one anchor even
// when the prior answer says otherwise.
func (u *PairUnit) Restore(prior model.Answer) int {
	u.assigned = make(map[uuid.UUID]uuid.UUID, len(u.anchors))
	used := make(map[uuid.UUID]struct{}, len(prior.Pairs))
	skipped := 0
	for _, p := range prior.Pairs {
		_, anchorOK := u.anchorSet[p.LeftID]
		_, itemOK := u.itemSet[p.RightID]
		if !anchorOK || !itemOK {
			skipped++
			continue
		}
		_, anchorTaken := u.assigned[p.LeftID]
		_, itemTaken := used[p.RightID]
		if anchorTaken || itemTaken {
			skipped++
			continue
		}
		u.assigned[p.LeftID] = p.RightID
		used[p.RightID] = struct{}{}
	}
	return skipped
}
