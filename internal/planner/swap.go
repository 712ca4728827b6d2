package planner

import "fmt"

// Swap exchanges the dinner assignments of two days, along with their confirmation
// flags. An unassigned dinner swaps like any other, leaving the other day empty.
func Swap(store Store, a, b Day) (Store, error) {
	if a.Index() < 0 {
		return store, fmt.Errorf("%w: unknown day %q", ErrInvalidInput, a)
	}
	if b.Index() < 0 {
		return store, fmt.Errorf("%w: unknown day %q", ErrInvalidInput, b)
	}
	if a == b {
		return store, fmt.Errorf("%w: cannot swap %s with itself", ErrInvalidInput, a)
	}

	ka, kb := Key(a, Dinner), Key(b, Dinner)
	ca, cb := store.Cell(ka), store.Cell(kb)

	next := store.clone()
	next.clear(ka)
	next.clear(kb)
	place(&next, kb, ca)
	place(&next, ka, cb)
	return next, nil
}

// place writes the content of cell c into slot k.
func place(s *Store, k SlotKey, c Cell) {
	switch c.Kind {
	case CellRecipe:
		sel := c.Selection
		sel.Day, sel.SlotType = k.Day, k.Slot
		s.putSelection(sel)
	case CellLeftover:
		lo := c.Leftover
		lo.Day, lo.SlotType = k.Day, k.Slot
		s.putLeftover(lo)
	}
	if c.Confirmed {
		s.confirmed[k] = true
	}
}
