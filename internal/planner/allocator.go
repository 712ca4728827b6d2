package planner

import "fmt"

// AllocationReport describes what an allocation pass did.
type AllocationReport struct {
	Phase Phase
	// Filled lists the slots assigned by this pass, in day order.
	Filled []SlotKey
	// Unassigned lists open slots for which no candidate existed at any priority.
	Unassigned []SlotKey
}

// Changed reports whether the pass assigned anything.
func (r AllocationReport) Changed() bool {
	return len(r.Filled) > 0
}

// OpenSlots returns the slots of the phase whose day is not locked and which hold
// neither a Selection nor a LeftoverAssignment.
func OpenSlots(phase Phase, locked LockedDays, store Store) []SlotKey {
	var open []SlotKey
	for _, k := range phase.Keys() {
		if locked.Has(k.Day) || store.IsFilled(k) {
			continue
		}
		open = append(open, k)
	}
	return open
}

// Allocate fills the open slots of a phase and returns the extended store.
//
// Slots are visited in day order and each takes the first success of: a leftover with
// units left (fridge only for dinner), the waste-not suggestion at the day's rank
// (dinner only), the phase's rotation pool. Snacks are assigned in bulk per slot type.
// Keys outside the phase, already-filled keys and the inventory are never modified.
// The result depends only on the arguments.
func Allocate(phase Phase, open []SlotKey, inventory []InventoryMealItem, pools CandidatePools, store Store) (Store, AllocationReport, error) {
	report := AllocationReport{Phase: phase}
	if !phase.valid() {
		return store, report, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, phase)
	}

	inPhase := make(map[SlotKey]bool)
	for _, k := range phase.Keys() {
		inPhase[k] = true
	}
	var targets []SlotKey
	for _, k := range open {
		if inPhase[k] && !store.IsFilled(k) {
			targets = append(targets, k)
		}
	}
	sortKeys(targets)
	if len(targets) == 0 {
		return store, report, nil
	}

	next := store.clone()
	switch phase {
	case PhaseDinners:
		for _, k := range targets {
			if allocateLeftover(&next, k, inventory, true) ||
				allocateRanked(&next, k, pools.WasteNot) ||
				allocateRotation(&next, k, pools.Dinner, k.Day.Index()) {
				report.Filled = append(report.Filled, k)
				continue
			}
			report.Unassigned = append(report.Unassigned, k)
		}
	case PhaseLunches:
		for _, k := range targets {
			if allocateLeftover(&next, k, inventory, false) ||
				allocateRotation(&next, k, pools.Lunch, 0) {
				report.Filled = append(report.Filled, k)
				continue
			}
			report.Unassigned = append(report.Unassigned, k)
		}
	case PhaseSnacks:
		report.Filled, report.Unassigned = allocateSnacks(&next, targets, pools.Snack, store)
	}

	if !report.Changed() {
		return store, report, nil
	}
	return next, report, nil
}

// Regenerate re-runs allocation over the phase's open slots. It only adds: populated
// slots, including user replacements on unlocked days, and every locked day are kept.
func Regenerate(phase Phase, locked LockedDays, store Store, inventory []InventoryMealItem, pools CandidatePools) (Store, AllocationReport, error) {
	if !phase.valid() {
		return store, AllocationReport{Phase: phase}, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, phase)
	}
	return Allocate(phase, OpenSlots(phase, locked, store), inventory, pools, store)
}

// ClearUnlocked removes every assignment of the phase on days that are not locked,
// so that a following Regenerate reallocates them.
func ClearUnlocked(phase Phase, locked LockedDays, store Store) (Store, error) {
	if !phase.valid() {
		return store, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, phase)
	}
	next := store.clone()
	for _, k := range phase.Keys() {
		if !locked.Has(k.Day) {
			next.clear(k)
		}
	}
	return next, nil
}

func allocateLeftover(s *Store, k SlotKey, inventory []InventoryMealItem, fridgeOnly bool) bool {
	for _, item := range inventory {
		if fridgeOnly && item.Location != Fridge {
			continue
		}
		if item.Quantity-s.LeftoverCount(item.Name) > 0 {
			s.putLeftover(LeftoverAssignment{Day: k.Day, SlotType: k.Slot, ItemName: item.Name})
			return true
		}
	}
	return false
}

func allocateRanked(s *Store, k SlotKey, ranked []Candidate) bool {
	i := k.Day.Index()
	if i < 0 || i >= len(ranked) {
		return false
	}
	s.putSelection(ranked[i].selection(k))
	return true
}

func allocateRotation(s *Store, k SlotKey, pool []Candidate, index int) bool {
	if len(pool) == 0 {
		return false
	}
	s.putSelection(pool[index%len(pool)].selection(k))
	return true
}

// allocateSnacks assigns the first snack to every open school_snack slot and the
// second to every open home_snack slot. A slot type that already has a Selection
// anywhere in the week is skipped, and nothing happens without two distinct snacks.
func allocateSnacks(s *Store, targets []SlotKey, pool []Candidate, before Store) (filled, unassigned []SlotKey) {
	snacks := distinctCandidates(pool)
	for i, st := range []SlotType{SchoolSnack, HomeSnack} {
		var open []SlotKey
		for _, k := range targets {
			if k.Slot == st {
				open = append(open, k)
			}
		}
		if len(open) == 0 {
			continue
		}
		if len(snacks) < 2 || hasSelectionFor(before, st) {
			unassigned = append(unassigned, open...)
			continue
		}
		for _, k := range open {
			s.putSelection(snacks[i].selection(k))
		}
		filled = append(filled, open...)
	}
	sortKeys(filled)
	sortKeys(unassigned)
	return filled, unassigned
}

func hasSelectionFor(s Store, st SlotType) bool {
	for _, d := range st.Days() {
		if _, ok := s.Selection(Key(d, st)); ok {
			return true
		}
	}
	return false
}

func distinctCandidates(pool []Candidate) []Candidate {
	seen := make(map[string]bool)
	var out []Candidate
	for _, c := range pool {
		name := c.RecipeName
		if name == "" {
			name = c.RecipeID
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, c)
	}
	return out
}
