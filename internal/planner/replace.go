package planner

import (
	"fmt"
	"strings"
)

// RecipeResolver maps a recipe name to a catalog id.
type RecipeResolver interface {
	ResolveRecipe(name string) (id string, ok bool)
}

// Replace applies a user override to a slot. It never consults pools or inventory
// quantities, so a leftover can be over-allocated here; Reconcile reports that later.
//
// For snack slots the override is applied to all five weekdays of the slot type.
// The requested slot is marked confirmed.
func Replace(store Store, catalog RecipeResolver, day Day, slot SlotType, value string, kind SourceKind) (Store, error) {
	k := Key(day, slot)
	if err := k.Validate(); err != nil {
		return store, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return store, fmt.Errorf("%w: empty value for %s", ErrInvalidInput, k)
	}

	targets := []SlotKey{k}
	if slot.IsSnack() {
		targets = targets[:0]
		for _, d := range Weekdays {
			targets = append(targets, Key(d, slot))
		}
	}

	next := store.clone()
	switch kind {
	case SourceLeftover:
		for _, t := range targets {
			next.putLeftover(LeftoverAssignment{Day: t.Day, SlotType: t.Slot, ItemName: value})
		}
	case SourceRecipe:
		id := value
		if catalog != nil {
			if known, ok := catalog.ResolveRecipe(value); ok {
				id = known
			}
		}
		for _, t := range targets {
			next.putSelection(Selection{Day: t.Day, SlotType: t.Slot, RecipeID: id, RecipeName: value})
		}
	default:
		return store, fmt.Errorf("%w: unknown source kind %q", ErrInvalidInput, kind)
	}
	next.confirmed[k] = true
	return next, nil
}
