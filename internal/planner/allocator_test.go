package planner

import (
	"errors"
	"testing"
)

func dinnerPool() []Candidate {
	return []Candidate{
		{RecipeID: "r1", RecipeName: "Tacos"},
		{RecipeID: "r2", RecipeName: "Curry"},
		{RecipeID: "r3", RecipeName: "Risotto"},
	}
}

func TestAllocateDinners(t *testing.T) {
	t.Run("LeftoverThenRotation", func(t *testing.T) {
		inventory := []InventoryMealItem{{Name: "Chili", Quantity: 2, Location: Fridge}}
		pools := CandidatePools{Dinner: dinnerPool()}

		store, report, err := Regenerate(PhaseDinners, nil, NewStore(), inventory, pools)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}

		for _, d := range []Day{Monday, Tuesday} {
			lo, ok := store.Leftover(Key(d, Dinner))
			if !ok || lo.ItemName != "Chili" {
				t.Errorf("Expected Chili leftover on %s, got %+v", d, store.Cell(Key(d, Dinner)))
			}
		}
		if store.LeftoverCount("Chili") != 2 {
			t.Errorf("Expected 2 Chili assignments, got %d", store.LeftoverCount("Chili"))
		}
		for _, d := range Week[2:] {
			sel, ok := store.Selection(Key(d, Dinner))
			if !ok {
				t.Fatalf("Expected a selection on %s", d)
			}
			want := pools.Dinner[d.Index()%len(pools.Dinner)]
			if sel.RecipeID != want.RecipeID {
				t.Errorf("Expected %s on %s, got %s", want.RecipeName, d, sel.RecipeName)
			}
		}
		if len(report.Filled) != 7 || len(report.Unassigned) != 0 {
			t.Errorf("Expected 7 filled and 0 unassigned, got %d and %d", len(report.Filled), len(report.Unassigned))
		}
	})

	t.Run("FreezerItemsSkippedForDinner", func(t *testing.T) {
		inventory := []InventoryMealItem{{Name: "Lasagna", Quantity: 3, Location: Freezer}}
		store, _, err := Regenerate(PhaseDinners, nil, NewStore(), inventory, CandidatePools{Dinner: dinnerPool()})
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		if store.LeftoverCount("Lasagna") != 0 {
			t.Errorf("Expected freezer item to be ignored for dinner, got %d assignments", store.LeftoverCount("Lasagna"))
		}
	})

	t.Run("WasteNotByRank", func(t *testing.T) {
		pools := CandidatePools{
			WasteNot: []Candidate{{RecipeID: "w1", RecipeName: "Frittata"}, {RecipeID: "w2", RecipeName: "Fried Rice"}},
			Dinner:   dinnerPool(),
		}
		store, _, err := Regenerate(PhaseDinners, nil, NewStore(), nil, pools)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		if sel, _ := store.Selection(Key(Monday, Dinner)); sel.RecipeName != "Frittata" {
			t.Errorf("Expected Frittata on mon, got '%s'", sel.RecipeName)
		}
		if sel, _ := store.Selection(Key(Tuesday, Dinner)); sel.RecipeName != "Fried Rice" {
			t.Errorf("Expected Fried Rice on tue, got '%s'", sel.RecipeName)
		}
		if sel, _ := store.Selection(Key(Wednesday, Dinner)); sel.RecipeName != "Tacos" {
			t.Errorf("Expected rotation Tacos on wed, got '%s'", sel.RecipeName)
		}
	})

	t.Run("EmptyPoolsLeaveSlotsUnassigned", func(t *testing.T) {
		store, report, err := Regenerate(PhaseDinners, nil, NewStore(), nil, CandidatePools{})
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("Expected empty store, got %d filled", store.Len())
		}
		if len(report.Unassigned) != 7 {
			t.Errorf("Expected 7 unassigned slots, got %d", len(report.Unassigned))
		}
	})

	t.Run("UnknownPhase", func(t *testing.T) {
		_, _, err := Regenerate(Phase("brunch"), nil, NewStore(), nil, CandidatePools{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAllocateLunches(t *testing.T) {
	inventory := []InventoryMealItem{
		{Name: "Soup", Quantity: 1, Location: Freezer},
		{Name: "Pasta Bake", Quantity: 1, Location: Fridge},
	}
	pools := CandidatePools{Lunch: []Candidate{{RecipeID: "l1", RecipeName: "Wraps"}, {RecipeID: "l2", RecipeName: "Salad"}}}

	store, _, err := Regenerate(PhaseLunches, nil, NewStore(), inventory, pools)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if lo, _ := store.Leftover(Key(Monday, Lunch)); lo.ItemName != "Soup" {
		t.Errorf("Expected freezer Soup on mon lunch, got %+v", store.Cell(Key(Monday, Lunch)))
	}
	if lo, _ := store.Leftover(Key(Tuesday, Lunch)); lo.ItemName != "Pasta Bake" {
		t.Errorf("Expected Pasta Bake on tue lunch, got %+v", store.Cell(Key(Tuesday, Lunch)))
	}
	for _, d := range []Day{Wednesday, Thursday, Friday} {
		if sel, _ := store.Selection(Key(d, Lunch)); sel.RecipeName != "Wraps" {
			t.Errorf("Expected Wraps on %s, got '%s'", d, sel.RecipeName)
		}
	}
	if store.IsFilled(Key(Saturday, Lunch)) {
		t.Error("Expected no weekend lunch")
	}
}

func TestAllocateSnacks(t *testing.T) {
	pools := CandidatePools{Snack: []Candidate{{RecipeID: "s1", RecipeName: "Apple"}, {RecipeID: "s2", RecipeName: "Yogurt"}}}

	t.Run("BulkAssignment", func(t *testing.T) {
		store, report, err := Regenerate(PhaseSnacks, nil, NewStore(), nil, pools)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		for _, d := range Weekdays {
			if sel, _ := store.Selection(Key(d, SchoolSnack)); sel.RecipeName != "Apple" {
				t.Errorf("Expected Apple as school snack on %s, got '%s'", d, sel.RecipeName)
			}
			if sel, _ := store.Selection(Key(d, HomeSnack)); sel.RecipeName != "Yogurt" {
				t.Errorf("Expected Yogurt as home snack on %s, got '%s'", d, sel.RecipeName)
			}
		}
		if len(report.Filled) != 10 {
			t.Errorf("Expected 10 filled snack slots, got %d", len(report.Filled))
		}
	})

	t.Run("AllOrNothingWithSingleSnack", func(t *testing.T) {
		one := CandidatePools{Snack: []Candidate{{RecipeName: "Apple"}, {RecipeName: "Apple"}}}
		store, report, err := Regenerate(PhaseSnacks, nil, NewStore(), nil, one)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		if store.Len() != 0 {
			t.Errorf("Expected no snacks assigned, got %d", store.Len())
		}
		if len(report.Unassigned) != 10 {
			t.Errorf("Expected 10 unassigned snack slots, got %d", len(report.Unassigned))
		}
	})

	t.Run("SkipsSlotTypeAlreadyChosen", func(t *testing.T) {
		start, err := Replace(NewStore(), nil, Wednesday, HomeSnack, "Crackers", SourceRecipe)
		if err != nil {
			t.Fatalf("Replace failed: %v", err)
		}
		start, err = ClearUnlocked(PhaseSnacks, NewLockedDays(Wednesday), start)
		if err != nil {
			t.Fatalf("ClearUnlocked failed: %v", err)
		}

		store, _, err := Regenerate(PhaseSnacks, nil, start, nil, pools)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		if store.IsFilled(Key(Monday, HomeSnack)) {
			t.Error("Expected home snacks to stay open once one was chosen")
		}
		if sel, _ := store.Selection(Key(Monday, SchoolSnack)); sel.RecipeName != "Apple" {
			t.Errorf("Expected Apple as school snack, got '%s'", sel.RecipeName)
		}
	})
}

func TestRegenerateKeepsLockedDays(t *testing.T) {
	start, err := Replace(NewStore(), nil, Monday, Dinner, "Lasagna", SourceRecipe)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	before, _ := start.Selection(Key(Monday, Dinner))
	locked := NewLockedDays(Monday)
	inventory := []InventoryMealItem{{Name: "Chili", Quantity: 1, Location: Fridge}}

	store, _, err := Regenerate(PhaseDinners, locked, start, inventory, CandidatePools{Dinner: dinnerPool()})
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	after, ok := store.Selection(Key(Monday, Dinner))
	if !ok || after != before {
		t.Errorf("Expected locked Monday to stay %+v, got %+v", before, after)
	}
	if !store.IsConfirmed(Key(Monday, Dinner)) {
		t.Error("Expected Monday confirmation to survive")
	}
	if lo, _ := store.Leftover(Key(Tuesday, Dinner)); lo.ItemName != "Chili" {
		t.Errorf("Expected Chili on the first open day, got %+v", store.Cell(Key(Tuesday, Dinner)))
	}
	for _, d := range Week[1:] {
		if !store.IsFilled(Key(d, Dinner)) {
			t.Errorf("Expected %s dinner to be filled", d)
		}
	}
}

func TestRegenerateIsIdempotent(t *testing.T) {
	inventory := []InventoryMealItem{{Name: "Chili", Quantity: 2, Location: Fridge}}
	pools := CandidatePools{Dinner: dinnerPool()}

	first, _, err := Regenerate(PhaseDinners, nil, NewStore(), inventory, pools)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	second, report, err := Regenerate(PhaseDinners, nil, first, inventory, pools)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if report.Changed() {
		t.Errorf("Expected no change on second pass, filled %v", report.Filled)
	}
	if !second.Equal(first) {
		t.Error("Expected identical stores after a second pass")
	}
}

func TestAllocatePreservesInputs(t *testing.T) {
	inventory := []InventoryMealItem{{Name: "Chili", Quantity: 5, Location: Fridge}}
	start, _ := Replace(NewStore(), nil, Monday, Lunch, "Wraps", SourceRecipe)

	store, _, err := Regenerate(PhaseDinners, nil, start, inventory, CandidatePools{})
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if inventory[0].Quantity != 5 {
		t.Errorf("Expected inventory to be untouched, got quantity %d", inventory[0].Quantity)
	}
	if start.Len() != 1 {
		t.Errorf("Expected the input store to be untouched, got %d filled", start.Len())
	}
	if sel, _ := store.Selection(Key(Monday, Lunch)); sel.RecipeName != "Wraps" {
		t.Error("Expected keys outside the phase to be carried over")
	}
	if store.LeftoverCount("Chili") != 5 {
		t.Errorf("Expected 5 Chili dinners, got %d", store.LeftoverCount("Chili"))
	}
	if store.IsFilled(Key(Saturday, Dinner)) {
		t.Error("Expected Saturday to stay open once Chili ran out and pools are empty")
	}
}

func TestLeftoverConservation(t *testing.T) {
	inventory := []InventoryMealItem{
		{Name: "Chili", Quantity: 2, Location: Fridge},
		{Name: "Stew", Quantity: 1, Location: Fridge},
		{Name: "Soup", Quantity: 3, Location: Freezer},
	}
	store := NewStore()
	for _, phase := range Phases {
		var err error
		store, _, err = Regenerate(phase, nil, store, inventory, CandidatePools{})
		if err != nil {
			t.Fatalf("Regenerate %s failed: %v", phase, err)
		}
	}
	for _, item := range inventory {
		if n := store.LeftoverCount(item.Name); n > item.Quantity {
			t.Errorf("Expected at most %d %s assignments, got %d", item.Quantity, item.Name, n)
		}
	}
	if len(Reconcile(store, inventory)) != 0 {
		t.Error("Expected no over-allocation after regeneration")
	}
}

func TestClearUnlocked(t *testing.T) {
	store, _, _ := Regenerate(PhaseDinners, nil, NewStore(), nil, CandidatePools{Dinner: dinnerPool()})

	cleared, err := ClearUnlocked(PhaseDinners, NewLockedDays(Friday), store)
	if err != nil {
		t.Fatalf("ClearUnlocked failed: %v", err)
	}
	if cleared.Len() != 1 || !cleared.IsFilled(Key(Friday, Dinner)) {
		t.Errorf("Expected only Friday to remain, got %d filled", cleared.Len())
	}
	if store.Len() != 7 {
		t.Error("Expected the original store to be untouched")
	}
}
