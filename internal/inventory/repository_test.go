package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"
	"meal-planner/internal/planner"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	t.Run("SnapshotKeepsInsertionOrder", func(t *testing.T) {
		items := []planner.InventoryMealItem{
			{Name: "Chili", Quantity: 2, Location: planner.Fridge},
			{Name: "Lasagna", Quantity: 4, Location: planner.Freezer},
			{Name: "Soup", Quantity: 1, Location: planner.Fridge},
		}
		for _, item := range items {
			if err := repo.Upsert(ctx, item); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		snapshot, err := repo.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(snapshot) != 3 {
			t.Fatalf("Expected 3 items, got %d", len(snapshot))
		}
		for i, item := range items {
			if snapshot[i] != item {
				t.Errorf("Expected item %d to be %+v, got %+v", i, item, snapshot[i])
			}
		}
	})

	t.Run("UpsertUpdatesInPlace", func(t *testing.T) {
		if err := repo.Upsert(ctx, planner.InventoryMealItem{Name: "Chili", Quantity: 0, Location: planner.Freezer}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		snapshot, _ := repo.Snapshot(ctx)
		if snapshot[0].Name != "Chili" || snapshot[0].Quantity != 0 || snapshot[0].Location != planner.Freezer {
			t.Errorf("Expected Chili to be updated in first position, got %+v", snapshot[0])
		}
	})

	t.Run("Get", func(t *testing.T) {
		item, err := repo.Get(ctx, "Lasagna")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if item == nil || item.Quantity != 4 {
			t.Errorf("Expected Lasagna with quantity 4, got %+v", item)
		}

		missing, err := repo.Get(ctx, "Pie")
		if err != nil || missing != nil {
			t.Errorf("Expected nil item and no error for missing item, got %+v, %v", missing, err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := repo.Remove(ctx, "Soup"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		snapshot, _ := repo.Snapshot(ctx)
		if len(snapshot) != 2 {
			t.Errorf("Expected 2 items after removal, got %d", len(snapshot))
		}
	})

	t.Run("RejectsInvalidItems", func(t *testing.T) {
		invalid := []planner.InventoryMealItem{
			{Name: " ", Quantity: 1, Location: planner.Fridge},
			{Name: "Rice", Quantity: -1, Location: planner.Fridge},
			{Name: "Rice", Quantity: 1, Location: "pantry"},
		}
		for _, item := range invalid {
			if err := repo.Upsert(ctx, item); !errors.Is(err, planner.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput for %+v, got %v", item, err)
			}
		}
	})
}
