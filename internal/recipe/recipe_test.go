package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "recipes.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	recipes := []Recipe{
		{ID: "r3", Title: "Tacos", MealTypes: []MealType{MealDinner}, UpdatedAt: "2024-01-01T00:00:00Z"},
		{ID: "r1", Title: "Bean Soup", MealTypes: []MealType{MealDinner, MealLunch}, UpdatedAt: "2024-01-01T00:00:00Z"},
		{ID: "r2", Title: "Apple Slices", MealTypes: []MealType{MealSnack}, UpdatedAt: "2024-01-01T00:00:00Z"},
	}
	for _, rec := range recipes {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	t.Run("Get", func(t *testing.T) {
		rec, err := repo.Get(ctx, "r1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if rec == nil || rec.Title != "Bean Soup" || len(rec.MealTypes) != 2 {
			t.Errorf("Expected Bean Soup with 2 meal types, got %+v", rec)
		}

		missing, err := repo.Get(ctx, "nope")
		if err != nil || missing != nil {
			t.Errorf("Expected nil, nil for missing recipe, got %+v, %v", missing, err)
		}
	})

	t.Run("ListByMealType", func(t *testing.T) {
		dinners, err := repo.ListByMealType(ctx, MealDinner)
		if err != nil {
			t.Fatalf("ListByMealType failed: %v", err)
		}
		if len(dinners) != 2 || dinners[0].Title != "Bean Soup" || dinners[1].Title != "Tacos" {
			t.Errorf("Expected [Bean Soup Tacos], got %+v", dinners)
		}
	})

	t.Run("IsUpToDate", func(t *testing.T) {
		ok, err := repo.IsUpToDate(ctx, "r1", "2024-01-01T00:00:00Z")
		if err != nil || !ok {
			t.Errorf("Expected r1 to be up to date, got %v, %v", ok, err)
		}
		ok, _ = repo.IsUpToDate(ctx, "r1", "2025-01-01T00:00:00Z")
		if ok {
			t.Error("Expected r1 to be stale for a newer timestamp")
		}
	})

	t.Run("DeleteExcept", func(t *testing.T) {
		deleted, err := repo.DeleteExcept(ctx, []string{"r1", "r2"})
		if err != nil {
			t.Fatalf("DeleteExcept failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("Expected 1 deleted recipe, got %d", deleted)
		}
		count, _ := repo.Count(ctx)
		if count != 2 {
			t.Errorf("Expected 2 recipes left, got %d", count)
		}
	})
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog([]Recipe{
		{ID: "r1", Title: "Chicken  Quesadillas"},
		{ID: "r2", Title: "chicken quesadillas"},
		{ID: "r3", Title: ""},
	})

	id, ok := catalog.ResolveRecipe("  CHICKEN quesadillas ")
	if !ok || id != "r1" {
		t.Errorf("Expected r1, got %q (found=%v)", id, ok)
	}
	if _, ok := catalog.ResolveRecipe("Pizza"); ok {
		t.Error("Expected Pizza to be unknown")
	}
	if catalog.Len() != 1 {
		t.Errorf("Expected 1 indexed title, got %d", catalog.Len())
	}

	var nilCatalog *Catalog
	if _, ok := nilCatalog.ResolveRecipe("anything"); ok {
		t.Error("Expected nil catalog to resolve nothing")
	}
}

func TestFromPost(t *testing.T) {
	t.Run("IngredientsHeading", func(t *testing.T) {
		rec, err := FromPost(PostData{
			ID:    "p1",
			Title: " Tacos ",
			Tags:  []string{"Dinner", "Mexican", "dinners"},
			HTML: `<p>Intro</p><ul><li>Not an ingredient</li></ul>
				<h2>Ingredients</h2><ul><li>Tortillas</li><li> Beans </li></ul>
				<p><strong>Prep Time:</strong> 20 mins | <strong>Servings:</strong> 4</p>`,
		})
		if err != nil {
			t.Fatalf("FromPost failed: %v", err)
		}
		if rec.Title != "Tacos" {
			t.Errorf("Expected title 'Tacos', got '%s'", rec.Title)
		}
		if len(rec.MealTypes) != 1 || rec.MealTypes[0] != MealDinner {
			t.Errorf("Expected [dinner], got %v", rec.MealTypes)
		}
		if len(rec.Ingredients) != 2 || rec.Ingredients[1] != "Beans" {
			t.Errorf("Expected [Tortillas Beans], got %v", rec.Ingredients)
		}
		if rec.PrepTime != "20 mins" {
			t.Errorf("Expected prep time '20 mins', got '%s'", rec.PrepTime)
		}
	})

	t.Run("MissingTitle", func(t *testing.T) {
		if _, err := FromPost(PostData{ID: "p2"}); err == nil {
			t.Fatal("Expected an error for a post without title, got nil")
		}
	})
}
