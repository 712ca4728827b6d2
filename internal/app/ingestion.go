package app

import (
	"context"
	"fmt"
	"log"

	"meal-planner/internal/ghost"
	"meal-planner/internal/recipe"
)

// SyncReport summarizes a recipe sync.
type SyncReport struct {
	Fetched  int
	Saved    int
	UpToDate int
	Failed   int
	Removed  int64
}

// RecipeStore is the catalog persistence used by the sync.
type RecipeStore interface {
	Save(ctx context.Context, rec recipe.Recipe) error
	IsUpToDate(ctx context.Context, id, updatedAt string) (bool, error)
	DeleteExcept(ctx context.Context, keep []string) (int64, error)
}

// SyncRecipes mirrors the published Ghost posts into the recipe catalog. Recipes no
// longer published are removed, unless Ghost returned nothing at all.
func SyncRecipes(ctx context.Context, client ghost.Client, store RecipeStore) (SyncReport, error) {
	var report SyncReport

	posts, err := client.FetchRecipes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	report.Fetched = len(posts)

	keep := make([]string, 0, len(posts))
	for _, post := range posts {
		keep = append(keep, post.ID)
		saved, err := processPost(ctx, store, post)
		switch {
		case err != nil:
			log.Printf("Failed to process '%s': %v", post.Title, err)
			report.Failed++
		case saved:
			report.Saved++
		default:
			report.UpToDate++
		}
	}

	if len(posts) == 0 {
		log.Printf("Warning: ghost returned no posts, keeping the existing catalog")
		return report, nil
	}
	removed, err := store.DeleteExcept(ctx, keep)
	if err != nil {
		return report, err
	}
	report.Removed = removed
	return report, nil
}

// processPost saves the post as a recipe unless the stored copy is current.
func processPost(ctx context.Context, store RecipeStore, post ghost.Post) (bool, error) {
	upToDate, err := store.IsUpToDate(ctx, post.ID, post.UpdatedAt)
	if err != nil {
		return false, err
	}
	if upToDate {
		return false, nil
	}

	rec, err := recipe.FromPost(recipe.PostData{
		ID:        post.ID,
		Title:     post.Title,
		UpdatedAt: post.UpdatedAt,
		HTML:      post.HTML,
		Tags:      post.TagNames(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if len(rec.MealTypes) == 0 {
		log.Printf("Warning: recipe '%s' has no meal type tag and will not appear in rotations", rec.Title)
	}
	if err := store.Save(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to save recipe: %w", err)
	}
	return true, nil
}
