package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or updates a recipe in the database.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	if rec.ID == "" {
		return fmt.Errorf("recipe %q has no id", rec.Title)
	}
	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}
	types := rec.MealTypes
	if types == nil {
		types = []MealType{}
	}
	mealTypes, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("failed to marshal meal types: %w", err)
	}

	updatedAt := rec.UpdatedAt
	if _, err := time.Parse(time.RFC3339, updatedAt); err != nil {
		if updatedAt != "" {
			log.Printf("Warning: invalid updated_at %q for recipe %s, using current time", updatedAt, rec.ID)
		}
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, title, meal_types, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			meal_types = excluded.meal_types,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Title, string(mealTypes), string(recipeJSON), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a recipe by its ID, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// IsUpToDate reports whether the stored recipe carries the given source timestamp.
func (r *Repository) IsUpToDate(ctx context.Context, id, updatedAt string) (bool, error) {
	var stored string
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM recipes WHERE id = ?`, id).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check recipe %s: %w", id, err)
	}
	return stored == updatedAt, nil
}

// List retrieves all recipes ordered by title.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	return r.query(ctx, `SELECT id, data FROM recipes ORDER BY title COLLATE NOCASE, id`)
}

// ListByMealType retrieves the recipes tagged with the meal type ordered by title.
// The order is stable so rotations are deterministic.
func (r *Repository) ListByMealType(ctx context.Context, mt MealType) ([]Recipe, error) {
	return r.query(ctx, `
		SELECT recipes.id, recipes.data FROM recipes, json_each(recipes.meal_types)
		WHERE json_each.value = ?
		ORDER BY recipes.title COLLATE NOCASE, recipes.id`, string(mt))
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// DeleteExcept removes every recipe whose id is not in keep and returns how many
// rows were deleted.
func (r *Repository) DeleteExcept(ctx context.Context, keep []string) (int64, error) {
	query := `DELETE FROM recipes`
	args := make([]any, 0, len(keep))
	if len(keep) > 0 {
		query += ` WHERE id NOT IN (?` + strings.Repeat(`, ?`, len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale recipes: %w", err)
	}
	return res.RowsAffected()
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Printf("Warning: failed to unmarshal recipe JSON for ID %s: %v", id, err)
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}
