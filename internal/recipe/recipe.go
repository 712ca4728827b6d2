package recipe

import (
	"strings"

	"meal-planner/internal/planner"
)

// MealType tags the rotations a recipe can appear in.
type MealType string

const (
	MealDinner MealType = "dinner"
	MealLunch  MealType = "lunch"
	MealSnack  MealType = "snack"
)

// ParseMealType maps a tag name to a meal type. Unknown tags are reported as false.
func ParseMealType(tag string) (MealType, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "dinner", "dinners", "main":
		return MealDinner, true
	case "lunch", "lunches", "lunchbox":
		return MealLunch, true
	case "snack", "snacks":
		return MealSnack, true
	}
	return "", false
}

// Recipe is a catalog entry.
type Recipe struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	MealTypes   []MealType `json:"meal_types"`
	Ingredients []string   `json:"ingredients"`
	PrepTime    string     `json:"prep_time,omitempty"`
	UpdatedAt   string     `json:"updated_at"`
}

// Has reports whether the recipe is tagged with the meal type.
func (r Recipe) Has(mt MealType) bool {
	for _, m := range r.MealTypes {
		if m == mt {
			return true
		}
	}
	return false
}

// Candidate converts the recipe into an allocator candidate.
func (r Recipe) Candidate() planner.Candidate {
	return planner.Candidate{RecipeID: r.ID, RecipeName: r.Title}
}
