package planner

import (
	"fmt"
	"strings"
)

// Selection fills a slot with a recipe.
type Selection struct {
	Day        Day      `json:"day"`
	SlotType   SlotType `json:"slot_type"`
	RecipeID   string   `json:"recipe_id"`
	RecipeName string   `json:"recipe_name"`
}

// Key returns the slot the selection fills.
func (s Selection) Key() SlotKey { return Key(s.Day, s.SlotType) }

// LeftoverAssignment fills a slot by consuming one unit of an on-hand item.
type LeftoverAssignment struct {
	Day      Day      `json:"day"`
	SlotType SlotType `json:"slot_type"`
	ItemName string   `json:"item_name"`
}

// Key returns the slot the assignment fills.
func (l LeftoverAssignment) Key() SlotKey { return Key(l.Day, l.SlotType) }

// Location is where an inventory item is stored.
type Location string

const (
	Fridge  Location = "fridge"
	Freezer Location = "freezer"
)

// ParseLocation parses a storage location.
func ParseLocation(s string) (Location, error) {
	switch Location(strings.ToLower(strings.TrimSpace(s))) {
	case Fridge:
		return Fridge, nil
	case Freezer:
		return Freezer, nil
	}
	return "", fmt.Errorf("%w: unknown location %q", ErrInvalidInput, s)
}

// InventoryMealItem is a prepared leftover available for planning. Quantity counts
// servings not yet assigned when the snapshot was taken.
type InventoryMealItem struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Location Location `json:"location"`
}

// Candidate is a ranked recipe suggestion.
type Candidate struct {
	RecipeID   string `json:"recipe_id"`
	RecipeName string `json:"recipe_name"`
}

func (c Candidate) selection(k SlotKey) Selection {
	id := c.RecipeID
	if id == "" {
		id = c.RecipeName
	}
	return Selection{Day: k.Day, SlotType: k.Slot, RecipeID: id, RecipeName: c.RecipeName}
}

// CandidatePools holds the fallback recipe lists used by the allocator.
// An empty pool makes its priority level fail over.
type CandidatePools struct {
	WasteNot []Candidate `json:"waste_not"`
	Dinner   []Candidate `json:"dinner"`
	Lunch    []Candidate `json:"lunch"`
	Snack    []Candidate `json:"snack"`
}

// SourceKind tells the replacement resolver which store an override targets.
type SourceKind string

const (
	SourceRecipe   SourceKind = "recipe"
	SourceLeftover SourceKind = "leftover"
)

// ParseSourceKind parses a source kind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case SourceRecipe:
		return SourceRecipe, nil
	case SourceLeftover:
		return SourceLeftover, nil
	}
	return "", fmt.Errorf("%w: unknown source kind %q", ErrInvalidInput, s)
}

// CellKind describes what fills a slot.
type CellKind string

const (
	CellEmpty    CellKind = "unassigned"
	CellRecipe   CellKind = "recipe"
	CellLeftover CellKind = "leftover"
)

// Cell is the rendered content of one slot.
type Cell struct {
	Key       SlotKey
	Kind      CellKind
	Selection Selection
	Leftover  LeftoverAssignment
	Confirmed bool
}

// Label returns the recipe or leftover name, or an empty string for an unassigned cell.
func (c Cell) Label() string {
	switch c.Kind {
	case CellRecipe:
		return c.Selection.RecipeName
	case CellLeftover:
		return c.Leftover.ItemName
	}
	return ""
}
