package suggest

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"

	"github.com/tidwall/gjson"
)

//go:embed waste_not_prompt.md
var wasteNotPrompt string

var promptTmpl = template.Must(template.New("waste-not").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(wasteNotPrompt))

// wasteNotLimit matches the number of dinners in a week; the allocator indexes the
// list by day.
const wasteNotLimit = 7

// RecipeLister reads the catalog by meal type.
type RecipeLister interface {
	ListByMealType(ctx context.Context, mt recipe.MealType) ([]recipe.Recipe, error)
}

// Service builds the candidate pools handed to the allocator.
type Service struct {
	recipes RecipeLister
	textGen llm.TextGenerator
}

// NewService creates a Service. textGen may be nil, in which case no waste-not
// suggestions are produced.
func NewService(recipes RecipeLister, textGen llm.TextGenerator) *Service {
	return &Service{recipes: recipes, textGen: textGen}
}

type promptData struct {
	Inventory []planner.InventoryMealItem
	Recipes   []recipe.Recipe
	Limit     int
}

// Pools returns the rotations for every phase and, when inventory is on hand, the
// ranked waste-not list. A failing LLM leaves WasteNot empty and the error wraps
// planner.ErrExternalService; the rotations are still returned.
func (s *Service) Pools(ctx context.Context, inventory []planner.InventoryMealItem) (planner.CandidatePools, shared.AgentMeta, error) {
	pools, err := s.Rotations(ctx)
	if err != nil {
		return pools, shared.AgentMeta{AgentName: "WasteNot"}, err
	}
	wasteNot, meta, err := s.WasteNot(ctx, inventory)
	pools.WasteNot = wasteNot
	return pools, meta, err
}

// Rotations returns the dinner, lunch and snack rotations from the catalog.
func (s *Service) Rotations(ctx context.Context) (planner.CandidatePools, error) {
	var pools planner.CandidatePools
	for _, mt := range []recipe.MealType{recipe.MealDinner, recipe.MealLunch, recipe.MealSnack} {
		recipes, err := s.recipes.ListByMealType(ctx, mt)
		if err != nil {
			return planner.CandidatePools{}, fmt.Errorf("%w: failed to list %s recipes: %v", planner.ErrExternalService, mt, err)
		}
		switch mt {
		case recipe.MealDinner:
			pools.Dinner = candidates(recipes)
		case recipe.MealLunch:
			pools.Lunch = candidates(recipes)
		case recipe.MealSnack:
			pools.Snack = candidates(recipes)
		}
	}
	return pools, nil
}

// WasteNot asks the model to rank dinner recipes by how well they use up the
// on-hand inventory. Nothing is asked when there is no generator, no stock or no
// dinner recipe.
func (s *Service) WasteNot(ctx context.Context, inventory []planner.InventoryMealItem) ([]planner.Candidate, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: "WasteNot"}

	onHand := make([]planner.InventoryMealItem, 0, len(inventory))
	for _, item := range inventory {
		if item.Quantity > 0 {
			onHand = append(onHand, item)
		}
	}
	if s.textGen == nil || len(onHand) == 0 {
		return nil, meta, nil
	}

	dinners, err := s.recipes.ListByMealType(ctx, recipe.MealDinner)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: failed to list dinner recipes: %v", planner.ErrExternalService, err)
	}
	if len(dinners) == 0 {
		return nil, meta, nil
	}

	start := time.Now()
	wasteNot, usage, err := s.rankWasteNot(ctx, onHand, dinners)
	meta.Usage = usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: waste-not suggestions: %v", planner.ErrExternalService, err)
	}
	return wasteNot, meta, nil
}

func (s *Service) rankWasteNot(ctx context.Context, inventory []planner.InventoryMealItem, dinners []recipe.Recipe) ([]planner.Candidate, shared.TokenUsage, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, promptData{Inventory: inventory, Recipes: dinners, Limit: wasteNotLimit}); err != nil {
		return nil, shared.TokenUsage{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := s.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, shared.TokenUsage{}, err
	}
	titles, err := parseSuggestions(resp.Content)
	if err != nil {
		return nil, resp.Usage, err
	}

	catalog := recipe.NewCatalog(dinners)
	byID := make(map[string]recipe.Recipe, len(dinners))
	for _, r := range dinners {
		byID[r.ID] = r
	}

	seen := make(map[string]bool)
	var out []planner.Candidate
	for _, title := range titles {
		id, ok := catalog.ResolveRecipe(title)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, byID[id].Candidate())
		if len(out) == wasteNotLimit {
			break
		}
	}
	return out, resp.Usage, nil
}

// parseSuggestions accepts {"suggestions": [{"title": ...}]}, a list of plain titles
// under "suggestions", or a bare top-level array.
func parseSuggestions(raw string) ([]string, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("failed to parse suggestions: invalid json. Response: %s", raw)
	}
	list := gjson.Get(raw, "suggestions")
	if !list.Exists() {
		list = gjson.Parse(raw)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("failed to parse suggestions: no list found. Response: %s", raw)
	}

	var titles []string
	list.ForEach(func(_, v gjson.Result) bool {
		title := v.String()
		if v.IsObject() {
			title = v.Get("title").String()
		}
		if title = strings.TrimSpace(title); title != "" {
			titles = append(titles, title)
		}
		return true
	})
	return titles, nil
}

func candidates(recipes []recipe.Recipe) []planner.Candidate {
	out := make([]planner.Candidate, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Candidate())
	}
	return out
}
