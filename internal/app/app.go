package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"meal-planner/internal/clipper"
	"meal-planner/internal/draft"
	"meal-planner/internal/ghost"
	"meal-planner/internal/inventory"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
)

// App holds the application's dependencies.
type App struct {
	ghostClient   ghost.Client
	recipeRepo    *recipe.Repository
	inventoryRepo *inventory.Repository
	planRepo      *planner.PlanRepository
	coordinator   *draft.Coordinator
	recipeClipper *clipper.Clipper
	metricsStore  *metrics.Store
	counters      *metrics.Engine
}

// NewApp creates and initializes a new App instance. ghostClient and
// recipeClipper may be nil when Ghost is not configured.
func NewApp(
	ghostClient ghost.Client,
	recipeRepo *recipe.Repository,
	inventoryRepo *inventory.Repository,
	planRepo *planner.PlanRepository,
	coordinator *draft.Coordinator,
	recipeClipper *clipper.Clipper,
	metricsStore *metrics.Store,
	counters *metrics.Engine,
) *App {
	return &App{
		ghostClient:   ghostClient,
		recipeRepo:    recipeRepo,
		inventoryRepo: inventoryRepo,
		planRepo:      planRepo,
		coordinator:   coordinator,
		recipeClipper: recipeClipper,
		metricsStore:  metricsStore,
		counters:      counters,
	}
}

// SyncRecipes pulls the Ghost catalog into the recipe repository.
func (a *App) SyncRecipes(ctx context.Context) (SyncReport, error) {
	if a.ghostClient == nil {
		return SyncReport{}, fmt.Errorf("ghost is not configured")
	}
	return SyncRecipes(ctx, a.ghostClient, a.recipeRepo)
}

// DraftPhase regenerates one phase of the user's draft.
func (a *App) DraftPhase(ctx context.Context, userID string, phase planner.Phase) (*draft.Result, error) {
	return a.coordinator.Regenerate(ctx, userID, phase)
}

// ShowDraft returns the user's draft with its current over-allocation warnings.
// A failing inventory only drops the warnings.
func (a *App) ShowDraft(ctx context.Context, userID string) (*draft.Session, []planner.OverAllocation, error) {
	sess, err := a.coordinator.Session(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	over, err := a.coordinator.Reconcile(ctx, userID)
	if err != nil {
		log.Printf("Warning: could not reconcile draft for %s: %v", userID, err)
	}
	return sess, over, nil
}

// SwapCommitted exchanges two dinners of the finalized plan for the week being
// planned.
func (a *App) SwapCommitted(ctx context.Context, userID string, dayA, dayB planner.Day) (*planner.MealPlan, error) {
	plan, err := a.planRepo.SwapDinners(ctx, userID, a.coordinator.WeekStart(), dayA, dayB)
	if err != nil {
		return nil, err
	}
	if a.counters != nil {
		a.counters.Swaps.WithLabelValues("committed").Inc()
	}
	return plan, nil
}

// Swap exchanges two dinners, on the committed plan when the week is finalized and
// on the draft otherwise.
func (a *App) Swap(ctx context.Context, userID string, dayA, dayB planner.Day) (planner.Store, error) {
	committed, err := a.planRepo.ExistsForWeek(ctx, userID, a.coordinator.WeekStart())
	if err != nil {
		return planner.Store{}, err
	}
	if committed {
		plan, err := a.SwapCommitted(ctx, userID, dayA, dayB)
		if err != nil {
			return planner.Store{}, err
		}
		return plan.Store, nil
	}
	sess, err := a.coordinator.Swap(ctx, userID, dayA, dayB)
	if err != nil {
		return planner.Store{}, err
	}
	return sess.Store, nil
}

// FinalizeDraft commits the draft.
func (a *App) FinalizeDraft(ctx context.Context, userID string) (*planner.MealPlan, error) {
	return a.coordinator.Finalize(ctx, userID)
}

// CommittedPlan returns the finalized plan for the week being planned, if any.
func (a *App) CommittedPlan(ctx context.Context, userID string) (*planner.MealPlan, error) {
	return a.planRepo.GetForWeek(ctx, userID, a.coordinator.WeekStart())
}

// Coordinator exposes the draft coordinator for chat edits.
func (a *App) Coordinator() *draft.Coordinator {
	return a.coordinator
}

// Stock records an inventory item.
func (a *App) Stock(ctx context.Context, item planner.InventoryMealItem) error {
	return a.inventoryRepo.Upsert(ctx, item)
}

// Unstock removes an inventory item.
func (a *App) Unstock(ctx context.Context, name string) error {
	return a.inventoryRepo.Remove(ctx, name)
}

// History lists the user's most recent committed plans.
func (a *App) History(ctx context.Context, userID string, limit int) ([]planner.MealPlan, error) {
	return a.planRepo.ListRecentByUserID(ctx, userID, limit)
}

// Inventory lists the inventory.
func (a *App) Inventory(ctx context.Context) ([]planner.InventoryMealItem, error) {
	return a.inventoryRepo.List(ctx)
}

// ClipRecipe imports a recipe page into Ghost and the catalog.
func (a *App) ClipRecipe(ctx context.Context, url string) (*clipper.Result, error) {
	if a.recipeClipper == nil {
		return nil, fmt.Errorf("recipe clipping is not configured")
	}
	res, err := a.recipeClipper.ClipURL(ctx, url)
	if res != nil && a.metricsStore != nil {
		if merr := a.metricsStore.RecordMeta(ctx, res.Meta); merr != nil {
			log.Printf("Warning: failed to record metrics for %s: %v", res.Meta.AgentName, merr)
		}
	}
	return res, err
}

// RenderWeek writes the week grid as plain text.
func RenderWeek(w io.Writer, store planner.Store, locked planner.LockedDays, over []planner.OverAllocation) {
	for _, d := range planner.Week {
		marker := " "
		if locked.Has(d) {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-10s", marker, d.Name())
		for _, st := range []planner.SlotType{planner.Dinner, planner.Lunch, planner.SchoolSnack, planner.HomeSnack} {
			k := planner.Key(d, st)
			if k.Validate() != nil {
				continue
			}
			fmt.Fprintf(w, " | %s: %s", st, cellText(store.Cell(k)))
		}
		fmt.Fprintln(w)
	}
	for _, o := range over {
		fmt.Fprintf(w, "Warning: %s assigned %d times but only %d on hand (%s)\n",
			o.ItemName, o.Assigned, o.Available, joinKeys(o.Slots))
	}
}

func cellText(c planner.Cell) string {
	var text string
	switch c.Kind {
	case planner.CellEmpty:
		return "-"
	case planner.CellLeftover:
		text = "leftover " + c.Label()
	default:
		text = c.Label()
	}
	if c.Confirmed {
		text += " (ok)"
	}
	return text
}

func joinKeys(keys []planner.SlotKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, ", ")
}
