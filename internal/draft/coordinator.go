package draft

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"

	"golang.org/x/sync/errgroup"
)

// SessionStore persists drafts.
type SessionStore interface {
	Get(ctx context.Context, userID string, weekStart time.Time) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string, weekStart time.Time) error
}

// InventorySource provides inventory snapshots.
type InventorySource interface {
	Snapshot(ctx context.Context) ([]planner.InventoryMealItem, error)
}

// Suggester provides candidate pools.
type Suggester interface {
	Rotations(ctx context.Context) (planner.CandidatePools, error)
	WasteNot(ctx context.Context, inventory []planner.InventoryMealItem) ([]planner.Candidate, shared.AgentMeta, error)
}

// RecipeSource lists the catalog for name resolution.
type RecipeSource interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
}

// PlanCommitter accepts finalized weeks.
type PlanCommitter interface {
	Save(ctx context.Context, plan *planner.MealPlan) error
}

// UsageRecorder stores LLM token usage.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Deps groups the collaborators of a Coordinator. Usage and Counters are optional.
type Deps struct {
	Sessions  SessionStore
	Inventory InventorySource
	Suggester Suggester
	Recipes   RecipeSource
	Plans     PlanCommitter
	Usage     UsageRecorder
	Counters  *metrics.Engine
}

// Result describes an applied regeneration.
type Result struct {
	Session *Session
	Report  planner.AllocationReport
	// Warnings lists the sources that could not be fetched; their priority levels
	// were skipped.
	Warnings        []error
	OverAllocations []planner.OverAllocation
	Meta            shared.AgentMeta
}

// Coordinator runs the engine operations against a user's draft. Fetches run
// outside the lock; applying a result and every edit are serialized.
type Coordinator struct {
	deps Deps
	seq  *Sequencer
	mu   sync.Mutex
	week func() time.Time
}

// NewCoordinator creates a Coordinator planning the week starting next Monday.
func NewCoordinator(deps Deps) *Coordinator {
	return &Coordinator{
		deps: deps,
		seq:  NewSequencer(),
		week: func() time.Time { return planner.GetNextMonday(time.Now()) },
	}
}

// WeekStart returns the week currently being planned.
func (c *Coordinator) WeekStart() time.Time {
	return c.week()
}

// Session returns the user's draft, or a new empty one.
func (c *Coordinator) Session(ctx context.Context, userID string) (*Session, error) {
	return c.load(ctx, userID)
}

// Regenerate fills the open slots of the phase. If another request for the same
// phase, or an edit to it, happens while inputs are fetched, the result is dropped
// and ErrStaleData is returned.
func (c *Coordinator) Regenerate(ctx context.Context, userID string, phase planner.Phase) (*Result, error) {
	if _, err := planner.ParsePhase(string(phase)); err != nil {
		return nil, err
	}

	fetchCtx, tok := c.seq.Issue(ctx, userID, phase)
	defer c.seq.Release(tok)

	var inventory []planner.InventoryMealItem
	var pools planner.CandidatePools
	var meta shared.AgentMeta
	var invErr, rotErr, wasteErr error

	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		inventory, invErr = c.deps.Inventory.Snapshot(gctx)
		if invErr != nil || phase != planner.PhaseDinners {
			return nil
		}
		pools.WasteNot, meta, wasteErr = c.deps.Suggester.WasteNot(gctx, inventory)
		return nil
	})
	var rotations planner.CandidatePools
	g.Go(func() error {
		rotations, rotErr = c.deps.Suggester.Rotations(gctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.seq.IsFresh(tok) {
		c.countStale(phase)
		return nil, fmt.Errorf("%w: %s request superseded", planner.ErrStaleData, phase)
	}

	pools.Dinner, pools.Lunch, pools.Snack = rotations.Dinner, rotations.Lunch, rotations.Snack
	res := &Result{Meta: meta}
	sources := []struct {
		name string
		err  error
	}{{"inventory", invErr}, {"rotations", rotErr}, {"waste_not", wasteErr}}
	for _, src := range sources {
		if src.err == nil {
			continue
		}
		log.Printf("Warning: allocating %s without %s: %v", phase, src.name, src.err)
		res.Warnings = append(res.Warnings, fmt.Errorf("%s: %w", src.name, src.err))
		if c.deps.Counters != nil {
			c.deps.Counters.DegradedFetches.WithLabelValues(src.name).Inc()
		}
	}
	if meta.Usage.PromptTokens > 0 && c.deps.Usage != nil {
		if err := c.deps.Usage.RecordMeta(ctx, meta); err != nil {
			log.Printf("Warning: failed to record %s usage: %v", meta.AgentName, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seq.IsFresh(tok) {
		c.countStale(phase)
		return nil, fmt.Errorf("%w: %s request superseded", planner.ErrStaleData, phase)
	}

	sess, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	store, report, err := planner.Regenerate(phase, sess.Locked, sess.Store, inventory, pools)
	if err != nil {
		return nil, err
	}
	if report.Changed() {
		sess.Store = store
		if err := c.deps.Sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
	}
	res.Session = sess
	res.Report = report
	if invErr == nil {
		res.OverAllocations = planner.Reconcile(sess.Store, inventory)
	}

	if cnt := c.deps.Counters; cnt != nil {
		cnt.Allocations.WithLabelValues(string(phase)).Inc()
		cnt.FilledSlots.WithLabelValues(string(phase)).Add(float64(len(report.Filled)))
		cnt.UnassignedSlots.WithLabelValues(string(phase)).Add(float64(len(report.Unassigned)))
		cnt.OverAllocations.Add(float64(len(res.OverAllocations)))
	}
	return res, nil
}

// Replace applies a user override. Recipe names are resolved against the catalog;
// when the catalog is unavailable the name is kept as free text.
func (c *Coordinator) Replace(ctx context.Context, userID string, day planner.Day, slot planner.SlotType, value string, kind planner.SourceKind) (*Session, error) {
	var catalog planner.RecipeResolver
	if kind == planner.SourceRecipe && c.deps.Recipes != nil {
		recipes, err := c.deps.Recipes.List(ctx)
		if err != nil {
			log.Printf("Warning: replacing %s-%s without catalog: %v", day, slot, err)
		} else {
			catalog = recipe.NewCatalog(recipes)
		}
	}

	return c.edit(ctx, userID, planner.PhaseOf(slot), func(s *Session) error {
		store, err := planner.Replace(s.Store, catalog, day, slot, value, kind)
		if err != nil {
			return err
		}
		s.Store = store
		if c.deps.Counters != nil {
			c.deps.Counters.Replacements.WithLabelValues(string(kind)).Inc()
		}
		return nil
	})
}

// Swap exchanges two dinners of the draft.
func (c *Coordinator) Swap(ctx context.Context, userID string, a, b planner.Day) (*Session, error) {
	return c.edit(ctx, userID, planner.PhaseDinners, func(s *Session) error {
		store, err := planner.Swap(s.Store, a, b)
		if err != nil {
			return err
		}
		s.Store = store
		if c.deps.Counters != nil {
			c.deps.Counters.Swaps.WithLabelValues("draft").Inc()
		}
		return nil
	})
}

// Lock excludes the day from regeneration.
func (c *Coordinator) Lock(ctx context.Context, userID string, day planner.Day) (*Session, error) {
	return c.setLocked(ctx, userID, day, true)
}

// Unlock makes the day eligible for regeneration again.
func (c *Coordinator) Unlock(ctx context.Context, userID string, day planner.Day) (*Session, error) {
	return c.setLocked(ctx, userID, day, false)
}

func (c *Coordinator) setLocked(ctx context.Context, userID string, day planner.Day, locked bool) (*Session, error) {
	if day.Index() < 0 {
		return nil, fmt.Errorf("%w: unknown day %q", planner.ErrInvalidInput, day)
	}
	return c.edit(ctx, userID, "", func(s *Session) error {
		if locked {
			s.Locked[day] = true
		} else {
			delete(s.Locked, day)
		}
		return nil
	})
}

// Clear removes the phase's assignments on unlocked days so the next Regenerate
// reallocates them.
func (c *Coordinator) Clear(ctx context.Context, userID string, phase planner.Phase) (*Session, error) {
	return c.edit(ctx, userID, phase, func(s *Session) error {
		store, err := planner.ClearUnlocked(phase, s.Locked, s.Store)
		if err != nil {
			return err
		}
		s.Store = store
		return nil
	})
}

// Finalize commits the draft as the week's plan and discards the draft.
func (c *Coordinator) Finalize(ctx context.Context, userID string) (*planner.MealPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	week := c.week()
	sess, err := c.deps.Sessions.Get(ctx, userID, week)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Store.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing drafted for week %s", planner.ErrInvalidInput, week.Format(weekLayout))
	}

	plan := &planner.MealPlan{
		UserID:    userID,
		WeekStart: week,
		Status:    planner.StatusFinal,
		Store:     sess.Store,
	}
	if err := c.deps.Plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	for _, p := range planner.Phases {
		c.seq.Invalidate(userID, p)
	}
	if err := c.deps.Sessions.Delete(ctx, userID, week); err != nil {
		log.Printf("Warning: plan committed but draft %s not deleted: %v", sess.ID, err)
	}
	return plan, nil
}

// Reconcile checks the draft's leftover assignments against a live inventory
// snapshot.
func (c *Coordinator) Reconcile(ctx context.Context, userID string) ([]planner.OverAllocation, error) {
	inventory, err := c.deps.Inventory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	sess, err := c.load(ctx, userID)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	over := planner.Reconcile(sess.Store, inventory)
	if c.deps.Counters != nil {
		c.deps.Counters.OverAllocations.Add(float64(len(over)))
	}
	return over, nil
}

// edit applies fn to the latest session under the lock and saves it. A non-empty
// phase invalidates in-flight fetches for it so they cannot overwrite the edit.
func (c *Coordinator) edit(ctx context.Context, userID string, phase planner.Phase, fn func(*Session) error) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if phase != "" {
		c.seq.Invalidate(userID, phase)
	}
	if err := c.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Coordinator) load(ctx context.Context, userID string) (*Session, error) {
	week := c.week()
	sess, err := c.deps.Sessions.Get(ctx, userID, week)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession(userID, week)
	}
	if sess.Locked == nil {
		sess.Locked = planner.LockedDays{}
	}
	return sess, nil
}

func (c *Coordinator) countStale(phase planner.Phase) {
	log.Printf("Discarding stale %s allocation", phase)
	if c.deps.Counters != nil {
		c.deps.Counters.StaleResults.WithLabelValues(string(phase)).Inc()
	}
}
