package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"meal-planner/internal/app"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/draft"
	"meal-planner/internal/ghost"
	"meal-planner/internal/inventory"
	"meal-planner/internal/llm"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/suggest"
)

const defaultUser = "cli"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	suggester, releaseSuggester, err := llm.NewTextGenerator(ctx, cfg, llm.ModelSuggester, 0.2)
	if err != nil {
		log.Fatalf("Failed to initialize suggestion model: %v", err)
	}
	defer releaseSuggester()

	recipeRepo := recipe.NewRepository(db.SQL)
	inventoryRepo := inventory.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	coordinator := draft.NewCoordinator(draft.Deps{
		Sessions:  draft.NewRepository(db.SQL),
		Inventory: inventoryRepo,
		Suggester: suggest.NewService(recipeRepo, suggester),
		Recipes:   recipeRepo,
		Plans:     planRepo,
		Usage:     metricsStore,
	})

	var ghostClient ghost.Client
	var recipeClipper *clipper.Clipper
	if cfg.GhostURL != "" {
		ghostClient = ghost.NewClient(cfg)
		extractor, releaseExtractor, err := llm.NewTextGenerator(ctx, cfg, llm.ModelExtractor, 0.1)
		if err != nil {
			log.Fatalf("Failed to initialize extraction model: %v", err)
		}
		defer releaseExtractor()
		if extractor != nil {
			recipeClipper = clipper.NewClipper(ghostClient, extractor, recipeRepo)
		}
	}

	application := app.NewApp(ghostClient, recipeRepo, inventoryRepo, planRepo, coordinator, recipeClipper, metricsStore, nil)

	switch os.Args[1] {
	case "sync-recipes":
		report, err := application.SyncRecipes(ctx)
		if err != nil {
			log.Fatalf("Recipe sync failed: %v", err)
		}
		fmt.Printf("Fetched %d posts: %d saved, %d up to date, %d failed, %d removed.\n",
			report.Fetched, report.Saved, report.UpToDate, report.Failed, report.Removed)

	case "draft":
		cmd := flag.NewFlagSet("draft", flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User the draft belongs to")
		phase := cmd.String("phase", "dinners", "Phase to fill: dinners, lunches or snacks")
		cmd.Parse(os.Args[2:])

		p, err := planner.ParsePhase(*phase)
		if err != nil {
			log.Fatalf("%v", err)
		}
		res, err := application.DraftPhase(ctx, *user, p)
		if err != nil {
			log.Fatalf("Draft failed: %v", err)
		}
		for _, w := range res.Warnings {
			fmt.Printf("Warning: skipped %v\n", w)
		}
		fmt.Printf("Filled %d slot(s), %d without candidate.\n\n", len(res.Report.Filled), len(res.Report.Unassigned))
		app.RenderWeek(os.Stdout, res.Session.Store, res.Session.Locked, res.OverAllocations)

	case "show":
		cmd := flag.NewFlagSet("show", flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User whose plan to show")
		cmd.Parse(os.Args[2:])

		plan, err := application.CommittedPlan(ctx, *user)
		if err != nil {
			log.Fatalf("Failed to load plan: %v", err)
		}
		if plan != nil {
			fmt.Printf("Final plan, week of %s\n\n", plan.WeekStart.Format("2006-01-02"))
			app.RenderWeek(os.Stdout, plan.Store, nil, nil)
			return
		}
		sess, over, err := application.ShowDraft(ctx, *user)
		if err != nil {
			log.Fatalf("Failed to load draft: %v", err)
		}
		fmt.Printf("Draft, week of %s\n\n", sess.WeekStart.Format("2006-01-02"))
		app.RenderWeek(os.Stdout, sess.Store, sess.Locked, over)

	case "replace":
		cmd := flag.NewFlagSet("replace", flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User the draft belongs to")
		day := cmd.String("day", "", "Day, e.g. mon")
		slot := cmd.String("slot", "dinner", "Slot: dinner, lunch, school_snack or home_snack")
		value := cmd.String("value", "", "Recipe name or leftover item")
		source := cmd.String("kind", "recipe", "recipe or leftover")
		cmd.Parse(os.Args[2:])

		d, err := planner.ParseDay(*day)
		if err != nil {
			log.Fatalf("%v", err)
		}
		st, err := planner.ParseSlotType(*slot)
		if err != nil {
			log.Fatalf("%v", err)
		}
		kind, err := planner.ParseSourceKind(*source)
		if err != nil {
			log.Fatalf("%v", err)
		}
		sess, err := coordinator.Replace(ctx, *user, d, st, *value, kind)
		if err != nil {
			log.Fatalf("Replace failed: %v", err)
		}
		over, err := coordinator.Reconcile(ctx, *user)
		if err != nil {
			log.Printf("Warning: could not reconcile draft: %v", err)
		}
		app.RenderWeek(os.Stdout, sess.Store, sess.Locked, over)

	case "lock", "unlock", "clear":
		cmd := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User the draft belongs to")
		day := cmd.String("day", "", "Day to lock or unlock")
		phase := cmd.String("phase", "", "Phase to clear")
		cmd.Parse(os.Args[2:])

		var sess *draft.Session
		switch os.Args[1] {
		case "clear":
			p, err := planner.ParsePhase(*phase)
			if err != nil {
				log.Fatalf("%v", err)
			}
			sess, err = coordinator.Clear(ctx, *user, p)
			if err != nil {
				log.Fatalf("Clear failed: %v", err)
			}
		default:
			d, err := planner.ParseDay(*day)
			if err != nil {
				log.Fatalf("%v", err)
			}
			if os.Args[1] == "lock" {
				sess, err = coordinator.Lock(ctx, *user, d)
			} else {
				sess, err = coordinator.Unlock(ctx, *user, d)
			}
			if err != nil {
				log.Fatalf("%s failed: %v", os.Args[1], err)
			}
		}
		app.RenderWeek(os.Stdout, sess.Store, sess.Locked, nil)

	case "swap":
		cmd := flag.NewFlagSet("swap", flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User whose plan to change")
		a := cmd.String("a", "", "First day")
		b := cmd.String("b", "", "Second day")
		cmd.Parse(os.Args[2:])

		dayA, err := planner.ParseDay(*a)
		if err != nil {
			log.Fatalf("%v", err)
		}
		dayB, err := planner.ParseDay(*b)
		if err != nil {
			log.Fatalf("%v", err)
		}
		store, err := application.Swap(ctx, *user, dayA, dayB)
		if err != nil {
			log.Fatalf("Swap failed: %v", err)
		}
		app.RenderWeek(os.Stdout, store, nil, nil)

	case "finalize":
		cmd := flag.NewFlagSet("finalize", flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User whose draft to commit")
		cmd.Parse(os.Args[2:])

		plan, err := application.FinalizeDraft(ctx, *user)
		if err != nil {
			log.Fatalf("Finalize failed: %v", err)
		}
		fmt.Printf("Plan for week of %s finalized.\n\n", plan.WeekStart.Format("2006-01-02"))
		app.RenderWeek(os.Stdout, plan.Store, nil, nil)

	case "stock":
		cmd := flag.NewFlagSet("stock", flag.ExitOnError)
		name := cmd.String("name", "", "Item name")
		qty := cmd.Int("qty", 1, "Portions on hand")
		loc := cmd.String("loc", "fridge", "fridge or freezer")
		cmd.Parse(os.Args[2:])

		location, err := planner.ParseLocation(*loc)
		if err != nil {
			log.Fatalf("%v", err)
		}
		item := planner.InventoryMealItem{Name: *name, Quantity: *qty, Location: location}
		if err := application.Stock(ctx, item); err != nil {
			log.Fatalf("Stock failed: %v", err)
		}
		fmt.Printf("Stocked %s: %d (%s)\n", item.Name, item.Quantity, item.Location)

	case "unstock":
		cmd := flag.NewFlagSet("unstock", flag.ExitOnError)
		name := cmd.String("name", "", "Item name")
		cmd.Parse(os.Args[2:])

		if err := application.Unstock(ctx, *name); err != nil {
			log.Fatalf("Unstock failed: %v", err)
		}
		fmt.Printf("Removed %s\n", *name)

	case "history":
		cmd := flag.NewFlagSet("history", flag.ExitOnError)
		user := cmd.String("user", defaultUser, "User whose plans to list")
		limit := cmd.Int("limit", 4, "Number of weeks")
		cmd.Parse(os.Args[2:])

		plans, err := application.History(ctx, *user, *limit)
		if err != nil {
			log.Fatalf("Failed to list plans: %v", err)
		}
		for _, plan := range plans {
			fmt.Printf("Week of %s (%s)\n", plan.WeekStart.Format("2006-01-02"), plan.Status)
			app.RenderWeek(os.Stdout, plan.Store, nil, nil)
			fmt.Println()
		}

	case "inventory":
		items, err := application.Inventory(ctx)
		if err != nil {
			log.Fatalf("Failed to list inventory: %v", err)
		}
		for _, item := range items {
			fmt.Printf("%-30s %3d  %s\n", item.Name, item.Quantity, item.Location)
		}

	case "clip":
		cmd := flag.NewFlagSet("clip", flag.ExitOnError)
		url := cmd.String("url", "", "Recipe page to import")
		cmd.Parse(os.Args[2:])

		res, err := application.ClipRecipe(ctx, *url)
		if err != nil {
			log.Fatalf("Clip failed: %v", err)
		}
		fmt.Printf("Saved %q as post %s (%v)\n", res.Post.Title, res.Post.ID, res.Recipe.MealTypes)

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  sync-recipes       Fetch recipes from Ghost into the catalog")
	fmt.Println("  draft              Fill the open slots of a phase (-phase dinners|lunches|snacks)")
	fmt.Println("  show               Show the final plan or the current draft")
	fmt.Println("  replace            Override a slot (-day -slot -value [-kind leftover])")
	fmt.Println("  lock, unlock       Protect a day from regeneration (-day)")
	fmt.Println("  clear              Clear a phase on unlocked days (-phase)")
	fmt.Println("  swap               Exchange two dinners (-a -b)")
	fmt.Println("  finalize           Commit the draft as the week's plan")
	fmt.Println("  stock              Record leftovers (-name -qty -loc)")
	fmt.Println("  unstock            Remove an inventory item (-name)")
	fmt.Println("  inventory          List leftovers on hand")
	fmt.Println("  history            List recent final plans")
	fmt.Println("  clip               Import a recipe page into Ghost (-url)")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
