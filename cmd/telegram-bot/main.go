package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

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
	"meal-planner/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// 2. Initialize Infrastructure (LLMs)
	suggester, releaseSuggester, err := llm.NewTextGenerator(ctx, cfg, llm.ModelSuggester, 0.2)
	if err != nil {
		log.Fatalf("Failed to create suggestion model: %v", err)
	}
	defer releaseSuggester()
	if suggester == nil {
		log.Println("Warning: no LLM configured, waste-not suggestions disabled")
	}

	extractor, releaseExtractor, err := llm.NewTextGenerator(ctx, cfg, llm.ModelExtractor, 0.1)
	if err != nil {
		log.Fatalf("Failed to create extraction model: %v", err)
	}
	defer releaseExtractor()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	inventoryRepo := inventory.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	counters := metrics.NewEngine()

	// 3. Initialize Ghost Client
	var ghostClient ghost.Client
	var recipeClipper *clipper.Clipper
	if cfg.GhostURL != "" {
		ghostClient = ghost.NewClient(cfg)
		if extractor != nil {
			recipeClipper = clipper.NewClipper(ghostClient, extractor, recipeRepo)
		}
	}

	// 4. Initialize Services
	coordinator := draft.NewCoordinator(draft.Deps{
		Sessions:  draft.NewRepository(db.SQL),
		Inventory: inventoryRepo,
		Suggester: suggest.NewService(recipeRepo, suggester),
		Recipes:   recipeRepo,
		Plans:     planRepo,
		Usage:     metricsStore,
		Counters:  counters,
	})
	application := app.NewApp(ghostClient, recipeRepo, inventoryRepo, planRepo, coordinator, recipeClipper, metricsStore, counters)

	if ghostClient != nil {
		report, err := application.SyncRecipes(ctx)
		if err != nil {
			log.Printf("Warning: initial recipe sync failed: %v", err)
		} else {
			log.Printf("Recipe sync: %d saved, %d up to date, %d failed, %d removed", report.Saved, report.UpToDate, report.Failed, report.Removed)
		}
	}

	// 5. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application, metricsStore, filepath.Dir(cfg.DatabasePath))
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 6. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.Handle("/metrics", counters.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
