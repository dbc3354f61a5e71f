package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/config"
	"github.com/chadjholmes/bookends/internal/covers"
	"github.com/chadjholmes/bookends/internal/database"
	booksrepo "github.com/chadjholmes/bookends/internal/database/books"
	goalsrepo "github.com/chadjholmes/bookends/internal/database/goals"
	sessionsrepo "github.com/chadjholmes/bookends/internal/database/sessions"
	"github.com/chadjholmes/bookends/internal/goals"
	http_controllers "github.com/chadjholmes/bookends/internal/http"
	"github.com/chadjholmes/bookends/internal/liveactivity"
	"github.com/chadjholmes/bookends/internal/metadata"
	"github.com/chadjholmes/bookends/internal/recorder"
	"github.com/chadjholmes/bookends/internal/scheduler"
	"github.com/chadjholmes/bookends/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background machinery before the listener so in-flight work
	// can still reach the database.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole service together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookends v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksStore := booksrepo.NewRepository(db.DB)
	sessionsStore := sessionsrepo.NewRepository(db.DB)
	goalsStore := goalsrepo.NewRepository(db.DB)

	clk := clock.SystemClock{}
	refresher := goals.NewRefresher(goalsStore, sessionsStore)

	// Cover cache lives alongside the database unless configured.
	coverCacheDir := cfg.Covers.Dir
	if coverCacheDir == "" {
		coverCacheDir = filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
	}
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
	}

	openLibraryClient := metadata.NewOpenLibraryClient(cfg.OpenLibrary.BaseURL)
	metadataEnricher := metadata.NewEnricher(openLibraryClient, booksStore)
	if coverCache != nil {
		metadataEnricher.SetCoverInvalidator(coverCache)
	}

	// Ambient display surface for the live recording timer.
	var publisher liveactivity.Publisher = liveactivity.NopPublisher{}
	if cfg.LiveActivity.WebhookURL != "" {
		publisher = liveactivity.NewWebhookPublisher(cfg.LiveActivity.WebhookURL)
		log.Printf("Live activity pushes enabled to %s", cfg.LiveActivity.WebhookURL)
	}
	rec := recorder.New(clk, publisher)

	// Background task queue for metadata enrichment and cover caching.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewEnrichBookQueue(metadataEnricher),
			tasks.NewCacheCoverQueue(coverCache, booksStore),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Nightly streak refresh keeps persisted counters honest across the
	// midnight boundary.
	var streakScheduler *scheduler.StreakScheduler
	if cfg.StreakRefresh.Enabled {
		streakScheduler = scheduler.NewStreakScheduler(refresher, clk, cfg.StreakRefresh.Schedule)
		if err := streakScheduler.Start(); err != nil {
			log.Fatalf("Failed to start streak refresh scheduler: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		BooksStore:     booksStore,
		SessionsStore:  sessionsStore,
		GoalsStore:     goalsStore,
		Recorder:       rec,
		Refresher:      refresher,
		MetadataClient: openLibraryClient,
		CoverCache:     coverCache,
		TaskClient:     taskClient,
		Clock:          clk,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		rec.Shutdown()
		if streakScheduler != nil {
			streakScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
