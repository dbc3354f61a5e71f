package http

import (
	"github.com/gin-gonic/gin"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/covers"
	"github.com/chadjholmes/bookends/internal/database"
	"github.com/chadjholmes/bookends/internal/recorder"
	"github.com/chadjholmes/bookends/internal/tasks"
)

// RouterConfig carries every dependency the API needs, so tests can wire a
// router from fakes without touching the entrypoint.
type RouterConfig struct {
	Database *database.Database

	BooksStore    BooksStore
	SessionsStore SessionsStore
	GoalsStore    GoalsStore

	Recorder       *recorder.Recorder
	Refresher      StreakRefresher
	MetadataClient MetadataClient
	CoverCache     *covers.Cache
	TaskClient     *tasks.Client
	Clock          clock.Clock

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BooksStore, cfg.CoverCache, cfg.TaskClient)
	sessionsController := NewSessionsController(cfg.SessionsStore, cfg.BooksStore, cfg.Refresher, cfg.Clock)
	goalsController := NewGoalsController(cfg.GoalsStore, cfg.SessionsStore, cfg.Clock)

	router.GET("/api/health", health.Status)

	router.GET("/api/books", booksController.List)
	router.POST("/api/books", booksController.Create)
	router.GET("/api/books/:id", booksController.Get)
	router.PUT("/api/books/:id", booksController.Update)
	router.DELETE("/api/books/:id", booksController.Delete)
	router.GET("/api/books/:id/cover", booksController.Cover)
	router.POST("/api/books/:id/enrich", booksController.Enrich)

	router.GET("/api/sessions", sessionsController.List)
	router.POST("/api/sessions", sessionsController.Create)
	router.GET("/api/sessions/:id", sessionsController.Get)
	router.PUT("/api/sessions/:id", sessionsController.Update)
	router.DELETE("/api/sessions/:id", sessionsController.Delete)

	router.GET("/api/goals", goalsController.List)
	router.POST("/api/goals", goalsController.Create)
	router.GET("/api/goals/summary", goalsController.Summary)
	router.GET("/api/goals/:id", goalsController.Get)
	router.PUT("/api/goals/:id", goalsController.Update)
	router.DELETE("/api/goals/:id", goalsController.Delete)
	router.POST("/api/goals/:id/toggle", goalsController.Toggle)
	router.POST("/api/goals/:id/reset", goalsController.Reset)
	router.GET("/api/goals/:id/progress", goalsController.Progress)

	if cfg.MetadataClient != nil {
		metadataController := NewMetadataController(cfg.MetadataClient)
		router.GET("/api/metadata/search", metadataController.Search)
		router.GET("/api/metadata/editions/:work", metadataController.Editions)
		router.GET("/api/metadata/isbn/:isbn", metadataController.ISBN)
	}

	if cfg.Recorder != nil {
		recorderController := NewRecorderController(
			cfg.Recorder, cfg.GoalsStore, cfg.SessionsStore, cfg.BooksStore, cfg.Refresher, cfg.Clock)
		router.GET("/api/recorder", recorderController.Status)
		router.POST("/api/recorder/start", recorderController.Start)
		router.POST("/api/recorder/pause", recorderController.Pause)
		router.POST("/api/recorder/resume", recorderController.Resume)
		router.POST("/api/recorder/adjust", recorderController.Adjust)
		router.POST("/api/recorder/end", recorderController.End)
	}

	return router
}
