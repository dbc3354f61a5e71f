package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/entities"
	"github.com/chadjholmes/bookends/internal/goals"
)

// GoalsStore defines database operations for goal management.
type GoalsStore interface {
	Create(goal *entities.ReadingGoal) error
	Update(goal *entities.ReadingGoal) error
	Delete(id uint) error
	GetByID(id uint) (*entities.ReadingGoal, error)
	All() ([]entities.ReadingGoal, error)
	ActiveGoalForPeriod(period entities.GoalPeriod) (*entities.ReadingGoal, error)
	ToggleActive(id uint) (*entities.ReadingGoal, error)
	ResetProgress(id uint) error
}

// GoalSessionStore provides the session snapshot progress is computed over.
type GoalSessionStore interface {
	All() ([]entities.ReadingSession, error)
}

type GoalsController struct {
	store    GoalsStore
	sessions GoalSessionStore
	clk      clock.Clock
}

func NewGoalsController(store GoalsStore, sessions GoalSessionStore, clk clock.Clock) *GoalsController {
	return &GoalsController{
		store:    store,
		sessions: sessions,
		clk:      clk,
	}
}

type goalPayload struct {
	Type      entities.GoalType   `json:"type"`
	Target    int                 `json:"target"`
	Period    entities.GoalPeriod `json:"period"`
	StartDate *time.Time          `json:"start_date"`
	IsActive  *bool               `json:"is_active"`
}

func (p *goalPayload) validate() string {
	if !p.Type.IsValid() {
		return "type must be one of pages, minutes, books"
	}
	if !p.Period.IsValid() {
		return "period must be one of daily, weekly, monthly, yearly"
	}
	if p.Target <= 0 {
		return "target must be a positive integer"
	}
	return ""
}

// GoalProgress is the display-ready progress report for one goal.
type GoalProgress struct {
	Goal          *entities.ReadingGoal `json:"goal"`
	Ratio         float64               `json:"ratio"`   // unclamped
	Display       float64               `json:"display"` // clamped to [0, 1]
	CurrentStreak int                   `json:"current_streak"`
	BestStreak    int                   `json:"best_streak"`
}

// List returns every goal.
// GET /api/goals
func (gc *GoalsController) List(c *gin.Context) {
	all, err := gc.store.All()
	if err != nil {
		respondInternalError(c, err, "list goals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": all, "total": len(all)})
}

// Get returns a single goal.
// GET /api/goals/:id
func (gc *GoalsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	goal, err := gc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "goal")
			return
		}
		respondInternalError(c, err, "get goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

// Create adds a goal. The data layer allows several active goals on the
// same period; the UI expects one and the summary endpoint resolves the
// ambiguity by recency.
// POST /api/goals
func (gc *GoalsController) Create(c *gin.Context) {
	var payload goalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := payload.validate(); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	goal := &entities.ReadingGoal{
		Type:      payload.Type,
		Target:    payload.Target,
		Period:    payload.Period,
		StartDate: gc.clk.Now(),
		IsActive:  true,
	}
	if payload.StartDate != nil {
		goal.StartDate = *payload.StartDate
	}
	if payload.IsActive != nil {
		goal.IsActive = *payload.IsActive
	}

	if err := gc.store.Create(goal); err != nil {
		respondInternalError(c, err, "create goal")
		return
	}
	respondCreated(c, goal)
}

// Update edits a goal's type, target, and period.
// PUT /api/goals/:id
func (gc *GoalsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	goal, err := gc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "goal")
			return
		}
		respondInternalError(c, err, "get goal")
		return
	}

	var payload goalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := payload.validate(); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	goal.Type = payload.Type
	goal.Target = payload.Target
	goal.Period = payload.Period
	if payload.StartDate != nil {
		goal.StartDate = *payload.StartDate
	}
	if payload.IsActive != nil {
		goal.IsActive = *payload.IsActive
	}

	if err := gc.store.Update(goal); err != nil {
		respondInternalError(c, err, "update goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

// Delete removes a goal.
// DELETE /api/goals/:id
func (gc *GoalsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := gc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete goal")
		return
	}
	respondSuccess(c, "goal deleted")
}

// Toggle flips a goal's activation flag.
// POST /api/goals/:id/toggle
func (gc *GoalsController) Toggle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	goal, err := gc.store.ToggleActive(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "goal")
			return
		}
		respondInternalError(c, err, "toggle goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

// Reset zeroes a goal's streak counters. This is the only path that resets
// streaks; refreshes always recompute.
// POST /api/goals/:id/reset
func (gc *GoalsController) Reset(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := gc.store.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "goal")
			return
		}
		respondInternalError(c, err, "get goal")
		return
	}

	if err := gc.store.ResetProgress(id); err != nil {
		respondInternalError(c, err, "reset goal progress")
		return
	}
	respondSuccess(c, "goal progress reset")
}

// Progress returns the goal's progress ratio for the current period window
// together with its streaks.
// GET /api/goals/:id/progress
func (gc *GoalsController) Progress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	goal, err := gc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "goal")
			return
		}
		respondInternalError(c, err, "get goal")
		return
	}

	sessions, err := gc.sessions.All()
	if err != nil {
		respondInternalError(c, err, "load sessions")
		return
	}

	now := gc.clk.Now()
	ratio := goals.CalculateProgress(*goal, sessions, now)

	c.JSON(http.StatusOK, GoalProgress{
		Goal:          goal,
		Ratio:         ratio,
		Display:       goals.ClampProgress(ratio),
		CurrentStreak: goals.CurrentStreak(sessions, now),
		BestStreak:    goals.LongestStreak(sessions),
	})
}

// Summary returns the active goal and its progress for each period that has
// one. Periods without an active goal are omitted; the UI renders an
// unfilled ring for those without calling anything.
// GET /api/goals/summary
func (gc *GoalsController) Summary(c *gin.Context) {
	sessions, err := gc.sessions.All()
	if err != nil {
		respondInternalError(c, err, "load sessions")
		return
	}

	now := gc.clk.Now()
	summary := make(map[entities.GoalPeriod]GoalProgress)
	for _, period := range entities.AllGoalPeriods {
		goal, err := gc.store.ActiveGoalForPeriod(period)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			respondInternalError(c, err, "load active goal")
			return
		}

		ratio := goals.CalculateProgress(*goal, sessions, now)
		summary[period] = GoalProgress{
			Goal:          goal,
			Ratio:         ratio,
			Display:       goals.ClampProgress(ratio),
			CurrentStreak: goals.CurrentStreak(sessions, now),
			BestStreak:    goals.LongestStreak(sessions),
		}
	}

	c.JSON(http.StatusOK, summary)
}
