package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/entities"
	"github.com/chadjholmes/bookends/internal/goals"
	"github.com/chadjholmes/bookends/internal/recorder"
)

// RecorderGoalStore resolves the active daily goal the live projection
// runs against.
type RecorderGoalStore interface {
	ActiveGoalForPeriod(period entities.GoalPeriod) (*entities.ReadingGoal, error)
}

// RecorderSessionStore persists the session a finished recording produces.
type RecorderSessionStore interface {
	All() ([]entities.ReadingSession, error)
	Create(session *entities.ReadingSession) error
}

type RecorderController struct {
	rec       *recorder.Recorder
	goalStore RecorderGoalStore
	sessions  RecorderSessionStore
	books     SessionBookStore
	refresher StreakRefresher
	clk       clock.Clock
}

func NewRecorderController(
	rec *recorder.Recorder,
	goalStore RecorderGoalStore,
	sessions RecorderSessionStore,
	books SessionBookStore,
	refresher StreakRefresher,
	clk clock.Clock,
) *RecorderController {
	return &RecorderController{
		rec:       rec,
		goalStore: goalStore,
		sessions:  sessions,
		books:     books,
		refresher: refresher,
		clk:       clk,
	}
}

type startRecordingPayload struct {
	BookID uint `json:"book_id"`
	// AccumulatorSeconds reconstructs a recording that was torn down
	// mid-session (e.g. across a process restart).
	AccumulatorSeconds int `json:"accumulator_seconds"`
}

type endRecordingPayload struct {
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

type recorderStatus struct {
	State             recorder.State `json:"state"`
	BookID            uint           `json:"book_id,omitempty"`
	ElapsedSeconds    float64        `json:"elapsed_seconds"`
	DailyGoalProgress float64        `json:"daily_goal_progress"`
	StartDate         time.Time      `json:"start_date"`
	IsTimerRunning    bool           `json:"is_timer_running"`
}

// dailyGoalInputs resolves the live projection's prior progress and target
// from the active minutes-per-day goal. No such goal means a zero target:
// the progress term stays 0 and the timer runs regardless.
func (rc *RecorderController) dailyGoalInputs() (prior float64, targetMinutes int) {
	goal, err := rc.goalStore.ActiveGoalForPeriod(entities.GoalPeriodDaily)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to load daily goal for recording: %v", err)
		}
		return 0, 0
	}
	if goal.Type != entities.GoalTypeMinutes || goal.Target <= 0 {
		return 0, 0
	}

	sessions, err := rc.sessions.All()
	if err != nil {
		log.Printf("Failed to load sessions for daily goal projection: %v", err)
		return 0, goal.Target
	}
	return goals.CalculateProgress(*goal, sessions, rc.clk.Now()), goal.Target
}

// Start begins a recording. Only one may be active at a time.
// POST /api/recorder/start
func (rc *RecorderController) Start(c *gin.Context) {
	var payload startRecordingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if payload.AccumulatorSeconds < 0 {
		respondBadRequest(c, "accumulator_seconds must not be negative")
		return
	}

	if _, err := rc.books.GetByID(payload.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	prior, targetMinutes := rc.dailyGoalInputs()
	err := rc.rec.Start(recorder.StartOptions{
		BookID:             payload.BookID,
		PriorProgress:      prior,
		DailyTargetMinutes: targetMinutes,
		Accumulator:        time.Duration(payload.AccumulatorSeconds) * time.Second,
	})
	if err != nil {
		respondConflict(c, err.Error())
		return
	}

	rc.status(c)
}

// Pause pauses the running recording.
// POST /api/recorder/pause
func (rc *RecorderController) Pause(c *gin.Context) {
	if err := rc.rec.Pause(); err != nil {
		rc.respondStateError(c, err)
		return
	}
	rc.status(c)
}

// Resume resumes a paused recording.
// POST /api/recorder/resume
func (rc *RecorderController) Resume(c *gin.Context) {
	if err := rc.rec.Resume(); err != nil {
		rc.respondStateError(c, err)
		return
	}
	rc.status(c)
}

// Adjust nudges the elapsed time (the ±10s buttons).
// POST /api/recorder/adjust
func (rc *RecorderController) Adjust(c *gin.Context) {
	var payload struct {
		DeltaSeconds int `json:"delta_seconds"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := rc.rec.Adjust(time.Duration(payload.DeltaSeconds) * time.Second); err != nil {
		rc.respondStateError(c, err)
		return
	}
	rc.status(c)
}

// End finishes the recording, persists it as a reading session, and
// refreshes goal streaks.
// POST /api/recorder/end
func (rc *RecorderController) End(c *gin.Context) {
	var payload endRecordingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if payload.EndPage < payload.StartPage {
		respondBadRequest(c, "end_page must not be before start_page")
		return
	}

	bookID, active := rc.rec.BookID()
	if !active {
		respondConflict(c, recorder.ErrNotRecording.Error())
		return
	}

	book, err := rc.books.GetByID(bookID)
	if err == nil && book.TotalPages > 0 && payload.EndPage > book.TotalPages {
		respondBadRequest(c, "end_page exceeds the book's total pages")
		return
	}

	result, err := rc.rec.End()
	if err != nil {
		rc.respondStateError(c, err)
		return
	}

	session := &entities.ReadingSession{
		BookID:    &result.BookID,
		StartPage: payload.StartPage,
		EndPage:   payload.EndPage,
		Duration:  int(result.Elapsed.Seconds()),
		Date:      result.EndedAt,
	}
	if err := rc.sessions.Create(session); err != nil {
		respondInternalError(c, err, "save recorded session")
		return
	}

	if book != nil && payload.EndPage > book.CurrentPage {
		book.CurrentPage = payload.EndPage
		if err := rc.books.Update(book); err != nil {
			log.Printf("Failed to advance current page for book %d: %v", book.ID, err)
		}
	}

	if err := rc.refresher.Refresh(rc.clk.Now()); err != nil {
		log.Printf("Streak refresh after recording failed: %v", err)
	}

	respondCreated(c, session)
}

// Status returns the current recording snapshot.
// GET /api/recorder
func (rc *RecorderController) Status(c *gin.Context) {
	if !rc.rec.Active() {
		respondNotFound(c, "recording")
		return
	}
	rc.status(c)
}

func (rc *RecorderController) status(c *gin.Context) {
	snapshot, ok := rc.rec.Snapshot()
	if !ok {
		respondNotFound(c, "recording")
		return
	}
	bookID, _ := rc.rec.BookID()
	c.JSON(http.StatusOK, recorderStatus{
		State:             rc.rec.State(),
		BookID:            bookID,
		ElapsedSeconds:    snapshot.ElapsedSeconds,
		DailyGoalProgress: snapshot.DailyGoalProgress,
		StartDate:         snapshot.StartDate,
		IsTimerRunning:    snapshot.IsTimerRunning,
	})
}

func (rc *RecorderController) respondStateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recorder.ErrNotRecording):
		respondConflict(c, err.Error())
	case errors.Is(err, recorder.ErrNotRunning), errors.Is(err, recorder.ErrNotPaused),
		errors.Is(err, recorder.ErrAlreadyRecording):
		respondConflict(c, err.Error())
	default:
		respondInternalError(c, err, "recorder")
	}
}
