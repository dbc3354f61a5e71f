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
)

// SessionsStore defines database operations for session management.
type SessionsStore interface {
	Create(session *entities.ReadingSession) error
	Update(session *entities.ReadingSession) error
	Delete(id uint) error
	GetByID(id uint) (*entities.ReadingSession, error)
	All() ([]entities.ReadingSession, error)
	ListByBook(bookID uint) ([]entities.ReadingSession, error)
}

// SessionBookStore resolves books for validation and page tracking.
type SessionBookStore interface {
	GetByID(id uint) (*entities.Book, error)
	Update(book *entities.Book) error
}

// StreakRefresher recomputes persisted goal streaks after session changes.
type StreakRefresher interface {
	Refresh(now time.Time) error
}

type SessionsController struct {
	store     SessionsStore
	books     SessionBookStore
	refresher StreakRefresher
	clk       clock.Clock
}

func NewSessionsController(store SessionsStore, books SessionBookStore, refresher StreakRefresher, clk clock.Clock) *SessionsController {
	return &SessionsController{
		store:     store,
		books:     books,
		refresher: refresher,
		clk:       clk,
	}
}

type sessionPayload struct {
	BookID    *uint      `json:"book_id"`
	StartPage int        `json:"start_page"`
	EndPage   int        `json:"end_page"`
	Duration  int        `json:"duration"` // seconds
	Date      *time.Time `json:"date"`
}

// validate enforces the creation-time invariants the calculators rely on.
// The calculators themselves never re-check these.
func (sc *SessionsController) validate(p *sessionPayload) (string, *entities.Book) {
	if p.EndPage < p.StartPage {
		return "end_page must not be before start_page", nil
	}
	if p.StartPage < 0 {
		return "start_page must not be negative", nil
	}
	if p.Duration < 0 {
		return "duration must not be negative", nil
	}

	var book *entities.Book
	if p.BookID != nil {
		var err error
		book, err = sc.books.GetByID(*p.BookID)
		if err != nil {
			return "book not found", nil
		}
		if book.TotalPages > 0 && p.EndPage > book.TotalPages {
			return "end_page exceeds the book's total pages", nil
		}
	}
	return "", book
}

// refreshStreaks recomputes goal streaks after a session change. The session
// write already succeeded, so failures here are logged rather than returned.
func (sc *SessionsController) refreshStreaks() {
	if err := sc.refresher.Refresh(sc.clk.Now()); err != nil {
		log.Printf("Streak refresh after session change failed: %v", err)
	}
}

// advanceBookPage moves a book's current page forward when a session read
// past it.
func (sc *SessionsController) advanceBookPage(book *entities.Book, endPage int) {
	if book == nil || endPage <= book.CurrentPage {
		return
	}
	book.CurrentPage = endPage
	if err := sc.books.Update(book); err != nil {
		log.Printf("Failed to advance current page for book %d: %v", book.ID, err)
	}
}

// List returns all sessions, optionally filtered by ?book_id=.
// GET /api/sessions
func (sc *SessionsController) List(c *gin.Context) {
	var (
		sessions []entities.ReadingSession
		err      error
	)
	if c.Query("book_id") != "" {
		bookID, ok := parseQueryUint(c, "book_id")
		if !ok {
			return
		}
		sessions, err = sc.store.ListByBook(bookID)
	} else {
		sessions, err = sc.store.All()
	}
	if err != nil {
		respondInternalError(c, err, "list sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
}

// Get returns a single session.
// GET /api/sessions/:id
func (sc *SessionsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := sc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "session")
			return
		}
		respondInternalError(c, err, "get session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// Create logs a reading session and synchronously refreshes goal streaks.
// POST /api/sessions
func (sc *SessionsController) Create(c *gin.Context) {
	var payload sessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	msg, book := sc.validate(&payload)
	if msg != "" {
		respondBadRequest(c, msg)
		return
	}

	date := sc.clk.Now()
	if payload.Date != nil {
		date = *payload.Date
	}

	session := &entities.ReadingSession{
		BookID:    payload.BookID,
		StartPage: payload.StartPage,
		EndPage:   payload.EndPage,
		Duration:  payload.Duration,
		Date:      date,
	}
	if err := sc.store.Create(session); err != nil {
		respondInternalError(c, err, "create session")
		return
	}

	sc.advanceBookPage(book, payload.EndPage)
	sc.refreshStreaks()
	respondCreated(c, session)
}

// Update edits a session in place and refreshes goal streaks.
// PUT /api/sessions/:id
func (sc *SessionsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := sc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "session")
			return
		}
		respondInternalError(c, err, "get session")
		return
	}

	var payload sessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	msg, book := sc.validate(&payload)
	if msg != "" {
		respondBadRequest(c, msg)
		return
	}

	session.BookID = payload.BookID
	session.Book = nil
	session.StartPage = payload.StartPage
	session.EndPage = payload.EndPage
	session.Duration = payload.Duration
	if payload.Date != nil {
		session.Date = *payload.Date
	}

	if err := sc.store.Update(session); err != nil {
		respondInternalError(c, err, "update session")
		return
	}

	sc.advanceBookPage(book, payload.EndPage)
	sc.refreshStreaks()
	c.JSON(http.StatusOK, session)
}

// Delete removes a session and refreshes goal streaks.
// DELETE /api/sessions/:id
func (sc *SessionsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete session")
		return
	}

	sc.refreshStreaks()
	respondSuccess(c, "session deleted")
}
