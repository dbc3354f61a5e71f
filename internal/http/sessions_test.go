package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadjholmes/bookends/internal/entities"
)

func TestSessionsController_Create(t *testing.T) {
	t.Run("logs a session and refreshes streaks", func(t *testing.T) {
		s, cleanup := setupTestServer(t)
		defer cleanup()

		book := createBook(t, s, "Dune", 412)
		goal := &entities.ReadingGoal{
			Type:     entities.GoalTypeMinutes,
			Target:   30,
			Period:   entities.GoalPeriodDaily,
			IsActive: true,
		}
		require.NoError(t, s.goals.Create(goal))

		w := s.do(t, "POST", "/api/sessions", map[string]any{
			"book_id":    book.ID,
			"start_page": 10,
			"end_page":   40,
			"duration":   1800,
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var session entities.ReadingSession
		decodeBody(t, w, &session)
		assert.NotZero(t, session.ID)
		assert.Equal(t, 30, session.PagesRead())

		// The synchronous refresh persisted a one-day streak.
		updated, err := s.goals.GetByID(goal.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.CurrentStreak)
		assert.Equal(t, 1, updated.BestStreak)

		// Reading past the stored position advances the book.
		refreshed, err := s.books.GetByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, refreshed.CurrentPage)
	})

	t.Run("rejects end_page before start_page", func(t *testing.T) {
		s, cleanup := setupTestServer(t)
		defer cleanup()

		w := s.do(t, "POST", "/api/sessions", map[string]any{
			"start_page": 50,
			"end_page":   40,
			"duration":   600,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects end_page beyond the book", func(t *testing.T) {
		s, cleanup := setupTestServer(t)
		defer cleanup()

		book := createBook(t, s, "Dune", 412)

		w := s.do(t, "POST", "/api/sessions", map[string]any{
			"book_id":    book.ID,
			"start_page": 400,
			"end_page":   500,
			"duration":   600,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		s, cleanup := setupTestServer(t)
		defer cleanup()

		w := s.do(t, "POST", "/api/sessions", map[string]any{
			"start_page": 0,
			"end_page":   10,
			"duration":   -5,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("accepts a session without a book", func(t *testing.T) {
		s, cleanup := setupTestServer(t)
		defer cleanup()

		w := s.do(t, "POST", "/api/sessions", map[string]any{
			"start_page": 0,
			"end_page":   0,
			"duration":   1200,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("rejects unknown book", func(t *testing.T) {
		s, cleanup := setupTestServer(t)
		defer cleanup()

		w := s.do(t, "POST", "/api/sessions", map[string]any{
			"book_id":    9999,
			"start_page": 0,
			"end_page":   10,
			"duration":   600,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionsController_List(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	book1 := createBook(t, s, "Dune", 412)
	book2 := createBook(t, s, "Emma", 300)
	now := s.clk.Now()

	for _, bookID := range []uint{book1.ID, book1.ID, book2.ID} {
		id := bookID
		require.NoError(t, s.sessions.Create(&entities.ReadingSession{
			BookID: &id, StartPage: 0, EndPage: 10, Duration: 600, Date: now,
		}))
	}

	w := s.do(t, "GET", "/api/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []entities.ReadingSession `json:"sessions"`
		Total    int                       `json:"total"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, 3, resp.Total)

	w = s.do(t, "GET", fmt.Sprintf("/api/sessions?book_id=%d", book1.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Equal(t, 2, resp.Total)

	w = s.do(t, "GET", "/api/sessions?book_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsController_Update(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	book := createBook(t, s, "Dune", 412)
	session := &entities.ReadingSession{
		BookID: &book.ID, StartPage: 0, EndPage: 10, Duration: 600, Date: s.clk.Now(),
	}
	require.NoError(t, s.sessions.Create(session))

	w := s.do(t, "PUT", fmt.Sprintf("/api/sessions/%d", session.ID), map[string]any{
		"book_id":    book.ID,
		"start_page": 0,
		"end_page":   25,
		"duration":   900,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	updated, err := s.sessions.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.EndPage)
	assert.Equal(t, 900, updated.Duration)
}

func TestSessionsController_Delete(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	goal := &entities.ReadingGoal{
		Type: entities.GoalTypeMinutes, Target: 30,
		Period: entities.GoalPeriodDaily, IsActive: true,
	}
	require.NoError(t, s.goals.Create(goal))

	session := &entities.ReadingSession{Duration: 600, Date: s.clk.Now()}
	require.NoError(t, s.sessions.Create(session))
	require.NoError(t, s.goals.UpdateStreaks(goal.ID, 1, 1, s.clk.Now()))

	w := s.do(t, "DELETE", fmt.Sprintf("/api/sessions/%d", session.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := s.sessions.GetByID(session.ID)
	assert.Error(t, err)

	// Deleting today's only session zeroes the current streak on refresh.
	updated, err := s.goals.GetByID(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentStreak)
	assert.Equal(t, 1, updated.BestStreak)
}

func TestSessionsController_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	w := s.do(t, "GET", "/api/sessions/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionsController_CreateWithExplicitDate(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	date := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	w := s.do(t, "POST", "/api/sessions", map[string]any{
		"start_page": 0,
		"end_page":   10,
		"duration":   600,
		"date":       date.Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var session entities.ReadingSession
	decodeBody(t, w, &session)
	assert.True(t, session.Date.Equal(date))
}
