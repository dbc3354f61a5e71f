package goals

import (
	"fmt"
	"time"

	"github.com/chadjholmes/bookends/internal/entities"
)

// GoalStore is the slice of the goals repository the refresher needs.
type GoalStore interface {
	ActiveGoals() ([]entities.ReadingGoal, error)
	UpdateStreaks(id uint, current, best int, at time.Time) error
}

// SessionStore provides the consistent session snapshot the calculators
// run against.
type SessionStore interface {
	All() ([]entities.ReadingSession, error)
}

// Refresher recomputes and persists streak counters for active goals.
// It runs synchronously after every session mutation and nightly via the
// cron scheduler. Recomputing from full history on every refresh is a
// deliberate choice: a single user's session count stays small.
type Refresher struct {
	goals    GoalStore
	sessions SessionStore
}

// NewRefresher creates a streak refresher over the given stores.
func NewRefresher(goals GoalStore, sessions SessionStore) *Refresher {
	return &Refresher{goals: goals, sessions: sessions}
}

// Refresh recomputes current and best streaks from the full session history
// and persists them on every active goal.
func (r *Refresher) Refresh(now time.Time) error {
	sessions, err := r.sessions.All()
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	active, err := r.goals.ActiveGoals()
	if err != nil {
		return fmt.Errorf("load active goals: %w", err)
	}

	current := CurrentStreak(sessions, now)
	longest := LongestStreak(sessions)

	for _, goal := range active {
		best := goal.BestStreak
		if longest > best {
			best = longest
		}
		if err := r.goals.UpdateStreaks(goal.ID, current, best, now); err != nil {
			return fmt.Errorf("update streaks for goal %d: %w", goal.ID, err)
		}
	}

	return nil
}
