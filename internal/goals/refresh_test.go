package goals

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadjholmes/bookends/internal/entities"
)

type fakeGoalStore struct {
	active    []entities.ReadingGoal
	activeErr error

	updates []streakUpdate
}

type streakUpdate struct {
	id      uint
	current int
	best    int
}

func (f *fakeGoalStore) ActiveGoals() ([]entities.ReadingGoal, error) {
	return f.active, f.activeErr
}

func (f *fakeGoalStore) UpdateStreaks(id uint, current, best int, at time.Time) error {
	f.updates = append(f.updates, streakUpdate{id: id, current: current, best: best})
	return nil
}

type fakeSessionStore struct {
	sessions []entities.ReadingSession
	err      error
}

func (f *fakeSessionStore) All() ([]entities.ReadingSession, error) {
	return f.sessions, f.err
}

func TestRefreshUpdatesEveryActiveGoal(t *testing.T) {
	now := time.Date(2025, 3, 16, 22, 0, 0, 0, time.UTC)

	goalStore := &fakeGoalStore{
		active: []entities.ReadingGoal{
			{ID: 1, BestStreak: 0},
			{ID: 2, BestStreak: 10},
		},
	}
	sessionStore := &fakeSessionStore{
		sessions: sessionsOn(
			time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 16, 8, 0, 0, 0, time.UTC),
		),
	}

	refresher := NewRefresher(goalStore, sessionStore)
	require.NoError(t, refresher.Refresh(now))

	require.Len(t, goalStore.updates, 2)
	assert.Equal(t, streakUpdate{id: 1, current: 2, best: 2}, goalStore.updates[0])
	// Best streak never regresses below its stored value.
	assert.Equal(t, streakUpdate{id: 2, current: 2, best: 10}, goalStore.updates[1])
}

func TestRefreshPropagatesStoreErrors(t *testing.T) {
	now := time.Date(2025, 3, 16, 22, 0, 0, 0, time.UTC)

	refresher := NewRefresher(&fakeGoalStore{}, &fakeSessionStore{err: errors.New("boom")})
	assert.Error(t, refresher.Refresh(now))

	refresher = NewRefresher(&fakeGoalStore{activeErr: errors.New("boom")}, &fakeSessionStore{})
	assert.Error(t, refresher.Refresh(now))
}

func TestRefreshWithNoSessionsZeroesCurrentStreak(t *testing.T) {
	now := time.Date(2025, 3, 16, 22, 0, 0, 0, time.UTC)

	goalStore := &fakeGoalStore{
		active: []entities.ReadingGoal{{ID: 7, CurrentStreak: 4, BestStreak: 4}},
	}
	refresher := NewRefresher(goalStore, &fakeSessionStore{})
	require.NoError(t, refresher.Refresh(now))

	require.Len(t, goalStore.updates, 1)
	assert.Equal(t, streakUpdate{id: 7, current: 0, best: 4}, goalStore.updates[0])
}
