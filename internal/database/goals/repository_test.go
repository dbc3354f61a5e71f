package goals

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chadjholmes/bookends/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_goals_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.ReadingGoal{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func createTestGoal(t *testing.T, repo *Repository, period entities.GoalPeriod, active bool) *entities.ReadingGoal {
	goal := &entities.ReadingGoal{
		Type:      entities.GoalTypeMinutes,
		Target:    30,
		Period:    period,
		StartDate: time.Now(),
		IsActive:  active,
	}
	require.NoError(t, repo.Create(goal))
	return goal
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	goal := createTestGoal(t, repo, entities.GoalPeriodDaily, true)

	got, err := repo.GetByID(goal.ID)

	require.NoError(t, err)
	assert.Equal(t, entities.GoalTypeMinutes, got.Type)
	assert.Equal(t, 30, got.Target)
	assert.True(t, got.IsActive)
}

func TestRepository_ActiveGoals(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestGoal(t, repo, entities.GoalPeriodDaily, true)
	createTestGoal(t, repo, entities.GoalPeriodWeekly, true)
	createTestGoal(t, repo, entities.GoalPeriodMonthly, false)

	active, err := repo.ActiveGoals()

	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestRepository_ActiveGoalForPeriod(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestGoal(t, repo, entities.GoalPeriodDaily, false)
	goal := createTestGoal(t, repo, entities.GoalPeriodDaily, true)

	got, err := repo.ActiveGoalForPeriod(entities.GoalPeriodDaily)

	require.NoError(t, err)
	assert.Equal(t, goal.ID, got.ID)
}

func TestRepository_ActiveGoalForPeriod_MostRecentlyUpdatedWins(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	older := createTestGoal(t, repo, entities.GoalPeriodDaily, true)
	newer := createTestGoal(t, repo, entities.GoalPeriodDaily, true)

	// Touch the second goal so its updated_at is strictly later.
	time.Sleep(10 * time.Millisecond)
	newer.Target = 45
	require.NoError(t, repo.Update(newer))

	got, err := repo.ActiveGoalForPeriod(entities.GoalPeriodDaily)

	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
	assert.NotEqual(t, older.ID, got.ID)
}

func TestRepository_ActiveGoalForPeriod_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestGoal(t, repo, entities.GoalPeriodDaily, false)

	_, err := repo.ActiveGoalForPeriod(entities.GoalPeriodDaily)

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ToggleActive(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	goal := createTestGoal(t, repo, entities.GoalPeriodDaily, true)

	toggled, err := repo.ToggleActive(goal.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = repo.ToggleActive(goal.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

func TestRepository_UpdateStreaksAndResetProgress(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	goal := createTestGoal(t, repo, entities.GoalPeriodDaily, true)
	at := time.Date(2025, 3, 16, 0, 5, 0, 0, time.UTC)

	require.NoError(t, repo.UpdateStreaks(goal.ID, 4, 9, at))

	got, err := repo.GetByID(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStreak)
	assert.Equal(t, 9, got.BestStreak)
	require.NotNil(t, got.LastProgress)

	require.NoError(t, repo.ResetProgress(goal.ID))

	got, err = repo.GetByID(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 0, got.BestStreak)
	assert.Nil(t, got.LastProgress)
}

func TestRepository_Delete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	goal := createTestGoal(t, repo, entities.GoalPeriodDaily, true)

	require.NoError(t, repo.Delete(goal.ID))

	_, err := repo.GetByID(goal.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
