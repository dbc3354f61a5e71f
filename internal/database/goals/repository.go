// Package goals provides database operations for reading goal records.
package goals

import (
	"time"

	"gorm.io/gorm"

	"github.com/chadjholmes/bookends/internal/entities"
)

// Repository handles all reading goal database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new goals repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new goal.
func (r *Repository) Create(goal *entities.ReadingGoal) error {
	return r.db.Create(goal).Error
}

// Update saves goal edits.
func (r *Repository) Update(goal *entities.ReadingGoal) error {
	return r.db.Save(goal).Error
}

// Delete removes a goal permanently.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.ReadingGoal{}, id).Error
}

// GetByID retrieves a goal by ID.
func (r *Repository) GetByID(id uint) (*entities.ReadingGoal, error) {
	var goal entities.ReadingGoal
	err := r.db.First(&goal, id).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// All returns every goal, active or not.
func (r *Repository) All() ([]entities.ReadingGoal, error) {
	var goals []entities.ReadingGoal
	err := r.db.Order("created_at ASC").Find(&goals).Error
	return goals, err
}

// ActiveGoals returns all goals currently toggled on.
func (r *Repository) ActiveGoals() ([]entities.ReadingGoal, error) {
	var goals []entities.ReadingGoal
	err := r.db.Where("is_active = ?", true).Find(&goals).Error
	return goals, err
}

// ActiveGoalForPeriod returns the active goal for a period. The data layer
// does not forbid multiple active goals per period; when more than one
// exists the most recently updated goal wins.
func (r *Repository) ActiveGoalForPeriod(period entities.GoalPeriod) (*entities.ReadingGoal, error) {
	var goal entities.ReadingGoal
	err := r.db.Where("is_active = ? AND period = ?", true, period).
		Order("updated_at DESC").
		First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// ToggleActive flips a goal's activation flag and returns the updated goal.
func (r *Repository) ToggleActive(id uint) (*entities.ReadingGoal, error) {
	goal, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	goal.IsActive = !goal.IsActive
	if err := r.db.Save(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

// ResetProgress zeroes the streak counters and progress timestamp. Only the
// explicit "reset progress" action does this; the nightly refresh and the
// session-save refresh recompute rather than reset.
func (r *Repository) ResetProgress(id uint) error {
	return r.db.Model(&entities.ReadingGoal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_streak": 0,
			"best_streak":    0,
			"last_progress":  nil,
		}).Error
}

// UpdateStreaks persists recomputed streak counters for a goal.
func (r *Repository) UpdateStreaks(id uint, current, best int, at time.Time) error {
	return r.db.Model(&entities.ReadingGoal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_streak": current,
			"best_streak":    best,
			"last_progress":  at,
		}).Error
}
