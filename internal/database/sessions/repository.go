// Package sessions provides database operations for reading session records.
//
// The calculators in internal/goals consume the result of All() as a
// read-only, consistent snapshot; they never re-query mid-calculation.
package sessions

import (
	"gorm.io/gorm"

	"github.com/chadjholmes/bookends/internal/entities"
)

// Repository handles all reading session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new reading session.
func (r *Repository) Create(session *entities.ReadingSession) error {
	return r.db.Create(session).Error
}

// Update saves in-place edits made through the session edit flow.
func (r *Repository) Update(session *entities.ReadingSession) error {
	return r.db.Save(session).Error
}

// Delete removes a session permanently. Sessions are only ever deleted by
// explicit user action, never expired.
func (r *Repository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&entities.ReadingSession{}, id).Error
}

// GetByID retrieves a session with its book preloaded.
func (r *Repository) GetByID(id uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := r.db.Preload("Book").First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// All returns every session with books preloaded, most recent first.
// This is the single snapshot query the progress and streak calculators
// operate on.
func (r *Repository) All() ([]entities.ReadingSession, error) {
	var sessions []entities.ReadingSession
	err := r.db.Preload("Book").Order("date DESC").Find(&sessions).Error
	return sessions, err
}

// ListByBook returns all sessions logged against a specific book.
func (r *Repository) ListByBook(bookID uint) ([]entities.ReadingSession, error) {
	var sessions []entities.ReadingSession
	err := r.db.Preload("Book").
		Where("book_id = ?", bookID).
		Order("date DESC").
		Find(&sessions).Error
	return sessions, err
}

// Count returns the total number of logged sessions.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingSession{}).Count(&count).Error
	return count, err
}
