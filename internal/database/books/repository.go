// Package books provides database operations for the book catalog.
package books

import (
	"gorm.io/gorm"

	"github.com/chadjholmes/bookends/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// Update saves book edits.
func (r *Repository) Update(book *entities.Book) error {
	return r.db.Save(book).Error
}

// Delete soft-deletes a book. Sessions referencing it keep their BookID but
// the reference dangles, which the calculators tolerate.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// GetByID retrieves a book by ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// All returns the full catalog ordered by title.
func (r *Repository) All() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC").Find(&books).Error
	return books, err
}

// Search returns books whose title or author matches the query.
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

// UpdateMetadata applies enrichment results, writing only the given fields.
// Used by the enrich_book task so it never clobbers user edits.
func (r *Repository) UpdateMetadata(id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(fields).Error
}
