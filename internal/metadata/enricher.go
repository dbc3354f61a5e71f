package metadata

import (
	"context"
	"fmt"

	"github.com/chadjholmes/bookends/internal/entities"
)

// Provider is the slice of the OpenLibrary client the enricher uses.
type Provider interface {
	SearchByISBN(ctx context.Context, isbn string) (*BookResult, error)
	SearchBest(ctx context.Context, title, author string) (*BookResult, error)
}

// BookStore is the slice of the books repository the enricher writes to.
type BookStore interface {
	GetByID(id uint) (*entities.Book, error)
	UpdateMetadata(id uint, fields map[string]any) error
}

// CoverInvalidator drops a cached cover when its source URL changes.
type CoverInvalidator interface {
	InvalidateCover(bookID uint) error
}

// EnrichmentResult reports what an enrichment pass changed.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	SearchMethod  string         `json:"search_method"` // "isbn" or "title"
}

// Enricher fills gaps in catalog records from OpenLibrary. It only ever
// writes fields the user left empty.
type Enricher struct {
	provider         Provider
	books            BookStore
	coverInvalidator CoverInvalidator
}

// NewEnricher creates an enricher over the given provider and store.
func NewEnricher(provider Provider, books BookStore) *Enricher {
	return &Enricher{provider: provider, books: books}
}

// SetCoverInvalidator sets the cover cache invalidator (optional).
func (e *Enricher) SetCoverInvalidator(invalidator CoverInvalidator) {
	e.coverInvalidator = invalidator
}

// EnrichBook fetches metadata for a book and fills its missing fields.
// ISBN lookup is tried first when the book has one, then title+author
// search.
func (e *Enricher) EnrichBook(ctx context.Context, bookID uint) (*EnrichmentResult, error) {
	book, err := e.books.GetByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	var result *BookResult
	searchMethod := "title"

	if book.ISBN != "" {
		if r, err := e.provider.SearchByISBN(ctx, book.ISBN); err == nil {
			result = r
			searchMethod = "isbn"
		}
	}

	if result == nil {
		result, err = e.provider.SearchBest(ctx, book.Title, book.Author)
		if err != nil {
			return nil, fmt.Errorf("metadata search failed: %w", err)
		}
	}

	fields, updated := buildUpdates(book, result)

	if len(updated) > 0 {
		if _, changed := fields["cover_url"]; changed && e.coverInvalidator != nil {
			_ = e.coverInvalidator.InvalidateCover(bookID)
		}

		if err := e.books.UpdateMetadata(bookID, fields); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}

		book, err = e.books.GetByID(bookID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: updated,
		SearchMethod:  searchMethod,
	}, nil
}

// buildUpdates maps lookup results onto empty book fields only.
func buildUpdates(book *entities.Book, result *BookResult) (map[string]any, []string) {
	fields := make(map[string]any)
	var updated []string

	if book.ISBN == "" && result.ISBN != "" {
		fields["isbn"] = result.ISBN
		updated = append(updated, "isbn")
	}
	if book.CoverURL == "" && result.CoverURL != "" {
		fields["cover_url"] = result.CoverURL
		updated = append(updated, "cover_url")
	}
	if book.Publisher == "" && result.Publisher != "" {
		fields["publisher"] = result.Publisher
		updated = append(updated, "publisher")
	}
	if book.PublicationYear == 0 && result.FirstPublishYear != 0 {
		fields["publication_year"] = result.FirstPublishYear
		updated = append(updated, "publication_year")
	}
	if book.TotalPages == 0 && result.PageCount > 0 {
		fields["total_pages"] = result.PageCount
		updated = append(updated, "total_pages")
	}
	if book.OpenLibraryKey == "" && result.WorkKey != "" {
		fields["open_library_key"] = result.WorkKey
		updated = append(updated, "open_library_key")
	}

	return fields, updated
}
