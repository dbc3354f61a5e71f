package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chadjholmes/bookends/internal/covers"
	"github.com/chadjholmes/bookends/internal/entities"
	"github.com/chadjholmes/bookends/internal/tasks"
)

// BooksStore defines database operations for catalog management.
type BooksStore interface {
	Create(book *entities.Book) error
	Update(book *entities.Book) error
	Delete(id uint) error
	GetByID(id uint) (*entities.Book, error)
	All() ([]entities.Book, error)
	Search(query string) ([]entities.Book, error)
}

type BooksController struct {
	store      BooksStore
	coverCache *covers.Cache
	taskClient *tasks.Client
}

// NewBooksController creates the catalog controller. coverCache and
// taskClient may be nil when those subsystems are disabled.
func NewBooksController(store BooksStore, coverCache *covers.Cache, taskClient *tasks.Client) *BooksController {
	return &BooksController{
		store:      store,
		coverCache: coverCache,
		taskClient: taskClient,
	}
}

type bookPayload struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	TotalPages      int     `json:"total_pages"`
	CurrentPage     int     `json:"current_page"`
	ISBN            string  `json:"isbn"`
	CoverURL        string  `json:"cover_url"`
	Publisher       string  `json:"publisher"`
	PublicationYear int     `json:"publication_year"`
	OpenLibraryKey  string  `json:"open_library_key"`
	Rating          float64 `json:"rating"`
}

func (p *bookPayload) validate() string {
	if p.Title == "" {
		return "title is required"
	}
	if p.TotalPages < 0 {
		return "total_pages must not be negative"
	}
	if p.CurrentPage < 0 || (p.TotalPages > 0 && p.CurrentPage > p.TotalPages) {
		return "current_page must be within [0, total_pages]"
	}
	return ""
}

// List returns the catalog, filtered by ?q= when present.
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	var (
		books []entities.Book
		err   error
	)
	if q := c.Query("q"); q != "" {
		books, err = bc.store.Search(q)
	} else {
		books, err = bc.store.All()
	}
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "total": len(books)})
}

// Get returns a single book.
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Create adds a book to the catalog and queues background cover caching.
// POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var payload bookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := payload.validate(); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	book := &entities.Book{
		Title:           payload.Title,
		Author:          payload.Author,
		TotalPages:      payload.TotalPages,
		CurrentPage:     payload.CurrentPage,
		ISBN:            payload.ISBN,
		CoverURL:        payload.CoverURL,
		Publisher:       payload.Publisher,
		PublicationYear: payload.PublicationYear,
		OpenLibraryKey:  payload.OpenLibraryKey,
		Rating:          payload.Rating,
	}
	if err := bc.store.Create(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	if bc.taskClient != nil && book.CoverURL != "" {
		if err := bc.taskClient.Add(tasks.CacheCoverTask{BookID: book.ID}); err != nil {
			// Cover caching is opportunistic; the book was created fine.
			respondCreated(c, book)
			return
		}
	}

	respondCreated(c, book)
}

// Update edits a book in place.
// PUT /api/books/:id
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	var payload bookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := payload.validate(); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	book.Title = payload.Title
	book.Author = payload.Author
	book.TotalPages = payload.TotalPages
	book.CurrentPage = payload.CurrentPage
	book.ISBN = payload.ISBN
	book.CoverURL = payload.CoverURL
	book.Publisher = payload.Publisher
	book.PublicationYear = payload.PublicationYear
	book.OpenLibraryKey = payload.OpenLibraryKey
	book.Rating = payload.Rating

	if err := bc.store.Update(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete removes a book. Sessions that reference it are kept; their book
// reference simply dangles from then on.
// DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// Cover serves the locally cached cover image for a book.
// GET /api/books/:id/cover
func (bc *BooksController) Cover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if bc.coverCache == nil {
		respondNotFound(c, "cover")
		return
	}

	book, err := bc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	path, err := bc.coverCache.GetCover(book.ID, book.CoverURL)
	if err != nil || path == "" {
		respondNotFound(c, "cover")
		return
	}
	c.File(path)
}

// Enrich queues a background metadata enrichment for a book.
// POST /api/books/:id/enrich
func (bc *BooksController) Enrich(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if bc.taskClient == nil {
		respondBadRequest(c, "background tasks are disabled")
		return
	}

	if _, err := bc.store.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if err := bc.taskClient.Add(
		tasks.EnrichBookTask{BookID: id},
		tasks.CacheCoverTask{BookID: id},
	); err != nil {
		respondInternalError(c, err, "enqueue enrichment")
		return
	}

	respondAccepted(c, "enrichment queued", gin.H{"book_id": id})
}
