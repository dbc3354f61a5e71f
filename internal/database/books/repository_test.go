package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chadjholmes/bookends/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func createTestBook(t *testing.T, repo *Repository, title, author string) *entities.Book {
	book := &entities.Book{
		Title:      title,
		Author:     author,
		TotalPages: 300,
	}
	require.NoError(t, repo.Create(book))
	return book
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, repo, "Dune", "Frank Herbert")

	got, err := repo.GetByID(book.ID)

	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Frank Herbert", got.Author)
}

func TestRepository_AllOrdersByTitle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, repo, "Zorba the Greek", "Nikos Kazantzakis")
	createTestBook(t, repo, "Anathem", "Neal Stephenson")
	createTestBook(t, repo, "Middlemarch", "George Eliot")

	books, err := repo.All()

	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Anathem", books[0].Title)
	assert.Equal(t, "Middlemarch", books[1].Title)
	assert.Equal(t, "Zorba the Greek", books[2].Title)
}

func TestRepository_SearchMatchesTitleAndAuthor(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, repo, "Dune", "Frank Herbert")
	createTestBook(t, repo, "Dune Messiah", "Frank Herbert")
	createTestBook(t, repo, "Emma", "Jane Austen")

	byTitle, err := repo.Search("dune")
	require.NoError(t, err)
	assert.Len(t, byTitle, 2)

	byAuthor, err := repo.Search("Austen")
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Emma", byAuthor[0].Title)

	none, err := repo.Search("tolstoy")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_DeleteIsSoft(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, repo, "Dune", "Frank Herbert")

	require.NoError(t, repo.Delete(book.ID))

	_, err := repo.GetByID(book.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	books, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestRepository_UpdateMetadataWritesOnlyGivenFields(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, repo, "Dune", "Frank Herbert")

	err := repo.UpdateMetadata(book.ID, map[string]any{
		"isbn":             "9780441172719",
		"publication_year": 1965,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "9780441172719", got.ISBN)
	assert.Equal(t, 1965, got.PublicationYear)
	// Untouched fields keep their values.
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 300, got.TotalPages)
}

func TestRepository_UpdateMetadataWithNoFieldsIsNoop(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, repo, "Dune", "Frank Herbert")

	require.NoError(t, repo.UpdateMetadata(book.ID, nil))

	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}
