package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/chadjholmes/bookends/internal/covers"
	"github.com/chadjholmes/bookends/internal/entities"
)

// BookGetter loads a book so its cover URL can be resolved.
type BookGetter interface {
	GetByID(id uint) (*entities.Book, error)
}

// CacheCoverTask downloads and locally caches a book's cover image.
type CacheCoverTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for cover caching tasks.
func (t CacheCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cache_cover",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// CacheCoverProcessor creates a processor function for CacheCoverTask.
func CacheCoverProcessor(cache *covers.Cache, books BookGetter) backlite.QueueProcessor[CacheCoverTask] {
	return func(ctx context.Context, task CacheCoverTask) error {
		if cache == nil {
			return fmt.Errorf("cover cache not configured")
		}

		book, err := books.GetByID(task.BookID)
		if err != nil {
			return fmt.Errorf("get book %d: %w", task.BookID, err)
		}

		if book.CoverURL == "" {
			log.Printf("[TASK] Book %d (%s) has no cover URL, skipping", book.ID, book.Title)
			return nil
		}

		path, err := cache.GetCover(book.ID, book.CoverURL)
		if err != nil {
			return fmt.Errorf("cache cover for book %d: %w", book.ID, err)
		}

		log.Printf("[TASK] Cached cover for book %d (%s) at %s", book.ID, book.Title, path)
		return nil
	}
}

// NewCacheCoverQueue creates a backlite queue for cover caching tasks.
func NewCacheCoverQueue(cache *covers.Cache, books BookGetter) backlite.Queue {
	return backlite.NewQueue(CacheCoverProcessor(cache, books))
}
