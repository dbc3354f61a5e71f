// Command generate_demo creates a demo database with a sample library,
// reading history, and goals.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/chadjholmes/bookends/internal/database"
	"github.com/chadjholmes/bookends/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	books := createBooks(db)
	createSessions(db, books)
	createGoals(db)

	log.Println("Demo database generated successfully!")
}

func createBooks(db *database.Database) []entities.Book {
	books := []entities.Book{
		{
			Title:           "Meditations",
			Author:          "Marcus Aurelius",
			TotalPages:      254,
			CurrentPage:     254,
			PublicationYear: 180,
			Rating:          5,
		},
		{
			Title:           "Pride and Prejudice",
			Author:          "Jane Austen",
			TotalPages:      432,
			CurrentPage:     310,
			ISBN:            "9780141439518",
			PublicationYear: 1813,
		},
		{
			Title:           "Crime and Punishment",
			Author:          "Fyodor Dostoevsky",
			TotalPages:      671,
			CurrentPage:     120,
			PublicationYear: 1866,
		},
		{
			Title:           "Frankenstein",
			Author:          "Mary Shelley",
			TotalPages:      280,
			PublicationYear: 1818,
		},
	}

	for i := range books {
		if err := db.DB.Create(&books[i]).Error; err != nil {
			log.Printf("Failed to save book %s: %v", books[i].Title, err)
			continue
		}
		log.Printf("Saved: %s by %s", books[i].Title, books[i].Author)
	}
	return books
}

// createSessions lays down a week-long reading streak ending yesterday,
// plus today's session, so streak counters have something to chew on.
func createSessions(db *database.Database, books []entities.Book) {
	if len(books) < 3 {
		return
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())

	type seed struct {
		daysAgo   int
		bookIdx   int
		startPage int
		endPage   int
		minutes   int
	}

	seeds := []seed{
		{7, 0, 200, 230, 40},
		{6, 0, 230, 254, 35}, // finishes Meditations
		{5, 1, 250, 270, 25},
		{4, 1, 270, 290, 30},
		{3, 1, 290, 310, 30},
		{2, 2, 80, 100, 45},
		{1, 2, 100, 120, 40},
		{0, 2, 120, 150, 20},
	}

	for _, s := range seeds {
		bookID := books[s.bookIdx].ID
		session := entities.ReadingSession{
			BookID:    &bookID,
			StartPage: s.startPage,
			EndPage:   s.endPage,
			Duration:  s.minutes * 60,
			Date:      today.AddDate(0, 0, -s.daysAgo),
		}
		if err := db.DB.Create(&session).Error; err != nil {
			log.Printf("Failed to save session for %s: %v", books[s.bookIdx].Title, err)
		}
	}
	log.Printf("Saved %d reading sessions", len(seeds))
}

func createGoals(db *database.Database) {
	goals := []entities.ReadingGoal{
		{
			Type:      entities.GoalTypeMinutes,
			Target:    30,
			Period:    entities.GoalPeriodDaily,
			StartDate: time.Now().AddDate(0, -1, 0),
			IsActive:  true,
		},
		{
			Type:      entities.GoalTypePages,
			Target:    150,
			Period:    entities.GoalPeriodWeekly,
			StartDate: time.Now().AddDate(0, -1, 0),
			IsActive:  true,
		},
		{
			Type:      entities.GoalTypeBooks,
			Target:    24,
			Period:    entities.GoalPeriodYearly,
			StartDate: time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.Local),
			IsActive:  true,
		},
	}

	for i := range goals {
		if err := db.DB.Create(&goals[i]).Error; err != nil {
			log.Printf("Failed to save goal: %v", err)
			continue
		}
		log.Printf("Added goal: %d %s per %s", goals[i].Target, goals[i].Type, goals[i].Period)
	}
}
