package entities

import (
	"time"

	"gorm.io/gorm"
)

type GoalType string

const (
	GoalTypePages   GoalType = "pages"
	GoalTypeMinutes GoalType = "minutes"
	GoalTypeBooks   GoalType = "books"
)

type GoalPeriod string

const (
	GoalPeriodDaily   GoalPeriod = "daily"
	GoalPeriodWeekly  GoalPeriod = "weekly"
	GoalPeriodMonthly GoalPeriod = "monthly"
	GoalPeriodYearly  GoalPeriod = "yearly"
)

// AllGoalPeriods lists every period a goal can target, in display order.
var AllGoalPeriods = []GoalPeriod{
	GoalPeriodDaily,
	GoalPeriodWeekly,
	GoalPeriodMonthly,
	GoalPeriodYearly,
}

// IsValid reports whether t is a known goal type.
func (t GoalType) IsValid() bool {
	switch t {
	case GoalTypePages, GoalTypeMinutes, GoalTypeBooks:
		return true
	}
	return false
}

// IsValid reports whether p is a known goal period.
func (p GoalPeriod) IsValid() bool {
	switch p {
	case GoalPeriodDaily, GoalPeriodWeekly, GoalPeriodMonthly, GoalPeriodYearly:
		return true
	}
	return false
}

type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"index;size:512" json:"title"`
	Author          string         `gorm:"index;size:256" json:"author"`
	TotalPages      int            `json:"total_pages"`
	CurrentPage     int            `json:"current_page"`
	ISBN            string         `gorm:"index;size:20" json:"isbn,omitempty"`
	CoverURL        string         `gorm:"size:2048" json:"cover_url,omitempty"`
	Publisher       string         `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear int            `json:"publication_year,omitempty"`
	OpenLibraryKey  string         `gorm:"size:256" json:"open_library_key,omitempty"`
	Rating          float64        `json:"rating,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// ReadingSession is a single logged stretch of reading. BookID is a pointer
// because a session may outlive the book it was logged against.
type ReadingSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    *uint     `gorm:"index" json:"book_id,omitempty"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	StartPage int       `json:"start_page"`
	EndPage   int       `json:"end_page"`
	Duration  int       `json:"duration"` // whole seconds
	Date      time.Time `gorm:"index" json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PagesRead returns the page delta covered by the session.
func (s ReadingSession) PagesRead() int {
	return s.EndPage - s.StartPage
}

// CompletedBook reports whether the session ended exactly on the book's last
// page. Sessions without a book never complete one.
func (s ReadingSession) CompletedBook() bool {
	return s.Book != nil && s.Book.TotalPages > 0 && s.EndPage == s.Book.TotalPages
}

type ReadingGoal struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Type          GoalType   `gorm:"size:20" json:"type"`
	Target        int        `json:"target"`
	Period        GoalPeriod `gorm:"index;size:20" json:"period"`
	StartDate     time.Time  `json:"start_date"`
	IsActive      bool       `gorm:"index;default:true" json:"is_active"`
	CurrentStreak int        `json:"current_streak"`
	BestStreak    int        `json:"best_streak"`
	LastProgress  *time.Time `json:"last_progress,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}

func (ReadingGoal) TableName() string {
	return "reading_goals"
}
