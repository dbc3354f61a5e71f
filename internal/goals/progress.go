// Package goals aggregates reading session records into goal progress
// ratios and streak counts. Every function here is pure: inputs are read
// but never mutated, and all state comes in as arguments.
package goals

import (
	"math"
	"time"

	"github.com/chadjholmes/bookends/internal/entities"
)

// CalculateProgress returns accumulated-metric / target for the goal period
// containing now. The ratio is not clamped to [0, 1]; callers clamp for
// display. A goal target of zero or less yields 0 rather than a division by
// zero, though targets are validated to be positive at creation time.
func CalculateProgress(goal entities.ReadingGoal, sessions []entities.ReadingSession, now time.Time) float64 {
	if goal.Target <= 0 {
		return 0
	}

	start, end := PeriodWindow(goal.Period, now)

	var total float64
	for i := range sessions {
		s := &sessions[i]
		if !InWindow(s.Date, start, end) {
			continue
		}

		switch goal.Type {
		case entities.GoalTypePages:
			if s.Book == nil {
				continue
			}
			total += float64(s.EndPage - s.StartPage)
		case entities.GoalTypeMinutes:
			// Round each session up to whole minutes independently,
			// before summing.
			total += math.Ceil(float64(s.Duration) / 60.0)
		case entities.GoalTypeBooks:
			if s.Book == nil {
				continue
			}
			// A session only counts as a finished book when it ends
			// exactly on the last page.
			if s.EndPage == s.Book.TotalPages {
				total++
			}
		}
	}

	return total / float64(goal.Target)
}

// ClampProgress bounds a raw progress ratio to [0, 1] for display.
func ClampProgress(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
