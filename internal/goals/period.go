package goals

import (
	"time"

	"github.com/chadjholmes/bookends/internal/entities"
)

// dayOf truncates an instant to midnight of its calendar day in its own
// location. All day comparisons go through this so DST transitions cannot
// shift a session across a day boundary.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sameDay reports whether two instants fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	return dayOf(a).Equal(dayOf(b))
}

// PeriodWindow returns the half-open interval [start, end) of the goal
// period containing now. Weekly windows are calendar weeks starting on
// Sunday, not rolling 7-day windows.
func PeriodWindow(period entities.GoalPeriod, now time.Time) (start, end time.Time) {
	switch period {
	case entities.GoalPeriodDaily:
		start = dayOf(now)
		end = start.AddDate(0, 0, 1)
	case entities.GoalPeriodWeekly:
		day := dayOf(now)
		start = day.AddDate(0, 0, -int(day.Weekday()))
		end = start.AddDate(0, 0, 7)
	case entities.GoalPeriodMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)
	case entities.GoalPeriodYearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(1, 0, 0)
	default:
		// Unknown periods collapse to an empty window so nothing matches.
		start = dayOf(now)
		end = start
	}
	return start, end
}

// InWindow reports whether t falls inside [start, end).
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
