package goals

import (
	"sort"
	"time"

	"github.com/chadjholmes/bookends/internal/entities"
)

// CurrentStreak returns the number of consecutive calendar days, ending
// today, with at least one session. If no session falls on now's calendar
// day the streak is 0 regardless of any chain ending yesterday.
func CurrentStreak(sessions []entities.ReadingSession, now time.Time) int {
	if len(sessions) == 0 {
		return 0
	}

	sorted := make([]entities.ReadingSession, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	ref := dayOf(now)
	if !sameDay(sorted[0].Date, ref) {
		return 0
	}

	streak := 1
	for _, s := range sorted[1:] {
		day := dayOf(s.Date)
		if day.Equal(ref) {
			// Another session on the already-counted day.
			continue
		}
		if day.Equal(ref.AddDate(0, 0, -1)) {
			streak++
			ref = day
			continue
		}
		// Gap of more than one day ends the chain.
		break
	}

	return streak
}

// LongestStreak returns the length of the longest run of consecutive
// calendar days each containing at least one session. An empty session set
// yields 0.
func LongestStreak(sessions []entities.ReadingSession) int {
	if len(sessions) == 0 {
		return 0
	}

	sorted := make([]entities.ReadingSession, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	longest := 0
	run := 1
	prev := dayOf(sorted[0].Date)
	for _, s := range sorted[1:] {
		day := dayOf(s.Date)
		switch {
		case day.Equal(prev):
			// Same day, no increment.
			continue
		case day.Equal(prev.AddDate(0, 0, 1)):
			run++
		default:
			if run > longest {
				longest = run
			}
			run = 1
		}
		prev = day
	}

	if run > longest {
		longest = run
	}
	return longest
}
