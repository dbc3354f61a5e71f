// Package scheduler runs periodic maintenance jobs. Currently that is the
// nightly streak refresh: streaks depend on "today", so counters persisted
// yesterday go stale at midnight even when no session is written.
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/goals"
)

// StreakScheduler recomputes persisted goal streak counters on a cron
// schedule.
type StreakScheduler struct {
	refresher *goals.Refresher
	clk       clock.Clock
	schedule  string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewStreakScheduler creates a scheduler driving the given refresher.
func NewStreakScheduler(refresher *goals.Refresher, clk clock.Clock, schedule string) *StreakScheduler {
	return &StreakScheduler{
		refresher: refresher,
		clk:       clk,
		schedule:  schedule,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the schedule. Calling Start on a running scheduler is a no-op.
func (s *StreakScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runRefresh)
	if err != nil {
		return fmt.Errorf("failed to schedule streak refresh '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("Streak refresh scheduler started with schedule '%s'", s.schedule)
	return nil
}

// Stop halts the schedule, waiting for a running refresh to finish.
func (s *StreakScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Printf("Streak refresh scheduler stopped")
}

// RunNow triggers an immediate refresh outside the schedule.
func (s *StreakScheduler) RunNow() error {
	return s.refresher.Refresh(s.clk.Now())
}

func (s *StreakScheduler) runRefresh() {
	if err := s.refresher.Refresh(s.clk.Now()); err != nil {
		log.Printf("Streak refresh failed: %v", err)
		return
	}
	log.Printf("Streak refresh completed")
}
