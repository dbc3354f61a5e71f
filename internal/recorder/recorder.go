// Package recorder implements the live reading-session timer: a two-state
// machine (running/paused) whose displayed elapsed time is always derived
// from the wall clock, never from accumulated tick counts. The hosting
// process can disappear for an arbitrary stretch and the next observation
// still reads correctly.
package recorder

import (
	"errors"
	"sync"
	"time"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/liveactivity"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrNotRunning       = errors.New("recording is not running")
	ErrNotPaused        = errors.New("recording is not paused")
)

// StartOptions configures a new recording.
type StartOptions struct {
	BookID uint

	// PriorProgress is today's daily-goal progress from already-persisted
	// sessions, computed by the caller via goals.CalculateProgress.
	PriorProgress float64

	// DailyTargetMinutes is the active daily goal's target in minutes.
	// Zero means no daily goal: the progress term stays 0 and the timer
	// runs regardless.
	DailyTargetMinutes int

	// Accumulator seeds elapsed time when reconstructing a recording that
	// was torn down mid-session.
	Accumulator time.Duration
}

// Result is handed to the session-save flow when a recording ends.
type Result struct {
	BookID    uint
	Elapsed   time.Duration
	StartedAt time.Time
	EndedAt   time.Time
}

// Recorder owns one recording at a time. All mutation goes through the
// mutex; the 1Hz tick goroutine only reads state to publish snapshots and
// is cancelled deterministically on pause and end.
type Recorder struct {
	mu        sync.Mutex
	clk       clock.Clock
	publisher liveactivity.Publisher

	state              State
	bookID             uint
	startedAt          time.Time // first start, for the saved session
	startDate          time.Time // wall-clock anchor of the current run
	accumulator        time.Duration
	priorProgress      float64
	dailyTargetMinutes int

	stopTick chan struct{}
}

// New creates an idle recorder.
func New(clk clock.Clock, publisher liveactivity.Publisher) *Recorder {
	if publisher == nil {
		publisher = liveactivity.NopPublisher{}
	}
	return &Recorder{
		clk:       clk,
		publisher: publisher,
		state:     StateIdle,
	}
}

// Start begins a recording in the running state and opens the ambient
// display. Only one recording may be active at a time.
func (r *Recorder) Start(opts StartOptions) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}

	now := r.clk.Now()
	r.state = StateRunning
	r.bookID = opts.BookID
	r.startedAt = now
	r.startDate = now
	r.accumulator = opts.Accumulator
	r.priorProgress = opts.PriorProgress
	r.dailyTargetMinutes = opts.DailyTargetMinutes

	snapshot := r.snapshotLocked()
	r.startTickLocked()
	r.mu.Unlock()

	r.publisher.Start(snapshot)
	return nil
}

// Pause folds the elapsed running time into the accumulator and cancels
// the tick.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		if r.state == StateIdle {
			return ErrNotRecording
		}
		return ErrNotRunning
	}

	r.accumulator += r.clk.Now().Sub(r.startDate)
	r.state = StatePaused
	r.stopTickLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.publisher.Update(snapshot)
	return nil
}

// Resume re-anchors the wall-clock derivation and restarts the tick. The
// accumulator carries over untouched.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	if r.state != StatePaused {
		r.mu.Unlock()
		if r.state == StateIdle {
			return ErrNotRecording
		}
		return ErrNotPaused
	}

	r.startDate = r.clk.Now()
	r.state = StateRunning
	r.startTickLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.publisher.Update(snapshot)
	return nil
}

// Adjust shifts the accumulator by delta (the ±10s buttons). Permitted in
// either state; the result never goes below zero.
func (r *Recorder) Adjust(delta time.Duration) error {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return ErrNotRecording
	}

	r.accumulator += delta
	if e := r.elapsedLocked(); e < 0 {
		// Clamp total elapsed, not just the accumulator, so the timer
		// can never display a negative value.
		r.accumulator -= e
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.publisher.Update(snapshot)
	return nil
}

// End terminates the recording from either state, closes the ambient
// display, and returns the final elapsed time for the session-save flow.
func (r *Recorder) End() (Result, error) {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return Result{}, ErrNotRecording
	}

	now := r.clk.Now()
	if r.state == StateRunning {
		r.accumulator += now.Sub(r.startDate)
		r.stopTickLocked()
	}

	result := Result{
		BookID:    r.bookID,
		Elapsed:   r.accumulator,
		StartedAt: r.startedAt,
		EndedAt:   now,
	}
	snapshot := r.snapshotLocked()
	snapshot.IsTimerRunning = false

	r.state = StateIdle
	r.bookID = 0
	r.accumulator = 0
	r.priorProgress = 0
	r.dailyTargetMinutes = 0
	r.mu.Unlock()

	r.publisher.End(snapshot)
	return result, nil
}

// Shutdown cancels the tick without emitting an end event. Called on
// process teardown; the accumulator can later seed StartOptions to
// reconstruct the recording.
func (r *Recorder) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		r.accumulator += r.clk.Now().Sub(r.startDate)
		r.state = StatePaused
		r.stopTickLocked()
	}
}

// State returns the current machine state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool {
	return r.State() != StateIdle
}

// Elapsed returns the recording's elapsed time as of this observation.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

// Accumulator returns the folded elapsed time, for persisting a recording
// across process restarts.
func (r *Recorder) Accumulator() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		return r.accumulator + r.clk.Now().Sub(r.startDate)
	}
	return r.accumulator
}

// Snapshot returns the current display state. The second return is false
// when no recording is active.
func (r *Recorder) Snapshot() (liveactivity.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		return liveactivity.Snapshot{}, false
	}
	return r.snapshotLocked(), true
}

// BookID returns the book the active recording is logged against.
func (r *Recorder) BookID() (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		return 0, false
	}
	return r.bookID, true
}

// elapsedLocked derives elapsed time from the wall clock: accumulator plus
// the current run's wall-clock delta while running, accumulator alone while
// paused. Never a tick count.
func (r *Recorder) elapsedLocked() time.Duration {
	if r.state == StateRunning {
		return r.accumulator + r.clk.Now().Sub(r.startDate)
	}
	return r.accumulator
}

// snapshotLocked recomputes the full display state from the wall clock.
func (r *Recorder) snapshotLocked() liveactivity.Snapshot {
	elapsed := r.elapsedLocked()
	return liveactivity.Snapshot{
		ElapsedSeconds:    elapsed.Seconds(),
		DailyGoalProgress: r.dailyProgressLocked(elapsed),
		StartDate:         r.startDate,
		IsTimerRunning:    r.state == StateRunning,
	}
}

// dailyProgressLocked projects cumulative daily-goal progress: persisted
// progress plus the live elapsed seconds over the target in seconds. A
// zero target contributes nothing rather than a non-finite value.
func (r *Recorder) dailyProgressLocked(elapsed time.Duration) float64 {
	if r.dailyTargetMinutes <= 0 {
		return r.priorProgress
	}
	targetSeconds := float64(r.dailyTargetMinutes) * 60
	return r.priorProgress + elapsed.Seconds()/targetSeconds
}

// startTickLocked spawns the 1Hz publisher loop. The loop holds its own
// stop channel so a stale goroutine from a previous run can never outlive
// its cancellation.
func (r *Recorder) startTickLocked() {
	stop := make(chan struct{})
	r.stopTick = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if snapshot, ok := r.Snapshot(); ok {
					r.publisher.Update(snapshot)
				}
			}
		}
	}()
}

func (r *Recorder) stopTickLocked() {
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
}
