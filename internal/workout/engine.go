package workout

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-timer/internal/events"
)

// RunStatus is the clock engine's state machine position.
// Idle -> Running <-> Paused -> Completed, with Stop forcing Idle from any
// state. Completed is terminal for a run.
type RunStatus int

const (
	RunStatusIdle RunStatus = iota
	RunStatusRunning
	RunStatusPaused
	RunStatusCompleted
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusIdle:
		return "idle"
	case RunStatusRunning:
		return "running"
	case RunStatusPaused:
		return "paused"
	case RunStatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// NextPhaseFinal is the lookahead sentinel shown while the current phase is
// the last one in the plan.
const NextPhaseFinal = "final phase"

// countdownWindow is the tail of a phase during which countdown ticks play.
const countdownWindow = 10 * time.Second

// TimeUpdate is emitted on every Advance while a workout is active.
type TimeUpdate struct {
	PhaseRemaining time.Duration
	TotalElapsed   time.Duration
	TotalRemaining time.Duration
	Progress       float64 // current phase progress, clamped to [0,1]
}

// PhaseChange is emitted when the engine enters a phase, including the first
// phase at start.
type PhaseChange struct {
	Phase         PhaseSpec
	HighIntensity bool
}

// Completion is emitted once when the plan runs out.
type Completion struct {
	TotalElapsed time.Duration
}

// CueSink receives audio cue triggers synchronously from within Advance,
// before any display event is notified. Cancel drops pending cue notes on a
// phase transition or stop. All methods must be non-blocking.
type CueSink interface {
	PhaseChanged(highIntensity bool)
	Completed()
	Cancel()
}

// CountdownObserver is told whenever the whole-second remaining value of the
// current phase changes, and cancelled on transitions, pause and stop.
type CountdownObserver interface {
	OnRemainingChanged(secondsRemaining int)
	Cancel()
}

// WakeLock keeps the display awake for the duration of a run. Acquisition
// failures are logged and swallowed; the workout runs regardless.
type WakeLock interface {
	Acquire() error
	Release()
}

// ClockSnapshot is a point-in-time copy of the engine state for rendering.
type ClockSnapshot struct {
	Status          RunStatus
	Plan            Plan
	PhaseIndex      int
	Phase           *PhaseSpec // nil when no run is active
	NextPhaseLabel  string
	PhaseRemaining  time.Duration
	TotalElapsed    time.Duration
	TotalRemaining  time.Duration
	Progress        float64
	CountdownActive bool
}

// ClockEngine owns the run state machine and advances time by real wall-clock
// deltas rather than assuming a fixed interval per call, so scheduling jitter
// and suspended sampling loops never distort elapsed time. All mutation goes
// through its methods; one engine instance is one independent workout clock.
type ClockEngine struct {
	mu              sync.Mutex
	logger          *log.Logger
	cues            CueSink
	countdown       CountdownObserver
	lock            WakeLock
	plan            Plan
	status          RunStatus
	phaseIndex      int
	phaseRemaining  time.Duration
	totalElapsed    time.Duration
	lastSample      time.Time
	lastWholeSecond int
	lockHeld        bool

	timeUpdatedEvent  *events.ChannelEvent[TimeUpdate]
	phaseChangedEvent *events.ChannelEvent[PhaseChange]
	completedEvent    *events.ChannelEvent[Completion]
}

// NewClockEngine creates an idle engine. cues, countdown and lock may each be
// nil; the engine then skips that collaborator.
func NewClockEngine(cues CueSink, countdown CountdownObserver, lock WakeLock, logger *log.Logger) *ClockEngine {
	if logger == nil {
		panic("ClockEngine: logger cannot be nil")
	}
	return &ClockEngine{
		logger:            logger,
		cues:              cues,
		countdown:         countdown,
		lock:              lock,
		status:            RunStatusIdle,
		timeUpdatedEvent:  events.NewChannelEvent[TimeUpdate](true),
		phaseChangedEvent: events.NewChannelEvent[PhaseChange](true),
		completedEvent:    events.NewChannelEvent[Completion](false),
	}
}

// ListenToTimeUpdated registers a channel for per-sample time updates.
func (e *ClockEngine) ListenToTimeUpdated(ch chan<- TimeUpdate) func() {
	return e.timeUpdatedEvent.Listen(ch)
}

// ListenToPhaseChanged registers a channel for phase entry events.
func (e *ClockEngine) ListenToPhaseChanged(ch chan<- PhaseChange) func() {
	return e.phaseChangedEvent.Listen(ch)
}

// ListenToCompleted registers a channel for the completion event.
func (e *ClockEngine) ListenToCompleted(ch chan<- Completion) func() {
	return e.completedEvent.Listen(ch)
}

// Start begins a run over plan with now as the first sample instant.
// Returns ErrEmptyPlan for an empty plan; the caller must not proceed.
func (e *ClockEngine) Start(plan Plan, now time.Time) error {
	if plan.IsEmpty() {
		return ErrEmptyPlan
	}

	e.mu.Lock()
	e.plan = plan
	e.status = RunStatusRunning
	e.phaseIndex = 0
	first := plan.Phases[0]
	e.phaseRemaining = first.Duration
	e.totalElapsed = 0
	e.lastSample = now
	e.lastWholeSecond = 0
	e.acquireLockLocked()
	update := e.timeUpdateLocked()
	secs, secsChanged := e.countdownLocked()
	e.mu.Unlock()

	e.logger.Printf("ClockEngine: started, %d phases, total %v", len(plan.Phases), plan.TotalDuration())

	// Audio first, display after, same ordering as Advance.
	if e.cues != nil {
		e.cues.PhaseChanged(first.Kind == PhaseHighIntensity)
	}
	if secsChanged && e.countdown != nil {
		e.countdown.OnRemainingChanged(secs)
	}
	e.phaseChangedEvent.Notify(PhaseChange{Phase: first, HighIntensity: first.Kind == PhaseHighIntensity})
	e.timeUpdatedEvent.Notify(update)
	return nil
}

// Advance moves the clock to now. No-op unless Running. The elapsed delta is
// the real wall-clock difference since the previous sample, clamped to >= 0
// to tolerate clock jumps. At most one phase transition is applied per call;
// overshoot past a boundary is carried into the next phase as time debt and
// resolves on subsequent calls.
func (e *ClockEngine) Advance(now time.Time) {
	e.mu.Lock()
	if e.status != RunStatusRunning {
		e.mu.Unlock()
		return
	}

	delta := now.Sub(e.lastSample)
	if delta < 0 {
		delta = 0
	}
	e.lastSample = now
	e.phaseRemaining -= delta
	e.totalElapsed += delta

	var phaseChange *PhaseChange
	var completion *Completion
	if e.phaseRemaining <= 0 {
		debt := e.phaseRemaining // <= 0
		e.phaseIndex++
		if e.phaseIndex >= len(e.plan.Phases) {
			e.status = RunStatusCompleted
			e.phaseRemaining = 0
			completion = &Completion{TotalElapsed: e.totalElapsed}
			e.releaseLockLocked()
			e.logger.Printf("ClockEngine: completed after %v", e.totalElapsed)
		} else {
			next := e.plan.Phases[e.phaseIndex]
			e.phaseRemaining = next.Duration + debt
			phaseChange = &PhaseChange{Phase: next, HighIntensity: next.Kind == PhaseHighIntensity}
			e.logger.Printf("ClockEngine: entering phase %d (%s)", e.phaseIndex, next.Label)
		}
		e.lastWholeSecond = 0
	}

	update := e.timeUpdateLocked()
	secs, secsChanged := e.countdownLocked()
	e.mu.Unlock()

	transitioned := phaseChange != nil || completion != nil
	if transitioned {
		if e.countdown != nil {
			e.countdown.Cancel()
		}
		if e.cues != nil {
			e.cues.Cancel()
		}
	}
	if e.cues != nil {
		if phaseChange != nil {
			e.cues.PhaseChanged(phaseChange.HighIntensity)
		}
		if completion != nil {
			e.cues.Completed()
		}
	}
	if secsChanged && e.countdown != nil {
		e.countdown.OnRemainingChanged(secs)
	}
	if phaseChange != nil {
		e.phaseChangedEvent.Notify(*phaseChange)
	}
	if completion != nil {
		e.completedEvent.Notify(*completion)
	}
	e.timeUpdatedEvent.Notify(update)
}

// Pause freezes the clock. The countdown schedule is cancelled; it re-arms on
// the first Advance after Resume.
func (e *ClockEngine) Pause() {
	e.mu.Lock()
	if e.status != RunStatusRunning {
		e.mu.Unlock()
		return
	}
	e.status = RunStatusPaused
	e.lastWholeSecond = 0
	e.mu.Unlock()

	if e.countdown != nil {
		e.countdown.Cancel()
	}
	e.logger.Printf("ClockEngine: paused")
}

// Resume unfreezes the clock. lastSample is reset to now so the paused
// interval is not charged as elapsed time.
func (e *ClockEngine) Resume(now time.Time) {
	e.mu.Lock()
	if e.status != RunStatusPaused {
		e.mu.Unlock()
		return
	}
	e.status = RunStatusRunning
	e.lastSample = now
	e.mu.Unlock()
	e.logger.Printf("ClockEngine: resumed")
}

// Resample resets the delta baseline to now without advancing time. Call it
// when the host reports the view becoming active again after being hidden, so
// the hidden interval is not charged twice.
func (e *ClockEngine) Resample(now time.Time) {
	e.mu.Lock()
	if e.status == RunStatusRunning {
		e.lastSample = now
	}
	e.mu.Unlock()
}

// Stop forces the engine back to Idle from any state, releasing the wake lock
// and cancelling pending cues and countdown ticks.
func (e *ClockEngine) Stop() {
	e.mu.Lock()
	wasIdle := e.status == RunStatusIdle
	e.status = RunStatusIdle
	e.plan = Plan{}
	e.phaseIndex = 0
	e.phaseRemaining = 0
	e.totalElapsed = 0
	e.lastWholeSecond = 0
	e.releaseLockLocked()
	e.mu.Unlock()

	if wasIdle {
		return
	}
	if e.countdown != nil {
		e.countdown.Cancel()
	}
	if e.cues != nil {
		e.cues.Cancel()
	}
	e.logger.Printf("ClockEngine: stopped")
}

// Status returns the current run status.
func (e *ClockEngine) Status() RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot returns a copy of the current state for rendering.
func (e *ClockEngine) Snapshot() ClockSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := ClockSnapshot{
		Status:         e.status,
		Plan:           e.plan,
		PhaseIndex:     e.phaseIndex,
		TotalElapsed:   e.totalElapsed,
		TotalRemaining: e.totalRemainingLocked(),
	}
	if e.status == RunStatusIdle || e.plan.IsEmpty() || e.phaseIndex >= len(e.plan.Phases) {
		if e.status == RunStatusCompleted {
			snap.Progress = 1
		}
		return snap
	}

	phase := e.plan.Phases[e.phaseIndex]
	snap.Phase = &phase
	snap.PhaseRemaining = e.phaseRemaining
	snap.Progress = e.progressLocked()
	snap.CountdownActive = e.status == RunStatusRunning &&
		e.phaseRemaining > 0 && e.phaseRemaining <= countdownWindow
	if e.phaseIndex+1 < len(e.plan.Phases) {
		snap.NextPhaseLabel = e.plan.Phases[e.phaseIndex+1].Label
	} else {
		snap.NextPhaseLabel = NextPhaseFinal
	}
	return snap
}

// --- locked helpers ---

func (e *ClockEngine) timeUpdateLocked() TimeUpdate {
	return TimeUpdate{
		PhaseRemaining: e.phaseRemaining,
		TotalElapsed:   e.totalElapsed,
		TotalRemaining: e.totalRemainingLocked(),
		Progress:       e.progressLocked(),
	}
}

func (e *ClockEngine) totalRemainingLocked() time.Duration {
	remaining := e.plan.TotalDuration() - e.totalElapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// progressLocked returns the current phase's progress fraction, clamped to
// [0,1] even when phaseRemaining has overshot slightly negative.
func (e *ClockEngine) progressLocked() float64 {
	if e.phaseIndex >= len(e.plan.Phases) {
		if e.status == RunStatusCompleted {
			return 1
		}
		return 0
	}
	duration := e.plan.Phases[e.phaseIndex].Duration
	if duration <= 0 {
		return 1
	}
	progress := float64(duration-e.phaseRemaining) / float64(duration)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// countdownLocked computes the whole-second remaining value (rounded up) and
// whether it changed since the last sample. Only meaningful while Running.
func (e *ClockEngine) countdownLocked() (int, bool) {
	if e.status != RunStatusRunning {
		return 0, false
	}
	secs := int((e.phaseRemaining + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	if secs == e.lastWholeSecond {
		return secs, false
	}
	e.lastWholeSecond = secs
	return secs, true
}

func (e *ClockEngine) acquireLockLocked() {
	if e.lock == nil || e.lockHeld {
		return
	}
	if err := e.lock.Acquire(); err != nil {
		// Best-effort: the workout runs with or without the lock.
		e.logger.Printf("ClockEngine: wake lock unavailable: %v", err)
		return
	}
	e.lockHeld = true
}

func (e *ClockEngine) releaseLockLocked() {
	if e.lock == nil || !e.lockHeld {
		return
	}
	e.lock.Release()
	e.lockHeld = false
}
