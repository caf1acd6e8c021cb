package workout

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-timer/internal/audio"
	"github.com/lowaak/interval-timer/internal/events"
)

// CountdownTick is emitted for every audible tick during the final seconds of
// a phase.
type CountdownTick struct {
	SecondsRemaining int
	PitchHz          float64
}

// TonePlayer plays a single short tone. Satisfied by *audio.Generator.
type TonePlayer interface {
	PlayTone(freqHz float64, duration time.Duration, wave audio.Waveform)
}

const (
	countdownWindowSeconds = 10
	tickToneDuration       = 60 * time.Millisecond
)

// CountdownTicker plays accelerating ticks during the last ten seconds of a
// phase. The engine feeds it whole-second remaining values; the ticker owns
// its own repeat timer and restarts the schedule whenever the rounded second
// changes, so cadence and pitch track remaining time without drift.
type CountdownTicker struct {
	mu            sync.Mutex
	tones         TonePlayer
	logger        *log.Logger
	active        bool
	lastAnnounced int
	generation    uint64 // invalidates timers from a superseded schedule
	timer         *time.Timer
	tickEvent     *events.CallbackEvent[CountdownTick]
}

// NewCountdownTicker creates an inactive ticker. tones may be nil; ticks then
// only surface as events.
func NewCountdownTicker(tones TonePlayer, logger *log.Logger) *CountdownTicker {
	if logger == nil {
		panic("CountdownTicker: logger cannot be nil")
	}
	return &CountdownTicker{
		tones:     tones,
		logger:    logger,
		tickEvent: events.NewCallbackEvent[CountdownTick](false),
	}
}

// ListenToTicks registers a callback for tick events and returns a
// deregistration func.
func (t *CountdownTicker) ListenToTicks(callback func(CountdownTick)) func() {
	return t.tickEvent.Listen(callback)
}

// OnRemainingChanged activates, retunes or deactivates the tick schedule for
// the given whole-second remaining value. Inside the window an immediate tick
// fires, then repeats at the cadence for the current bucket until the value
// changes or the schedule is cancelled.
func (t *CountdownTicker) OnRemainingChanged(secondsRemaining int) {
	t.mu.Lock()
	if secondsRemaining <= 0 || secondsRemaining > countdownWindowSeconds {
		t.deactivateLocked()
		t.mu.Unlock()
		return
	}
	if t.active && secondsRemaining == t.lastAnnounced {
		t.mu.Unlock()
		return
	}

	// Entering the window, or the rounded second moved: restart the schedule
	// at the new cadence rather than letting the old one drift.
	t.stopTimerLocked()
	t.active = true
	t.lastAnnounced = secondsRemaining
	t.generation++
	gen := t.generation
	t.mu.Unlock()

	t.fire(secondsRemaining)
	t.scheduleNext(gen, secondsRemaining)
}

// Cancel stops the tick schedule. Called on phase transitions, pause, stop
// and completion.
func (t *CountdownTicker) Cancel() {
	t.mu.Lock()
	t.deactivateLocked()
	t.mu.Unlock()
}

// Active reports whether a tick schedule is currently running.
func (t *CountdownTicker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *CountdownTicker) scheduleNext(gen uint64, secondsRemaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || gen != t.generation {
		return
	}
	t.timer = time.AfterFunc(cadenceFor(secondsRemaining), func() {
		t.mu.Lock()
		if !t.active || gen != t.generation {
			t.mu.Unlock()
			return
		}
		current := t.lastAnnounced
		t.mu.Unlock()

		t.fire(current)
		t.scheduleNext(gen, current)
	})
}

func (t *CountdownTicker) fire(secondsRemaining int) {
	pitch := pitchFor(secondsRemaining)
	if t.tones != nil {
		t.tones.PlayTone(pitch, tickToneDuration, audio.WaveSquare)
	}
	t.tickEvent.Notify(CountdownTick{SecondsRemaining: secondsRemaining, PitchHz: pitch})
}

func (t *CountdownTicker) deactivateLocked() {
	t.active = false
	t.lastAnnounced = 0
	t.generation++
	t.stopTimerLocked()
}

func (t *CountdownTicker) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// cadenceFor maps the remaining whole seconds to the tick repeat interval:
// 500ms in (5,10], 300ms in (2,5], 150ms in (0,2].
func cadenceFor(secondsRemaining int) time.Duration {
	switch {
	case secondsRemaining > 5:
		return 500 * time.Millisecond
	case secondsRemaining > 2:
		return 300 * time.Millisecond
	default:
		return 150 * time.Millisecond
	}
}

// pitchFor rises linearly from 600Hz at ten seconds to 870Hz at one.
func pitchFor(secondsRemaining int) float64 {
	return 600 + float64(countdownWindowSeconds-secondsRemaining)*30
}
