package audio

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-timer/internal/safego"
)

// Note is one tone within a cue: play FreqHz for Duration starting OffsetMs
// milliseconds after the cue begins.
type Note struct {
	OffsetMs int
	FreqHz   float64
	Duration time.Duration
	Wave     Waveform
}

// Cue is a short declarative tone sequence executed by a single cancellable
// scheduler, so a phase transition can drop all pending notes atomically.
// Notes that already sounded are not recalled.
type Cue []Note

const (
	cueNoteDuration = 150 * time.Millisecond
	cueNoteSpacing  = 150
)

// PhaseChangeCue returns the cue announcing a phase boundary: an ascending
// square-wave triad into high intensity, a descending sine triad otherwise.
func PhaseChangeCue(highIntensity bool) Cue {
	if highIntensity {
		return sequence(WaveSquare, 523, 659, 784)
	}
	return sequence(WaveSine, 784, 659, 523)
}

// CompletionCue returns the four-note ascending run played when the workout
// finishes.
func CompletionCue() Cue {
	return sequence(WaveSine, 523, 659, 784, 1047)
}

func sequence(wave Waveform, freqs ...float64) Cue {
	cue := make(Cue, 0, len(freqs))
	for i, f := range freqs {
		cue = append(cue, Note{
			OffsetMs: i * cueNoteSpacing,
			FreqHz:   f,
			Duration: cueNoteDuration,
			Wave:     wave,
		})
	}
	return cue
}

// Generator turns cue requests into sound. It owns at most one in-flight cue
// schedule; starting a new cue or calling Cancel drops whatever was pending.
// With a nil player, or while muted, everything is a silent no-op.
type Generator struct {
	mu     sync.Mutex
	player Player
	logger *log.Logger
	muted  bool
	cancel chan struct{} // closed to abort the in-flight cue
}

// NewGenerator creates a Generator. player may be nil when audio is
// unavailable; the generator then degrades to silence rather than failing.
func NewGenerator(player Player, logger *log.Logger) *Generator {
	if logger == nil {
		panic("Generator: logger cannot be nil")
	}
	return &Generator{player: player, logger: logger}
}

// SetMuted toggles the user-facing mute switch.
func (g *Generator) SetMuted(muted bool) {
	g.mu.Lock()
	g.muted = muted
	g.mu.Unlock()
}

// Muted reports whether the generator is muted.
func (g *Generator) Muted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// PlayTone plays a single tone immediately, independent of any cue schedule.
// Used for countdown ticks.
func (g *Generator) PlayTone(freqHz float64, duration time.Duration, wave Waveform) {
	player := g.playerIfAudible()
	if player == nil {
		return
	}
	if err := player.Play(Synthesize(freqHz, duration, wave)); err != nil {
		g.logger.Printf("Audio: tone playback failed: %v", err)
	}
}

// PlayCue cancels any pending cue and schedules this one. The notes run on a
// single goroutine that checks the cancel channel before every note.
func (g *Generator) PlayCue(cue Cue) {
	g.mu.Lock()
	if g.cancel != nil {
		close(g.cancel)
	}
	cancel := make(chan struct{})
	g.cancel = cancel
	g.mu.Unlock()

	player := g.playerIfAudible()
	if player == nil || len(cue) == 0 {
		return
	}

	safego.SafeGo(g.logger, func() {
		start := time.Now()
		for _, note := range cue {
			due := start.Add(time.Duration(note.OffsetMs) * time.Millisecond)
			if wait := time.Until(due); wait > 0 {
				select {
				case <-cancel:
					return
				case <-time.After(wait):
				}
			} else {
				select {
				case <-cancel:
					return
				default:
				}
			}
			if err := player.Play(Synthesize(note.FreqHz, note.Duration, note.Wave)); err != nil {
				g.logger.Printf("Audio: cue playback failed: %v", err)
				return
			}
		}
	})
}

// CancelPending aborts the in-flight cue schedule, if any.
func (g *Generator) CancelPending() {
	g.mu.Lock()
	if g.cancel != nil {
		close(g.cancel)
		g.cancel = nil
	}
	g.mu.Unlock()
}

// PhaseChanged, Completed and Cancel let the Generator serve directly as the
// clock engine's cue sink.

func (g *Generator) PhaseChanged(highIntensity bool) {
	g.PlayCue(PhaseChangeCue(highIntensity))
}

func (g *Generator) Completed() {
	g.PlayCue(CompletionCue())
}

func (g *Generator) Cancel() {
	g.CancelPending()
}

func (g *Generator) playerIfAudible() Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.muted {
		return nil
	}
	return g.player
}
