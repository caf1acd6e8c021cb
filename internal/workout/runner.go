package workout

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-timer/internal/safego"
)

// runnerCommand represents commands sent to the runner goroutine
type runnerCommand int

const (
	cmdStart runnerCommand = iota
	cmdPause
	cmdResume
	cmdStop
)

// sampleInterval is the sampling loop cadence. The engine measures real
// elapsed time per sample, so this only bounds display granularity; a late
// or missed tick never distorts the clock.
const sampleInterval = 100 * time.Millisecond

// WorkoutRunner drives the clock engine from a periodic sampling loop and
// pushes snapshots into the UIModel. All engine commands funnel through one
// goroutine so state transitions and sampling never race.
type WorkoutRunner struct {
	engine *ClockEngine
	model  *UIModel
	logger *log.Logger

	cmdChan      chan runnerCommand
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewWorkoutRunner creates a WorkoutRunner and starts its loop.
func NewWorkoutRunner(engine *ClockEngine, model *UIModel, logger *log.Logger) *WorkoutRunner {
	if engine == nil {
		panic("WorkoutRunner: engine cannot be nil")
	}
	if model == nil {
		panic("WorkoutRunner: model cannot be nil")
	}
	if logger == nil {
		panic("WorkoutRunner: logger cannot be nil")
	}

	r := &WorkoutRunner{
		engine:   engine,
		model:    model,
		logger:   logger,
		cmdChan:  make(chan runnerCommand, 1),
		doneChan: make(chan struct{}),
	}

	r.wg.Add(1)
	safego.SafeGo(logger, func() { r.runLoop() })

	return r
}

// Start begins a workout from the model's current configuration.
func (r *WorkoutRunner) Start() {
	if r.engine.Status() == RunStatusRunning {
		r.logger.Printf("WorkoutRunner: already running")
		return
	}
	r.cmdChan <- cmdStart
}

// Pause pauses a running workout.
func (r *WorkoutRunner) Pause() {
	if r.engine.Status() != RunStatusRunning {
		r.logger.Printf("WorkoutRunner: cannot pause - not running")
		return
	}
	r.cmdChan <- cmdPause
}

// Resume continues a paused workout.
func (r *WorkoutRunner) Resume() {
	if r.engine.Status() != RunStatusPaused {
		r.logger.Printf("WorkoutRunner: cannot resume - not paused")
		return
	}
	r.cmdChan <- cmdResume
}

// Stop ends the workout and resets the engine to idle.
func (r *WorkoutRunner) Stop() {
	if r.engine.Status() == RunStatusIdle {
		r.logger.Printf("WorkoutRunner: no workout to stop")
		return
	}
	r.cmdChan <- cmdStop
}

// Resample resets the engine's delta baseline after the view was hidden, so
// the hidden interval is not charged twice.
func (r *WorkoutRunner) Resample() {
	r.engine.Resample(time.Now())
}

// Shutdown stops the runner goroutine. Safe to call multiple times.
func (r *WorkoutRunner) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.logger.Printf("WorkoutRunner: shutting down")
		close(r.doneChan)
		r.wg.Wait()
		r.logger.Printf("WorkoutRunner: shutdown complete")
	})
}

// runLoop is the single goroutine owning engine commands and sampling.
func (r *WorkoutRunner) runLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(sampleInterval)
	ticker.Stop() // armed when a workout starts

	for {
		select {
		case <-r.doneChan:
			ticker.Stop()
			r.engine.Stop()
			return

		case cmd := <-r.cmdChan:
			switch cmd {
			case cmdStart:
				cfg := r.model.GetConfig()
				plan, err := BuildPlan(cfg)
				if err != nil {
					// Blocking validation failure: the workout does not start.
					r.logger.Printf("WorkoutRunner: cannot start: %v", err)
					r.model.SetStatusMessage("Cannot start: all phase durations are zero")
					continue
				}
				if err := r.engine.Start(plan, time.Now()); err != nil {
					r.logger.Printf("WorkoutRunner: start refused: %v", err)
					continue
				}
				ticker.Reset(sampleInterval)
				r.model.SetStatusMessage("Workout started")

			case cmdPause:
				ticker.Stop()
				r.engine.Pause()
				r.model.SetStatusMessage("Paused")

			case cmdResume:
				r.engine.Resume(time.Now())
				ticker.Reset(sampleInterval)
				r.model.SetStatusMessage("Resumed")

			case cmdStop:
				ticker.Stop()
				r.engine.Stop()
				r.model.SetStatusMessage("Stopped")
			}
			r.model.SetClockState(r.engine.Snapshot())

		case <-ticker.C:
			r.engine.Advance(time.Now())
			snapshot := r.engine.Snapshot()
			if snapshot.Status == RunStatusCompleted {
				ticker.Stop()
				r.model.SetStatusMessage("Workout complete!")
			}
			r.model.SetClockState(snapshot)
		}
	}
}
