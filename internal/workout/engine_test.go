package workout

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func phasePlan(phases ...PhaseSpec) Plan {
	return Plan{Phases: phases}
}

func phase(kind PhaseKind, label string, d time.Duration) PhaseSpec {
	return PhaseSpec{Kind: kind, Label: label, Duration: d}
}

// recordingCueSink captures the synchronous cue calls from the engine.
type recordingCueSink struct {
	phaseChanges []bool // highIntensity flag per call
	completions  int
	cancels      int
}

func (r *recordingCueSink) PhaseChanged(highIntensity bool) {
	r.phaseChanges = append(r.phaseChanges, highIntensity)
}
func (r *recordingCueSink) Completed() { r.completions++ }
func (r *recordingCueSink) Cancel()    { r.cancels++ }

// recordingCountdown captures whole-second remaining notifications.
type recordingCountdown struct {
	values  []int
	cancels int
}

func (r *recordingCountdown) OnRemainingChanged(secondsRemaining int) {
	r.values = append(r.values, secondsRemaining)
}
func (r *recordingCountdown) Cancel() { r.cancels++ }

// recordingWakeLock tracks acquire/release pairs.
type recordingWakeLock struct {
	acquired int
	released int
	failWith error
}

func (r *recordingWakeLock) Acquire() error {
	if r.failWith != nil {
		return r.failWith
	}
	r.acquired++
	return nil
}
func (r *recordingWakeLock) Release() { r.released++ }

func TestClockEngine_StartEmptyPlan(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	err := engine.Start(Plan{}, time.Now())
	assert.ErrorIs(t, err, ErrEmptyPlan)
	assert.Equal(t, RunStatusIdle, engine.Status())
}

func TestClockEngine_StartEntersFirstPhase(t *testing.T) {
	cues := &recordingCueSink{}
	engine := NewClockEngine(cues, nil, nil, testLogger())

	plan := phasePlan(
		phase(PhaseHighIntensity, "High Intensity 1/1", 30*time.Second),
	)
	require.NoError(t, engine.Start(plan, time.Now()))

	assert.Equal(t, RunStatusRunning, engine.Status())
	// The first phase gets its entry cue at start
	require.Equal(t, 1, len(cues.phaseChanges))
	assert.True(t, cues.phaseChanges[0])

	snap := engine.Snapshot()
	require.NotNil(t, snap.Phase)
	assert.Equal(t, "High Intensity 1/1", snap.Phase.Label)
	assert.Equal(t, 30*time.Second, snap.PhaseRemaining)
	assert.Equal(t, NextPhaseFinal, snap.NextPhaseLabel)
}

func TestClockEngine_AdvanceZeroDelta(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", time.Minute))
	require.NoError(t, engine.Start(plan, start))

	engine.Advance(start)
	engine.Advance(start)

	snap := engine.Snapshot()
	assert.Equal(t, time.Minute, snap.PhaseRemaining)
	assert.Equal(t, time.Duration(0), snap.TotalElapsed)
}

func TestClockEngine_AdvanceBackwardClockClamped(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", time.Minute))
	require.NoError(t, engine.Start(plan, start))

	// A clock jump backwards must not run the workout in reverse
	engine.Advance(start.Add(-10 * time.Second))

	snap := engine.Snapshot()
	assert.Equal(t, time.Minute, snap.PhaseRemaining)
	assert.Equal(t, time.Duration(0), snap.TotalElapsed)
}

func TestClockEngine_TransitionCarriesOvershoot(t *testing.T) {
	cues := &recordingCueSink{}
	engine := NewClockEngine(cues, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(
		phase(PhaseWarmup, "Warm-up", 5*time.Second),
		phase(PhaseHighIntensity, "High Intensity 1/1", 3*time.Second),
	)
	require.NoError(t, engine.Start(plan, start))

	// Land exactly on the boundary: next phase starts with its full duration
	engine.Advance(start.Add(5 * time.Second))
	snap := engine.Snapshot()
	require.NotNil(t, snap.Phase)
	assert.Equal(t, PhaseHighIntensity, snap.Phase.Kind)
	assert.Equal(t, 3*time.Second, snap.PhaseRemaining)
	assert.Equal(t, 5*time.Second, snap.TotalElapsed)

	// Two phase cues so far: warmup at start, high intensity on transition
	require.Equal(t, 2, len(cues.phaseChanges))
	assert.False(t, cues.phaseChanges[0])
	assert.True(t, cues.phaseChanges[1])
}

func TestClockEngine_OvershootDebtShortensNextPhase(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(
		phase(PhaseWarmup, "Warm-up", 5*time.Second),
		phase(PhaseHighIntensity, "High Intensity 1/1", 3*time.Second),
	)
	require.NoError(t, engine.Start(plan, start))

	// Overshoot the boundary by 500ms: the excess is charged to the next phase
	engine.Advance(start.Add(5500 * time.Millisecond))
	snap := engine.Snapshot()
	require.NotNil(t, snap.Phase)
	assert.Equal(t, PhaseHighIntensity, snap.Phase.Kind)
	assert.Equal(t, 2500*time.Millisecond, snap.PhaseRemaining)
	assert.Equal(t, 5500*time.Millisecond, snap.TotalElapsed)
}

func TestClockEngine_OneTransitionPerAdvance(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(
		phase(PhaseWarmup, "Warm-up", time.Second),
		phase(PhaseHighIntensity, "High Intensity 1/1", time.Second),
		phase(PhaseCooldown, "Cool-down", time.Second),
	)
	require.NoError(t, engine.Start(plan, start))

	// A single huge delta only crosses one boundary; the debt resolves on the
	// next calls.
	engine.Advance(start.Add(10 * time.Second))
	snap := engine.Snapshot()
	require.NotNil(t, snap.Phase)
	assert.Equal(t, PhaseHighIntensity, snap.Phase.Kind)

	engine.Advance(start.Add(10 * time.Second))
	snap = engine.Snapshot()
	require.NotNil(t, snap.Phase)
	assert.Equal(t, PhaseCooldown, snap.Phase.Kind)

	engine.Advance(start.Add(10 * time.Second))
	assert.Equal(t, RunStatusCompleted, engine.Status())
}

func TestClockEngine_Completion(t *testing.T) {
	cues := &recordingCueSink{}
	countdown := &recordingCountdown{}
	lock := &recordingWakeLock{}
	engine := NewClockEngine(cues, countdown, lock, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseCooldown, "Cool-down", 2*time.Second))
	require.NoError(t, engine.Start(plan, start))
	assert.Equal(t, 1, lock.acquired)

	var completions []Completion
	completedCh := make(chan Completion, 1)
	engine.ListenToCompleted(completedCh)

	engine.Advance(start.Add(3 * time.Second))

	assert.Equal(t, RunStatusCompleted, engine.Status())
	assert.Equal(t, 1, cues.completions)
	assert.Equal(t, 1, lock.released)
	assert.GreaterOrEqual(t, countdown.cancels, 1)

	select {
	case c := <-completedCh:
		completions = append(completions, c)
	default:
	}
	require.Equal(t, 1, len(completions))
	assert.Equal(t, 3*time.Second, completions[0].TotalElapsed)

	snap := engine.Snapshot()
	assert.Nil(t, snap.Phase)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, time.Duration(0), snap.TotalRemaining)

	// Advance after completion is a no-op
	engine.Advance(start.Add(10 * time.Second))
	assert.Equal(t, 3*time.Second, engine.Snapshot().TotalElapsed)
}

func TestClockEngine_PauseFreezesClock(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", time.Minute))
	require.NoError(t, engine.Start(plan, start))

	engine.Advance(start.Add(10 * time.Second))
	engine.Pause()
	assert.Equal(t, RunStatusPaused, engine.Status())

	// Advance while paused changes nothing
	engine.Advance(start.Add(40 * time.Second))
	snap := engine.Snapshot()
	assert.Equal(t, 50*time.Second, snap.PhaseRemaining)
	assert.Equal(t, 10*time.Second, snap.TotalElapsed)

	// Resume resets the baseline: the paused interval is never charged
	engine.Resume(start.Add(60 * time.Second))
	engine.Advance(start.Add(65 * time.Second))
	snap = engine.Snapshot()
	assert.Equal(t, 45*time.Second, snap.PhaseRemaining)
	assert.Equal(t, 15*time.Second, snap.TotalElapsed)
}

func TestClockEngine_ResampleSkipsHiddenInterval(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", time.Minute))
	require.NoError(t, engine.Start(plan, start))

	engine.Advance(start.Add(5 * time.Second))

	// The view was hidden for 20s; resample so that interval is dropped
	engine.Resample(start.Add(25 * time.Second))
	engine.Advance(start.Add(30 * time.Second))

	snap := engine.Snapshot()
	assert.Equal(t, 10*time.Second, snap.TotalElapsed)
}

func TestClockEngine_StopResetsToIdle(t *testing.T) {
	cues := &recordingCueSink{}
	countdown := &recordingCountdown{}
	lock := &recordingWakeLock{}
	engine := NewClockEngine(cues, countdown, lock, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", time.Minute))
	require.NoError(t, engine.Start(plan, start))
	engine.Advance(start.Add(10 * time.Second))

	engine.Stop()
	assert.Equal(t, RunStatusIdle, engine.Status())
	assert.Equal(t, 1, lock.released)
	assert.GreaterOrEqual(t, cues.cancels, 1)
	assert.GreaterOrEqual(t, countdown.cancels, 1)

	snap := engine.Snapshot()
	assert.Nil(t, snap.Phase)
	assert.Equal(t, time.Duration(0), snap.TotalElapsed)

	// Stop when already idle stays idle
	engine.Stop()
	assert.Equal(t, RunStatusIdle, engine.Status())
}

func TestClockEngine_WakeLockFailureIsNonFatal(t *testing.T) {
	lock := &recordingWakeLock{failWith: assert.AnError}
	engine := NewClockEngine(nil, nil, lock, testLogger())

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", time.Minute))
	require.NoError(t, engine.Start(plan, time.Now()))
	assert.Equal(t, RunStatusRunning, engine.Status())

	engine.Stop()
	assert.Equal(t, 0, lock.released)
}

func TestClockEngine_ProgressClamped(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(
		phase(PhaseWarmup, "Warm-up", 10*time.Second),
		phase(PhaseCooldown, "Cool-down", 10*time.Second),
	)
	require.NoError(t, engine.Start(plan, start))

	snap := engine.Snapshot()
	assert.Equal(t, 0.0, snap.Progress)

	engine.Advance(start.Add(5 * time.Second))
	snap = engine.Snapshot()
	assert.InDelta(t, 0.5, snap.Progress, 0.001)

	// Overshoot into the next phase: progress stays within [0,1]
	engine.Advance(start.Add(12 * time.Second))
	snap = engine.Snapshot()
	assert.GreaterOrEqual(t, snap.Progress, 0.0)
	assert.LessOrEqual(t, snap.Progress, 1.0)
}

func TestClockEngine_CountdownNotifications(t *testing.T) {
	countdown := &recordingCountdown{}
	engine := NewClockEngine(nil, countdown, nil, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", 4*time.Second))
	require.NoError(t, engine.Start(plan, start))

	// Start announces the initial whole-second value
	require.NotEmpty(t, countdown.values)
	assert.Equal(t, 4, countdown.values[0])

	engine.Advance(start.Add(1500 * time.Millisecond)) // 2.5s left, ceil 3
	engine.Advance(start.Add(1600 * time.Millisecond)) // still ceil 3, no repeat
	engine.Advance(start.Add(3 * time.Second))         // 1s left

	assert.Equal(t, []int{4, 3, 1}, countdown.values)
}

func TestClockEngine_CountdownActiveFlag(t *testing.T) {
	engine := NewClockEngine(nil, nil, nil, testLogger())
	start := time.Now()

	plan := phasePlan(phase(PhaseWarmup, "Warm-up", 30*time.Second))
	require.NoError(t, engine.Start(plan, start))

	assert.False(t, engine.Snapshot().CountdownActive)

	engine.Advance(start.Add(22 * time.Second)) // 8s left
	assert.True(t, engine.Snapshot().CountdownActive)

	engine.Pause()
	assert.False(t, engine.Snapshot().CountdownActive)
}

func TestClockEngine_EndToEndEventCounts(t *testing.T) {
	cues := &recordingCueSink{}
	engine := NewClockEngine(cues, nil, nil, testLogger())
	start := time.Now()

	plan, err := BuildPlan(Config{
		HighIntensityMin: 1,
		RecoveryMin:      1,
		IntervalCount:    2,
	})
	require.NoError(t, err)
	require.Equal(t, 3, len(plan.Phases))
	require.Equal(t, 3*time.Minute, plan.TotalDuration())

	var phaseChanges []PhaseChange
	phaseCh := make(chan PhaseChange, 8)
	engine.ListenToPhaseChanged(phaseCh)

	require.NoError(t, engine.Start(plan, start))

	// Sample at 100ms granularity through the whole run
	for elapsed := 100 * time.Millisecond; elapsed <= 181*time.Second; elapsed += 100 * time.Millisecond {
		engine.Advance(start.Add(elapsed))
		if engine.Status() == RunStatusCompleted {
			break
		}
	}
	require.Equal(t, RunStatusCompleted, engine.Status())

	for {
		select {
		case pc := <-phaseCh:
			phaseChanges = append(phaseChanges, pc)
			continue
		default:
		}
		break
	}

	// Exactly one entry event per phase, including the first at start
	require.Equal(t, 3, len(phaseChanges))
	highCount := 0
	for _, pc := range phaseChanges {
		if pc.HighIntensity {
			highCount++
		}
	}
	assert.Equal(t, 2, highCount)

	// Cue calls mirror the events, plus exactly one completion
	assert.Equal(t, 3, len(cues.phaseChanges))
	assert.Equal(t, 1, cues.completions)

	snap := engine.Snapshot()
	assert.InDelta(t, float64(3*time.Minute), float64(snap.TotalElapsed), float64(200*time.Millisecond))
}
