package workout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-timer/internal/audio"
)

// recordingTonePlayer captures tick tones.
type recordingTonePlayer struct {
	mu    sync.Mutex
	tones []float64
	waves []audio.Waveform
}

func (r *recordingTonePlayer) PlayTone(freqHz float64, duration time.Duration, wave audio.Waveform) {
	r.mu.Lock()
	r.tones = append(r.tones, freqHz)
	r.waves = append(r.waves, wave)
	r.mu.Unlock()
}

func (r *recordingTonePlayer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tones)
}

func (r *recordingTonePlayer) firstTone() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tones[0]
}

func TestCountdownTicker_OutsideWindowStaysInactive(t *testing.T) {
	tones := &recordingTonePlayer{}
	ticker := NewCountdownTicker(tones, testLogger())
	defer ticker.Cancel()

	ticker.OnRemainingChanged(11)
	assert.False(t, ticker.Active())
	assert.Equal(t, 0, tones.count())

	ticker.OnRemainingChanged(60)
	assert.False(t, ticker.Active())
}

func TestCountdownTicker_EnteringWindowFiresImmediately(t *testing.T) {
	tones := &recordingTonePlayer{}
	ticker := NewCountdownTicker(tones, testLogger())
	defer ticker.Cancel()

	var ticks []CountdownTick
	var mu sync.Mutex
	unregister := ticker.ListenToTicks(func(tick CountdownTick) {
		mu.Lock()
		ticks = append(ticks, tick)
		mu.Unlock()
	})
	defer unregister()

	ticker.OnRemainingChanged(10)
	assert.True(t, ticker.Active())

	// The first tick fires synchronously on entry
	require.Equal(t, 1, tones.count())
	assert.Equal(t, 600.0, tones.firstTone())

	mu.Lock()
	require.Equal(t, 1, len(ticks))
	assert.Equal(t, 10, ticks[0].SecondsRemaining)
	assert.Equal(t, 600.0, ticks[0].PitchHz)
	mu.Unlock()
}

func TestCountdownTicker_SameSecondDoesNotRestart(t *testing.T) {
	tones := &recordingTonePlayer{}
	ticker := NewCountdownTicker(tones, testLogger())
	defer ticker.Cancel()

	ticker.OnRemainingChanged(10)
	count := tones.count()

	ticker.OnRemainingChanged(10)
	ticker.OnRemainingChanged(10)
	assert.Equal(t, count, tones.count())
}

func TestCountdownTicker_NewSecondRetunes(t *testing.T) {
	tones := &recordingTonePlayer{}
	ticker := NewCountdownTicker(tones, testLogger())
	defer ticker.Cancel()

	ticker.OnRemainingChanged(10)
	ticker.OnRemainingChanged(1)

	require.GreaterOrEqual(t, tones.count(), 2)
	tones.mu.Lock()
	assert.Equal(t, 600.0, tones.tones[0])
	assert.Equal(t, 870.0, tones.tones[1])
	assert.Equal(t, audio.WaveSquare, tones.waves[0])
	tones.mu.Unlock()
}

func TestCountdownTicker_ZeroDeactivates(t *testing.T) {
	ticker := NewCountdownTicker(nil, testLogger())

	ticker.OnRemainingChanged(3)
	assert.True(t, ticker.Active())

	ticker.OnRemainingChanged(0)
	assert.False(t, ticker.Active())
}

func TestCountdownTicker_Cancel(t *testing.T) {
	tones := &recordingTonePlayer{}
	ticker := NewCountdownTicker(tones, testLogger())

	ticker.OnRemainingChanged(2)
	assert.True(t, ticker.Active())

	ticker.Cancel()
	assert.False(t, ticker.Active())

	// No ticks after cancel
	count := tones.count()
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, count, tones.count())
}

func TestCountdownTicker_RepeatsAtCadence(t *testing.T) {
	tones := &recordingTonePlayer{}
	ticker := NewCountdownTicker(tones, testLogger())
	defer ticker.Cancel()

	// 2 seconds remaining: 150ms cadence, so several repeats within 500ms
	ticker.OnRemainingChanged(2)
	time.Sleep(500 * time.Millisecond)

	assert.GreaterOrEqual(t, tones.count(), 3)
}

func TestCountdownTicker_NilTonePlayerStillEmitsTicks(t *testing.T) {
	ticker := NewCountdownTicker(nil, testLogger())
	defer ticker.Cancel()

	var ticks int
	var mu sync.Mutex
	unregister := ticker.ListenToTicks(func(CountdownTick) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})
	defer unregister()

	ticker.OnRemainingChanged(5)

	mu.Lock()
	assert.Equal(t, 1, ticks)
	mu.Unlock()
}

func TestCadenceBuckets(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, cadenceFor(10))
	assert.Equal(t, 500*time.Millisecond, cadenceFor(6))
	assert.Equal(t, 300*time.Millisecond, cadenceFor(5))
	assert.Equal(t, 300*time.Millisecond, cadenceFor(3))
	assert.Equal(t, 150*time.Millisecond, cadenceFor(2))
	assert.Equal(t, 150*time.Millisecond, cadenceFor(1))
}

func TestPitchRisesAsTimeRunsOut(t *testing.T) {
	assert.Equal(t, 600.0, pitchFor(10))
	assert.Equal(t, 750.0, pitchFor(5))
	assert.Equal(t, 870.0, pitchFor(1))

	for secs := 10; secs > 1; secs-- {
		assert.Greater(t, pitchFor(secs-1), pitchFor(secs))
	}
}
