// Package audio synthesizes and plays the workout's audio cues: single tones
// for countdown ticks and short multi-note cues for phase changes and
// completion. Playback is best-effort: when no output backend is available
// every operation is a silent no-op and the workout proceeds without sound.
package audio

import (
	"math"
	"time"
)

// PCM output format: mono, 16-bit signed little-endian.
const SampleRate = 44100

// Tones decay exponentially from startAmplitude to endAmplitude over their
// duration, so every tone is near-silent by the time it ends and there is no
// click on cutoff.
const (
	startAmplitude = 0.5
	endAmplitude   = 0.01
)

// Waveform selects the oscillator shape for a synthesized tone.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	default:
		return "unknown"
	}
}

// Synthesize produces mono 16-bit PCM for a single tone of the given
// frequency and duration, with exponential amplitude decay.
func Synthesize(freqHz float64, duration time.Duration, wave Waveform) []int16 {
	numSamples := int(float64(SampleRate) * duration.Seconds())
	if numSamples <= 0 || freqHz <= 0 {
		return nil
	}

	// amp(t) = start * (end/start)^(t/T)
	decayRate := math.Log(endAmplitude/startAmplitude) / duration.Seconds()

	samples := make([]int16, numSamples)
	for i := range samples {
		t := float64(i) / float64(SampleRate)

		phase := math.Sin(2 * math.Pi * freqHz * t)
		if wave == WaveSquare {
			if phase >= 0 {
				phase = 1
			} else {
				phase = -1
			}
		}

		amplitude := startAmplitude * math.Exp(decayRate*t)
		samples[i] = int16(phase * amplitude * 32767)
	}
	return samples
}

// pcmBytes converts samples to the little-endian byte stream the player
// processes expect.
func pcmBytes(samples []int16) []byte {
	buf := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		buf = append(buf, byte(s), byte(s>>8))
	}
	return buf
}
