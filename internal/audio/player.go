package audio

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os/exec"
)

// ErrAudioUnavailable indicates no usable audio output backend was found.
var ErrAudioUnavailable = errors.New("audio output unavailable")

// Player writes a chunk of mono 16-bit PCM to the audio device. Play returns
// as soon as playback has been handed off; it does not wait for the sound to
// finish, so overlapping cue notes mix at the sound server.
type Player interface {
	Play(pcm []int16) error
}

// backend describes one external raw-PCM player we know how to drive.
type backend struct {
	binary string
	args   []string
}

var backends = []backend{
	{"paplay", []string{"--raw", "--format=s16le", "--rate=44100", "--channels=1"}},
	{"aplay", []string{"-q", "-f", "S16_LE", "-r", "44100", "-c", "1", "-t", "raw"}},
}

// execPlayer plays PCM by piping it into an external player process.
type execPlayer struct {
	path   string
	args   []string
	logger *log.Logger
}

// NewSystemPlayer locates the first known player binary on PATH and returns a
// Player backed by it. Returns ErrAudioUnavailable when none is installed.
func NewSystemPlayer(logger *log.Logger) (Player, error) {
	if logger == nil {
		panic("SystemPlayer: logger cannot be nil")
	}
	for _, b := range backends {
		path, err := exec.LookPath(b.binary)
		if err != nil {
			continue
		}
		logger.Printf("Audio: using %s for playback", path)
		return &execPlayer{path: path, args: b.args, logger: logger}, nil
	}
	return nil, fmt.Errorf("%w: none of paplay/aplay found on PATH", ErrAudioUnavailable)
}

func (p *execPlayer) Play(pcm []int16) error {
	if len(pcm) == 0 {
		return nil
	}
	cmd := exec.Command(p.path, p.args...)
	cmd.Stdin = bytes.NewReader(pcmBytes(pcm))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.path, err)
	}
	// Reap in the background; playback latency must not block the caller.
	go func() {
		if err := cmd.Wait(); err != nil {
			p.logger.Printf("Audio: %s exited: %v", p.path, err)
		}
	}()
	return nil
}
