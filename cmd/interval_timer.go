package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/interval-timer/internal/audio"
	"github.com/lowaak/interval-timer/internal/platform"
	"github.com/lowaak/interval-timer/internal/workout"
)

const uiLogBufferSize = 256

// chanWriter forwards log lines into a channel for the UI log pane. Lines are
// dropped when the UI falls behind; the file sink keeps the full record.
type chanWriter struct {
	ch chan string
}

func (w *chanWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

func main() {
	configDir := pflag.String("config-dir", "", "directory for settings (default ~/.interval-timer)")
	logFile := pflag.String("log-file", "", "log file path (default <config-dir>/interval-timer.log)")
	mute := pflag.Bool("mute", false, "start with audio muted")
	pflag.Parse()

	dir := *configDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		dir = filepath.Join(homeDir, ".interval-timer")
	}
	logPath := *logFile
	if logPath == "" {
		logPath = filepath.Join(dir, "interval-timer.log")
	}
	must("create config dir", os.MkdirAll(dir, 0755))

	// Logs go to a rotating file and, through chanWriter, to the UI log pane.
	// Stderr is unusable once the curses UI owns the terminal.
	fileSink := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}
	defer fileSink.Close()
	uiLogChan := make(chan string, uiLogBufferSize)
	logger := log.New(io.MultiWriter(fileSink, &chanWriter{ch: uiLogChan}), "", log.LstdFlags)
	logger.Printf("interval-timer starting")

	settings := workout.NewSettings(dir, logger)
	cfg := settings.Load()

	model := workout.NewUIModel(logger, uiLogChan)
	model.SetConfig(cfg)

	// Audio is optional: with no player binary the tones are silently skipped.
	var tones *audio.Generator
	var cues workout.CueSink
	var tonePlayer workout.TonePlayer
	if player, err := audio.NewSystemPlayer(logger); err != nil {
		logger.Printf("audio disabled: %v", err)
	} else {
		tones = audio.NewGenerator(player, logger)
		tones.SetMuted(*mute)
		cues = tones
		tonePlayer = tones
	}

	ticker := workout.NewCountdownTicker(tonePlayer, logger)
	inhibitor := platform.NewSleepInhibitor(logger)

	engine := workout.NewClockEngine(cues, ticker, inhibitor, logger)
	runner := workout.NewWorkoutRunner(engine, model, logger)
	controller := workout.NewUIController(model, runner, settings, tones, logger)

	app := tview.NewApplication()
	cursesView := workout.NewCursesUIView(logger, app, model)
	baseView := workout.NewBaseUIView(workout.NewBaseUIViewArg{
		UIViewImpl:   cursesView,
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	runErr := baseView.Run()

	// Shutdown order: stop the clock before tearing down the views it posts to.
	controller.Shutdown()
	if tones != nil {
		tones.CancelPending()
	}
	inhibitor.Release()
	baseView.Shutdown()
	model.Shutdown()
	logger.Printf("interval-timer exiting")

	must("run UI", runErr)
}

func must(action string, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to "+action+": "+err.Error())
		os.Exit(1)
	}
}
