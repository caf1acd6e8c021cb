package workout

import (
	"log"

	"github.com/lowaak/interval-timer/internal/audio"
)

// UIController handles UI events and coordinates the runner, settings store
// and tone generator.
type UIController struct {
	model    *UIModel
	runner   *WorkoutRunner
	settings *Settings
	tones    *audio.Generator
	logger   *log.Logger
}

// NewUIController creates a new UIController with the given dependencies.
// tones may be nil when audio is disabled entirely.
func NewUIController(model *UIModel, runner *WorkoutRunner, settings *Settings, tones *audio.Generator, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if runner == nil {
		panic("UIController: runner cannot be nil")
	}
	if settings == nil {
		panic("UIController: settings cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	return &UIController{
		model:    model,
		runner:   runner,
		settings: settings,
		tones:    tones,
		logger:   logger,
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// ToggleWorkout starts, pauses, or resumes the workout based on current state
func (c *UIController) ToggleWorkout() {
	switch c.model.GetClockState().Status {
	case RunStatusIdle:
		c.runner.Start()
	case RunStatusRunning:
		c.runner.Pause()
	case RunStatusPaused:
		c.runner.Resume()
	case RunStatusCompleted:
		c.runner.Stop()
	}
}

// StopWorkout stops the workout and resets to idle
func (c *UIController) StopWorkout() {
	c.runner.Stop()
}

// ToggleMute flips the audio mute switch
func (c *UIController) ToggleMute() {
	if c.tones == nil {
		c.model.SetStatusMessage("Audio unavailable")
		return
	}
	muted := !c.tones.Muted()
	c.tones.SetMuted(muted)
	if muted {
		c.model.SetStatusMessage("Audio muted")
	} else {
		c.model.SetStatusMessage("Audio unmuted")
	}
}

// OnViewResumed handles the terminal becoming visible again after being
// hidden, resetting the clock's delta baseline.
func (c *UIController) OnViewResumed() {
	c.runner.Resample()
}

// OnSettingsSaved persists an edited configuration and publishes it to the
// model. Persistence failures are logged; the in-memory config still applies.
func (c *UIController) OnSettingsSaved(cfg Config) {
	if err := c.settings.Save(cfg); err != nil {
		c.logger.Printf("UIController: settings save failed: %v", err)
		c.model.SetStatusMessage("Settings applied (save failed, see log)")
	} else {
		c.model.SetStatusMessage("Settings saved")
	}
	c.model.SetConfig(cfg)
}

// Shutdown stops the runner and cleans up resources
func (c *UIController) Shutdown() {
	c.runner.Shutdown()
}
