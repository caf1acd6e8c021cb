package workout

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Page names for tview.Pages
const (
	pageDashboard = "dashboard"
	pageSettings  = "settings"
)

const progressBarWidth = 40

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Dashboard mode components
	dashboardFlex *tview.Flex
	clockPanel    *tview.TextView
	statusPanel   *tview.TextView

	// Settings mode components
	settingsFlex *tview.Flex
	settingsForm *tview.Form
	editedConfig Config
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeDashboard,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// Create shared log view
	// Note: Don't use SetChangedFunc with app.Draw() - it can cause hangs during shutdown
	// when the app has been stopped but log messages are still being written.
	// The BaseUIView's event listeners already call Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	// Create pages container for mode switching
	ui.pages = tview.NewPages()

	// Initialize each mode
	ui.initDashboardMode(controller)
	ui.initSettingsMode(controller)

	// Add pages
	ui.pages.AddPage(pageDashboard, ui.dashboardFlex, true, true)
	ui.pages.AddPage(pageSettings, ui.settingsFlex, true, false)

	// Create main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)
}

// initDashboardMode sets up the Dashboard mode UI
func (ui *CursesUIViewImpl) initDashboardMode(controller *UIController) {
	// Create instructions box at the top
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Space[white] Start/Pause  |  [yellow]X[white] Stop  |  [yellow]M[white] Mute  |  [yellow]Esc[white] Quit\n[yellow]1[white] Dashboard  |  [yellow]2[white] Settings")

	// Create clock panel for displaying the workout clock
	ui.clockPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.clockPanel.SetBorder(true).SetTitle(" Workout ")
	ui.updateClockDisplay(ClockSnapshot{Status: RunStatusIdle})

	// Create status line panel
	ui.statusPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.statusPanel.SetBorder(true).SetTitle(" Status ")

	// Create dashboard layout: instructions, clock, status line
	ui.dashboardFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(ui.clockPanel, 0, 1, true).
		AddItem(ui.statusPanel, 3, 0, false)
}

// initSettingsMode sets up the Settings mode UI
func (ui *CursesUIViewImpl) initSettingsMode(controller *UIController) {
	ui.editedConfig = ui.model.GetConfig()

	ui.settingsForm = tview.NewForm().
		AddInputField("Warmup (min)", "", 10, nil, func(text string) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				ui.editedConfig.WarmupMin = v
			}
		}).
		AddInputField("High intensity (min)", "", 10, nil, func(text string) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				ui.editedConfig.HighIntensityMin = v
			}
		}).
		AddInputField("Recovery (min)", "", 10, nil, func(text string) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				ui.editedConfig.RecoveryMin = v
			}
		}).
		AddInputField("Cooldown (min)", "", 10, nil, func(text string) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
				ui.editedConfig.CooldownMin = v
			}
		}).
		AddInputField("Intervals", "", 10, nil, func(text string) {
			if v, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
				ui.editedConfig.IntervalCount = v
			}
		}).
		AddButton("Save", func() {
			controller.OnSettingsSaved(ui.editedConfig)
		}).
		AddButton("Back", func() {
			controller.OnModeChange(UIModeDashboard)
		})
	ui.settingsForm.SetBorder(true).SetTitle(" Settings ")

	// Create instructions box at the top
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Tab[white] Next Field  |  [yellow]Enter[white] Activate Button  |  [yellow]1[white] Dashboard")

	ui.settingsFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(ui.settingsForm, 0, 1, true)
}

// SetConfigForm populates the settings form with the given configuration
func (ui *CursesUIViewImpl) SetConfigForm(cfg Config) {
	ui.editedConfig = cfg
	if ui.settingsForm == nil {
		return
	}
	values := []string{
		strconv.FormatFloat(cfg.WarmupMin, 'f', -1, 64),
		strconv.FormatFloat(cfg.HighIntensityMin, 'f', -1, 64),
		strconv.FormatFloat(cfg.RecoveryMin, 'f', -1, 64),
		strconv.FormatFloat(cfg.CooldownMin, 'f', -1, 64),
		strconv.Itoa(cfg.IntervalCount),
	}
	for i, value := range values {
		if field, ok := ui.settingsForm.GetFormItem(i).(*tview.InputField); ok {
			field.SetText(value)
		}
	}
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeDashboard:
		ui.pages.SwitchToPage(pageDashboard)
		ui.app.SetFocus(ui.clockPanel)
	case UIModeSettings:
		ui.pages.SwitchToPage(pageSettings)
		ui.app.SetFocus(ui.settingsForm)
	}

	ui.app.Draw()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		// Rune keys are left alone while the settings form has focus so the
		// user can type digits into the fields.
		if ui.currentMode == UIModeSettings {
			return event
		}

		// Number keys for mode switching (1-9)
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Space to start/pause/resume workout
		if event.Key() == tcell.KeyRune && event.Rune() == ' ' {
			controller.ToggleWorkout()
			return nil
		}
		// 'x' to stop workout
		if event.Key() == tcell.KeyRune && event.Rune() == 'x' {
			controller.StopWorkout()
			return nil
		}
		// 'm' to toggle mute
		if event.Key() == tcell.KeyRune && event.Rune() == 'm' {
			controller.ToggleMute()
			return nil
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, line)
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.app.SetFocus(ui.clockPanel)
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// UpdateClockState updates the workout clock display
func (ui *CursesUIViewImpl) UpdateClockState(state ClockSnapshot) {
	ui.updateClockDisplay(state)
}

// UpdateStatusMessage updates the status line
func (ui *CursesUIViewImpl) UpdateStatusMessage(message string) {
	if ui.statusPanel == nil {
		return
	}
	ui.statusPanel.SetText(fmt.Sprintf(" %s", tview.Escape(message)))
}

// updateClockDisplay formats and displays the clock snapshot
func (ui *CursesUIViewImpl) updateClockDisplay(state ClockSnapshot) {
	if ui.clockPanel == nil {
		return
	}

	var text string

	switch state.Status {
	case RunStatusIdle:
		text = "\n\n  [yellow]Interval Timer[white]\n\n"
		text += "  No workout running.\n\n"
		text += "  [gray]Press[white] [yellow]Space[white] [gray]to start.[white]\n"
		text += "  [gray]Press[white] [yellow]2[white] [gray]to edit the protocol.[white]\n"

	case RunStatusCompleted:
		text = "\n\n  [green]Workout complete![white]\n\n"
		text += fmt.Sprintf("  [gray]Total time:[white] %s\n\n", formatDurationMMSS(state.TotalElapsed))
		text += "  [gray]Press[white] [yellow]Space[white] [gray]to reset.[white]\n"

	case RunStatusRunning, RunStatusPaused:
		text = ui.formatActiveClockDisplay(state)
	}

	ui.clockPanel.SetText(text)
}

// formatActiveClockDisplay formats the display for a running or paused workout
func (ui *CursesUIViewImpl) formatActiveClockDisplay(state ClockSnapshot) string {
	if state.Phase == nil {
		return "\n  [gray]No phase data[white]\n"
	}

	var text string
	text = "\n"

	// Phase label and status
	phaseColor := "cyan"
	if state.Phase.Kind == PhaseHighIntensity {
		phaseColor = "red"
	}
	if state.Status == RunStatusPaused {
		text += fmt.Sprintf("  [%s]%s[white] [gray](PAUSED)[white]\n\n", phaseColor, state.Phase.Label)
	} else {
		text += fmt.Sprintf("  [%s]%s[white]\n\n", phaseColor, state.Phase.Label)
	}

	// Phase countdown, highlighted during the final seconds
	remaining := formatDurationMMSS(state.PhaseRemaining)
	if state.CountdownActive {
		text += fmt.Sprintf("  [gray]Remaining:[white] [red::b]%s[white::-]\n", remaining)
	} else {
		text += fmt.Sprintf("  [gray]Remaining:[white] [yellow]%s[white]\n", remaining)
	}
	text += fmt.Sprintf("  %s\n\n", progressBar(state.Progress, progressBarWidth))

	// Overall timing
	text += fmt.Sprintf("  [gray]Elapsed:[white]   %s\n", formatDurationMMSS(state.TotalElapsed))
	text += fmt.Sprintf("  [gray]Remaining:[white] %s\n", formatDurationMMSS(state.TotalRemaining))
	text += fmt.Sprintf("  [gray]Phase:[white]     %d/%d\n\n", state.PhaseIndex+1, len(state.Plan.Phases))

	// Lookahead
	if state.NextPhaseLabel == NextPhaseFinal {
		text += "  [gray]Next:[white] [green]final phase[white]\n"
	} else {
		text += fmt.Sprintf("  [gray]Next:[white] %s\n", state.NextPhaseLabel)
	}

	// Controls hint
	text += "\n"
	if state.Status == RunStatusPaused {
		text += "  [yellow]Space[white] Resume  |  [yellow]X[white] Stop\n"
	} else {
		text += "  [yellow]Space[white] Pause  |  [yellow]X[white] Stop\n"
	}

	return text
}

// progressBar renders a text progress bar for a fraction in [0,1]
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return fmt.Sprintf("[green]%s[gray]%s[white] %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		fraction*100)
}

// formatDurationMMSS formats a duration as MM:SS, rounding up to whole seconds
// so the display never shows 00:00 while time remains.
func formatDurationMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int((d + time.Second - 1) / time.Second)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
