package workout

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/interval-timer/internal/events"
	"github.com/lowaak/interval-timer/internal/safego"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// UIModel is the observable state shared between the runner, the controller
// and the views. Every Set method stores under the lock and notifies
// listeners outside it.
type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	clockEvent            *events.ChannelEvent[ClockSnapshot]
	clockState            ClockSnapshot
	configEvent           *events.ChannelEvent[Config]
	config                Config
	statusEvent           *events.ChannelEvent[string]
	statusMessage         string

	logLines []string
	logMu    sync.RWMutex
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *log.Logger
}

const maxLogLines = 1000

// NewUIModel creates a UIModel. uiLogChan carries formatted log lines from
// the application logger into the UI log pane.
func NewUIModel(logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeDashboard},
		clockEvent:            events.NewChannelEvent[ClockSnapshot](true),
		clockState:            ClockSnapshot{Status: RunStatusIdle},
		configEvent:           events.NewChannelEvent[Config](true),
		statusEvent:           events.NewChannelEvent[string](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	model.wg.Add(1)
	safego.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToClockState registers a channel to receive clock snapshots
func (m *UIModel) ListenToClockState(ch chan<- ClockSnapshot) func() {
	return m.clockEvent.Listen(ch)
}

// GetClockState returns the most recent clock snapshot
func (m *UIModel) GetClockState() ClockSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clockState
}

// SetClockState stores a clock snapshot and notifies listeners
func (m *UIModel) SetClockState(state ClockSnapshot) {
	m.mu.Lock()
	m.clockState = state
	m.mu.Unlock()

	m.clockEvent.Notify(state)
}

// ListenToConfig registers a channel to receive configuration changes
func (m *UIModel) ListenToConfig(ch chan<- Config) func() {
	return m.configEvent.Listen(ch)
}

// GetConfig returns the current configuration
func (m *UIModel) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig stores the configuration and notifies listeners
func (m *UIModel) SetConfig(cfg Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.configEvent.Notify(cfg)
}

// ListenToStatusMessage registers a channel to receive status line updates
func (m *UIModel) ListenToStatusMessage(ch chan<- string) func() {
	return m.statusEvent.Listen(ch)
}

// GetStatusMessage returns the current status line text
func (m *UIModel) GetStatusMessage() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusMessage
}

// SetStatusMessage updates the status line and notifies listeners
func (m *UIModel) SetStatusMessage(message string) {
	m.mu.Lock()
	m.statusMessage = message
	m.mu.Unlock()

	m.statusEvent.Notify(message)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
