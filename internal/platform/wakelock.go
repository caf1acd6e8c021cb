package platform

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"sync"
)

// SleepInhibitor keeps the machine from idling into sleep while a workout
// runs, using systemd-inhibit. Acquire failures are expected on machines
// without systemd; callers treat the lock as best effort.
type SleepInhibitor struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	logger *log.Logger
}

// NewSleepInhibitor creates an inhibitor. It does nothing until Acquire.
func NewSleepInhibitor(logger *log.Logger) *SleepInhibitor {
	if logger == nil {
		panic("SleepInhibitor: logger cannot be nil")
	}
	return &SleepInhibitor{logger: logger}
}

// Acquire takes the idle inhibit lock. Idempotent while held.
func (s *SleepInhibitor) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return nil
	}
	if runtime.GOOS != "linux" {
		return fmt.Errorf("sleep inhibit not supported on %s", runtime.GOOS)
	}
	path, err := exec.LookPath("systemd-inhibit")
	if err != nil {
		return fmt.Errorf("systemd-inhibit not found: %w", err)
	}

	// The child sleeps forever holding the lock; killing it releases.
	cmd := exec.Command(path,
		"--what=idle",
		"--who=interval-timer",
		"--why=workout in progress",
		"--mode=block",
		"sleep", "infinity")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start systemd-inhibit: %w", err)
	}
	go func() {
		_ = cmd.Wait()
	}()

	s.cmd = cmd
	s.logger.Printf("SleepInhibitor: acquired (pid %d)", cmd.Process.Pid)
	return nil
}

// Release drops the lock. Safe to call when not held.
func (s *SleepInhibitor) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return
	}
	if err := s.cmd.Process.Kill(); err != nil {
		s.logger.Printf("SleepInhibitor: release: %v", err)
	}
	s.cmd = nil
	s.logger.Printf("SleepInhibitor: released")
}
