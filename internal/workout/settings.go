package workout

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default configuration, used field-by-field when the settings file is
// missing, malformed, or holds out-of-range values.
const (
	DefaultWarmupMin        = 3.0
	DefaultHighIntensityMin = 1.0
	DefaultRecoveryMin      = 1.0
	DefaultCooldownMin      = 3.0
	DefaultIntervalCount    = 8
)

const (
	keyWarmupMin        = "warmup_min"
	keyHighIntensityMin = "high_intensity_min"
	keyRecoveryMin      = "recovery_min"
	keyCooldownMin      = "cooldown_min"
	keyIntervalCount    = "interval_count"
)

const settingsFileName = "settings.yaml"

// Settings persists the five protocol parameters. Load never fails: any
// problem with the file falls back to defaults per field, logged not
// surfaced, so the presentation layer always gets a usable Config.
type Settings struct {
	v      *viper.Viper
	path   string
	logger *log.Logger
}

// NewSettings creates a Settings store rooted at dir. An empty dir defaults
// to ~/.interval-timer.
func NewSettings(dir string, logger *log.Logger) *Settings {
	if logger == nil {
		panic("Settings: logger cannot be nil")
	}
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		dir = filepath.Join(homeDir, ".interval-timer")
	}

	v := viper.New()
	v.SetDefault(keyWarmupMin, DefaultWarmupMin)
	v.SetDefault(keyHighIntensityMin, DefaultHighIntensityMin)
	v.SetDefault(keyRecoveryMin, DefaultRecoveryMin)
	v.SetDefault(keyCooldownMin, DefaultCooldownMin)
	v.SetDefault(keyIntervalCount, DefaultIntervalCount)

	path := filepath.Join(dir, settingsFileName)
	v.SetConfigFile(path)

	return &Settings{v: v, path: path, logger: logger}
}

// Load reads the settings file and returns a sanitized Config. Missing or
// unreadable files yield the defaults.
func (s *Settings) Load() Config {
	if err := s.v.ReadInConfig(); err != nil {
		s.logger.Printf("Settings: load %s: %v (using defaults)", s.path, err)
	}
	cfg := Config{
		WarmupMin:        s.v.GetFloat64(keyWarmupMin),
		HighIntensityMin: s.v.GetFloat64(keyHighIntensityMin),
		RecoveryMin:      s.v.GetFloat64(keyRecoveryMin),
		CooldownMin:      s.v.GetFloat64(keyCooldownMin),
		IntervalCount:    s.v.GetInt(keyIntervalCount),
	}
	return s.sanitize(cfg)
}

// Save writes cfg to the settings file, creating the directory if needed.
func (s *Settings) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	s.v.Set(keyWarmupMin, cfg.WarmupMin)
	s.v.Set(keyHighIntensityMin, cfg.HighIntensityMin)
	s.v.Set(keyRecoveryMin, cfg.RecoveryMin)
	s.v.Set(keyCooldownMin, cfg.CooldownMin)
	s.v.Set(keyIntervalCount, cfg.IntervalCount)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return err
	}
	s.logger.Printf("Settings: saved %s", s.path)
	return nil
}

// sanitize replaces out-of-range values with their defaults, per field. The
// record carries no version or schema; a bad field never invalidates the rest.
func (s *Settings) sanitize(cfg Config) Config {
	if cfg.WarmupMin < 0 {
		s.logger.Printf("Settings: warmup_min %v out of range, using default", cfg.WarmupMin)
		cfg.WarmupMin = DefaultWarmupMin
	}
	if cfg.HighIntensityMin < 0 {
		s.logger.Printf("Settings: high_intensity_min %v out of range, using default", cfg.HighIntensityMin)
		cfg.HighIntensityMin = DefaultHighIntensityMin
	}
	if cfg.RecoveryMin < 0 {
		s.logger.Printf("Settings: recovery_min %v out of range, using default", cfg.RecoveryMin)
		cfg.RecoveryMin = DefaultRecoveryMin
	}
	if cfg.CooldownMin < 0 {
		s.logger.Printf("Settings: cooldown_min %v out of range, using default", cfg.CooldownMin)
		cfg.CooldownMin = DefaultCooldownMin
	}
	if cfg.IntervalCount < 1 {
		s.logger.Printf("Settings: interval_count %d out of range, using default", cfg.IntervalCount)
		cfg.IntervalCount = DefaultIntervalCount
	}
	return cfg
}
