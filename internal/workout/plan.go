package workout

import (
	"errors"
	"fmt"
	"time"
)

// PhaseKind identifies the role of a phase within the workout protocol.
type PhaseKind int

const (
	PhaseWarmup PhaseKind = iota
	PhaseHighIntensity
	PhaseRecovery
	PhaseCooldown
)

// DisplayName returns the user-facing name for the phase kind.
func (k PhaseKind) DisplayName() string {
	switch k {
	case PhaseWarmup:
		return "Warm-up"
	case PhaseHighIntensity:
		return "High Intensity"
	case PhaseRecovery:
		return "Recovery"
	case PhaseCooldown:
		return "Cool-down"
	default:
		return "Unknown"
	}
}

// Config holds the five user-configured protocol parameters. Durations are
// minutes; a zero duration omits that phase from the plan.
type Config struct {
	WarmupMin        float64
	HighIntensityMin float64
	RecoveryMin      float64
	CooldownMin      float64
	IntervalCount    int
}

// PhaseSpec is one immutable entry of a plan. IntervalIndex/IntervalTotal are
// the 1-based position within the repeating block and are zero for
// warmup/cooldown phases.
type PhaseSpec struct {
	Kind          PhaseKind
	Label         string
	Duration      time.Duration
	IntervalIndex int
	IntervalTotal int
}

// Plan is the ordered phase sequence for one workout run, built once at start
// and immutable afterwards.
type Plan struct {
	Phases []PhaseSpec
}

// ErrEmptyPlan is returned when the configuration yields no phases at all;
// starting a workout with such a config is a blocking validation failure.
var ErrEmptyPlan = errors.New("plan contains no phases")

// TotalDuration returns the sum of all phase durations.
func (p Plan) TotalDuration() time.Duration {
	var total time.Duration
	for _, phase := range p.Phases {
		total += phase.Duration
	}
	return total
}

// IsEmpty reports whether the plan has no phases.
func (p Plan) IsEmpty() bool {
	return len(p.Phases) == 0
}

// BuildPlan expands a Config into the ordered phase sequence:
// warmup, then IntervalCount high-intensity phases with a recovery phase
// between consecutive intervals (never after the last one), then cooldown.
// Phases with non-positive durations are omitted entirely. Negative inputs
// are treated as zero.
func BuildPlan(cfg Config) (Plan, error) {
	warmup := minutesToDuration(cfg.WarmupMin)
	high := minutesToDuration(cfg.HighIntensityMin)
	recovery := minutesToDuration(cfg.RecoveryMin)
	cooldown := minutesToDuration(cfg.CooldownMin)

	intervals := cfg.IntervalCount
	if intervals < 0 {
		intervals = 0
	}

	var phases []PhaseSpec

	if warmup > 0 {
		phases = append(phases, PhaseSpec{
			Kind:     PhaseWarmup,
			Label:    PhaseWarmup.DisplayName(),
			Duration: warmup,
		})
	}

	if high > 0 {
		recoveryTotal := intervals - 1
		for i := 1; i <= intervals; i++ {
			phases = append(phases, PhaseSpec{
				Kind:          PhaseHighIntensity,
				Label:         fmt.Sprintf("%s %d/%d", PhaseHighIntensity.DisplayName(), i, intervals),
				Duration:      high,
				IntervalIndex: i,
				IntervalTotal: intervals,
			})
			if i < intervals && recovery > 0 {
				phases = append(phases, PhaseSpec{
					Kind:          PhaseRecovery,
					Label:         fmt.Sprintf("%s %d/%d", PhaseRecovery.DisplayName(), i, recoveryTotal),
					Duration:      recovery,
					IntervalIndex: i,
					IntervalTotal: recoveryTotal,
				})
			}
		}
	}

	if cooldown > 0 {
		phases = append(phases, PhaseSpec{
			Kind:     PhaseCooldown,
			Label:    PhaseCooldown.DisplayName(),
			Duration: cooldown,
		})
	}

	if len(phases) == 0 {
		return Plan{}, ErrEmptyPlan
	}
	return Plan{Phases: phases}, nil
}

func minutesToDuration(min float64) time.Duration {
	if min <= 0 {
		return 0
	}
	return time.Duration(min * float64(time.Minute))
}
