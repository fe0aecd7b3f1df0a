// Package metrics exposes Prometheus collectors for the throttle core's
// observable behavior: current speed, command outcomes by source, lockout
// remaining time, and transition completions by strategy kind.
//
// Grounded on internal/metrics/decision.go's promauto + label-normalization
// idiom in the teacher repo.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	currentSpeed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "throttle_current_speed",
		Help: "Current signed motor speed in [-1,1].",
	})

	lockoutRemainingMS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "throttle_lockout_remaining_ms",
		Help: "Milliseconds remaining on the active source lockout, 0 if none.",
	})

	commandTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "throttle_command_total",
		Help: "Total apply_command calls by source and outcome.",
	}, []string{"source", "outcome"})

	transitionCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "throttle_transition_completed_total",
		Help: "Total transitions that reached their target, by strategy kind.",
	}, []string{"strategy"})

	motorErrorTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "throttle_motor_error_total",
		Help: "Total motor errors observed during update().",
	})
)

// RecordSpeed sets the current-speed gauge.
func RecordSpeed(speed float64) {
	currentSpeed.Set(speed)
}

// RecordLockoutRemaining sets the lockout-remaining gauge.
func RecordLockoutRemaining(remainingMS uint64) {
	lockoutRemainingMS.Set(float64(remainingMS))
}

// RecordCommand records one apply_command outcome.
func RecordCommand(source, outcome string) {
	commandTotal.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// RecordTransitionCompleted records one transition reaching its target.
func RecordTransitionCompleted(strategyKind string) {
	transitionCompletedTotal.WithLabelValues(normalizeLabel(strategyKind)).Inc()
}

// RecordMotorError increments the motor error counter.
func RecordMotorError() {
	motorErrorTotal.Inc()
}

func normalizeLabel(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return v
}
