package observability

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	toolRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cargo_pros",
			Subsystem: "tool",
			Name:      "runs_total",
			Help:      "External tool invocations by subcommand, tool and outcome.",
		},
		[]string{"command", "tool", "outcome"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cargo_pros",
			Subsystem: "tool",
			Name:      "run_duration_seconds",
			Help:      "External tool wall-clock duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"command", "tool"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(toolRuns, toolDuration)
	})
}

// RecordToolRun counts one finished subprocess under the subcommand that
// spawned it.
func RecordToolRun(command, tool string, exitCode int32, duration time.Duration) {
	RegisterMetrics()
	name := toolLabel(tool)
	toolRuns.WithLabelValues(command, name, Outcome(exitCode)).Inc()
	toolDuration.WithLabelValues(command, name).Observe(duration.Seconds())
}

func Outcome(exitCode int32) string {
	switch exitCode {
	case 0:
		return "success"
	case 127:
		return "not_found"
	default:
		return "failure"
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, registry)
}

func toolLabel(tool string) string {
	name := filepath.Base(strings.TrimSpace(tool))
	return strings.TrimSuffix(name, ".exe")
}
