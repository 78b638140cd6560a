package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordToolRun("upload", "/usr/bin/pros", 0, 120*time.Millisecond)
	RecordToolRun("build", "cargo", 101, 3*time.Second)
}

func TestOutcome(t *testing.T) {
	if got := Outcome(0); got != "success" {
		t.Fatalf("unexpected outcome: %q", got)
	}
	if got := Outcome(127); got != "not_found" {
		t.Fatalf("unexpected outcome: %q", got)
	}
	if got := Outcome(2); got != "failure" {
		t.Fatalf("unexpected outcome: %q", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordToolRun("sim", "/opt/pros/bin/pros-simulator", 0, time.Second)

	path := filepath.Join(t.TempDir(), "cargo_pros.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "cargo_pros_tool_runs_total") {
		t.Fatalf("missing counter in output:\n%s", out)
	}
	if !strings.Contains(out, "cargo_pros_tool_run_duration_seconds") {
		t.Fatalf("missing histogram in output:\n%s", out)
	}
	if !strings.Contains(out, `command="sim"`) {
		t.Fatalf("missing sim label in output:\n%s", out)
	}
}

func TestNewConsoleLoggerWritesPlainTextToBuffers(t *testing.T) {
	var buf strings.Builder
	logger := NewConsoleLogger(&buf, false, false)
	logger.Info().Str("artifact", "target/app.bin").Msg("converted")

	out := buf.String()
	if !strings.Contains(out, "converted") || !strings.Contains(out, "artifact=target/app.bin") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color escapes for non-terminal output: %q", out)
	}
}
