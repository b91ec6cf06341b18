package sensor

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestInfof_NoDoubleFormattingWithPercent(t *testing.T) {
	// Swap the base logger to capture output
	var buf bytes.Buffer
	saved := baseLogger
	baseLogger = log.New(&buf, "", 0)
	defer func() { baseLogger = saved }()

	SetLogLevel("info")

	// Service error bodies can contain literal % signs and must pass through
	// unformatted when logged as plain messages.
	msg := `unexpected status 507: storage 99% full (1048576 of 1048576 bytes)`
	Infof(msg)

	out := buf.String()
	if !strings.Contains(out, "99% full") {
		t.Fatalf("log output missing expected percent segment: %s", out)
	}
	if strings.Contains(out, "%!f(MISSING)") || strings.Contains(out, "(MISSING)") {
		t.Fatalf("log output shows fmt artifact: %s", out)
	}
}

func TestSetLogLevel_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	saved := baseLogger
	baseLogger = log.New(&buf, "", 0)
	defer func() {
		baseLogger = saved
		SetLogLevel("info")
	}()

	SetLogLevel("warn")
	Infof("should be filtered")
	Warnf("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("info line not filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestGetLogLevel_ReportsCurrentLevel(t *testing.T) {
	defer SetLogLevel("info")

	cases := []struct {
		set  string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
	}
	for _, tc := range cases {
		SetLogLevel(tc.set)
		got := GetLogLevel()
		if got != tc.want {
			t.Fatalf("after SetLogLevel(%q): GetLogLevel() = %v, want %v", tc.set, got, tc.want)
		}
		if got.String() != tc.set {
			t.Fatalf("LogLevel(%v).String() = %q, want %q", got, got.String(), tc.set)
		}
	}
}

func TestTimeTrack_LogsDurationAtDebug(t *testing.T) {
	var buf bytes.Buffer
	saved := baseLogger
	baseLogger = log.New(&buf, "", 0)
	defer func() {
		baseLogger = saved
		SetLogLevel("info")
	}()

	SetLogLevel("debug")
	TimeTrack(time.Now().Add(-10*time.Millisecond), "flux query")

	out := buf.String()
	if !strings.Contains(out, "flux query took") {
		t.Fatalf("duration line missing: %s", out)
	}
}
