package telemetry_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/cosim/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	td := []struct {
		in  string
		l   zerolog.Level
		err bool
	}{
		{"", zerolog.InfoLevel, false},
		{"trace", zerolog.TraceLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"off", zerolog.Disabled, false},
		{"verbose", zerolog.NoLevel, true},
	}
	for _, d := range td {
		l, err := telemetry.ParseLevel(d.in)
		if (err != nil) != d.err || l != d.l {
			t.Errorf("ParseLevel(%q) = %v, %v", d.in, l, err)
		}
	}
}

func TestNewLoggerFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "cosim.log")
	l, c, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "debug", Format: "json", Output: fn})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug().Str("entity", "top").Msg("hello")
	l.Trace().Msg("filtered")
	if err = c.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"entity":"top"`) || !strings.Contains(s, `"message":"hello"`) {
		t.Fatalf("unexpected log output: %s", s)
	}
	if strings.Contains(s, "filtered") {
		t.Fatal("trace message not filtered")
	}
}

func TestNewLoggerErrors(t *testing.T) {
	if _, _, err := telemetry.NewLogger(telemetry.LoggingConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := telemetry.NewLogger(telemetry.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestMetrics(t *testing.T) {
	var nilMetrics *telemetry.Metrics
	nilMetrics.Resume()
	nilMetrics.TestDone(true)
	if nilMetrics.Registry() != nil {
		t.Fatal("nil metrics has a registry")
	}

	m := telemetry.NewMetrics("cosim")
	m.Resume()
	m.Resume()
	m.Suspend()
	m.TaskSpawned()
	m.TestDone(true)
	m.TestDone(false)
	m.TestDone(false)
	if v := testutil.ToFloat64(m.Resumes); v != 2 {
		t.Errorf("resumes = %v", v)
	}
	if v := testutil.ToFloat64(m.Suspensions); v != 1 {
		t.Errorf("suspensions = %v", v)
	}
	if v := testutil.ToFloat64(m.Tests.WithLabelValues(telemetry.ResultFailed)); v != 2 {
		t.Errorf("failed tests = %v", v)
	}
	n, err := testutil.GatherAndCount(m.Registry())
	if err != nil {
		t.Fatal(err)
	}
	// three counters plus two label values
	if n != 5 {
		t.Errorf("gathered %d metrics", n)
	}
}
