package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn)
	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line", errors.New("boom"))

	out := buf.String()
	for _, skipped := range []string{"debug line", "info line"} {
		if strings.Contains(out, skipped) {
			t.Errorf("output contains %q:\n%s", skipped, out)
		}
	}
	for _, want := range []string{"[WARN] warn line", "[ERROR] error line err=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestKeyValues(t *testing.T) {
	buf := capture(t, LevelDebug)
	Info("calculated", "kind", "chemo", "offset", 8, 42, "ignored", "dangling")
	out := buf.String()
	if !strings.Contains(out, "[INFO] calculated kind=chemo offset=8\n") {
		t.Errorf("unexpected output: %q", out)
	}

	buf.Reset()
	Debug("quoted", "msg", "two words")
	if !strings.Contains(buf.String(), `msg="two words"`) {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{" Warn ", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
