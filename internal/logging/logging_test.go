package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(&buf, "warning"); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { _ = Init(os.Stderr, "info") })

	Debug("acquire block addr=%d", 4096)
	Info("readlog wrote=%s", "a.tk1")
	Warning("split skipped=%d", 1)
	Error("serial open failed dev=%s", "/dev/ttyUSB0")

	out := buf.String()
	if strings.Contains(out, "[debug]") || strings.Contains(out, "[info]") {
		t.Fatalf("unexpected low level output: %q", out)
	}
	if !strings.Contains(out, Prefix) {
		t.Fatalf("missing prefix: %q", out)
	}
	if !strings.Contains(out, "[warn] split skipped=1") {
		t.Fatalf("missing warning: %q", out)
	}
	if !strings.Contains(out, "[error] serial open failed dev=/dev/ttyUSB0") {
		t.Fatalf("missing error: %q", out)
	}
	if Enabled(InfoLevel) || !Enabled(WarningLevel) {
		t.Fatalf("Enabled() disagrees with level warning")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error":  ErrorLevel,
		"warn":   WarningLevel,
		"INFO":   InfoLevel,
		" debug": DebugLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInit_BadLevelKeepsCurrent(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(&buf, "debug"); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	t.Cleanup(func() { _ = Init(os.Stderr, "info") })
	if err := Init(&buf, "chatty"); err == nil {
		t.Fatalf("expected error")
	}
	if !Enabled(DebugLevel) {
		t.Fatalf("level changed after bad Init")
	}
}
