package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleGoesToStderrWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Console: true, Format: "json", Level: "debug", Stderr: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Init(Options{}) })

	L().Debug("round_started", zap.String("difficulty", "hard"))
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["msg"] != "round_started" || entry["difficulty"] != "hard" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "numguess.log")
	if err := Init(Options{File: true, Path: path, Level: "warn"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("dropped")
	L().Warn("profile_save_failed")
	Sync()
	if err := Init(Options{}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "dropped") {
		t.Fatalf("info entry should be filtered at warn: %q", out)
	}
	if !strings.Contains(out, "WARN | ") || !strings.Contains(out, "profile_save_failed") {
		t.Fatalf("expected legacy formatted warning, got %q", out)
	}
}

func TestNoSinksIsNop(t *testing.T) {
	if err := Init(Options{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if L().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected a no-op logger")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_FILE", "/tmp/x.log")
	o := OptionsFromEnv(Options{Console: true, File: true})
	if o.Level != "error" || o.Console || !o.File || o.Format != "legacy" || o.Path != "/tmp/x.log" {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
