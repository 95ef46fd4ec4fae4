package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" info ":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewSloggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "relayctl.log")
	log := Config{Level: "debug", File: path}.NewSlogger()
	log.Info("file sink probe", "k", "v")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "file sink probe") {
		t.Fatalf("log file missing message: %q", b)
	}
	if !strings.Contains(string(b), "k=v") {
		t.Fatalf("log file missing attr: %q", b)
	}
}

func TestNewSloggerLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayctl.log")
	log := Config{Level: "warn", File: path}.NewSlogger()
	log.Info("should be filtered")
	log.Warn("should appear")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(b), "should be filtered") {
		t.Fatalf("info leaked through warn level: %q", b)
	}
	if !strings.Contains(string(b), "should appear") {
		t.Fatalf("warn missing: %q", b)
	}
}

func TestRotationDefaults(t *testing.T) {
	if valOr(0, DefaultMaxSizeMB) != DefaultMaxSizeMB {
		t.Fatalf("zero should take default")
	}
	if valOr(-1, DefaultMaxBackups) != DefaultMaxBackups {
		t.Fatalf("negative should take default")
	}
	if valOr(25, DefaultMaxSizeMB) != 25 {
		t.Fatalf("explicit value should win")
	}
}
