package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/simp-lee/logger"
)

func boolPtr(b bool) *bool { return &b }

func TestSetupLogger_NilConfig(t *testing.T) {
	log, err := SetupLogger(nil)
	if err == nil {
		log.Close()
		t.Fatal("expected error for nil config")
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			log, err := SetupLogger(&LogConfig{Level: tt.level, Format: "text"})
			if err != nil {
				t.Fatalf("SetupLogger error: %v", err)
			}
			defer log.Close()

			if !log.Enabled(context.TODO(), tt.want) {
				t.Errorf("expected level %v to be enabled", tt.want)
			}
			if tt.want > slog.LevelDebug && log.Enabled(context.TODO(), tt.want-1) {
				t.Errorf("expected level %v to be disabled", tt.want-1)
			}
		})
	}
}

func TestSetupLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docbase.log")

	log, err := SetupLogger(&LogConfig{Level: "info", Format: "json", FilePath: path, Color: boolPtr(false)})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()

	if slog.Default().Handler() != log.Handler() {
		t.Error("SetupLogger did not replace slog.Default()")
	}
}

func TestBuildLoggerOpts_Count(t *testing.T) {
	const console = 4
	const withFile = console + 2
	const path = "/tmp/docbase-test.log"

	tests := []struct {
		name string
		cfg  *LogConfig
		want int
	}{
		{"console text", &LogConfig{Level: "info", Format: "text"}, console},
		{"console json without color", &LogConfig{Level: "warn", Format: "json", Color: boolPtr(false)}, console},
		{"file", &LogConfig{Level: "info", Format: "json", FilePath: path}, withFile},
		{"file with size", &LogConfig{FilePath: path, MaxSizeMB: 10}, withFile + 1},
		{"file with retention", &LogConfig{FilePath: path, RetentionDays: 7}, withFile + 1},
		{"file with backups", &LogConfig{FilePath: path, MaxBackups: 3}, withFile + 1},
		{"file with compression off", &LogConfig{FilePath: path, CompressRotated: boolPtr(false)}, withFile + 1},
		{"file with all rotation", &LogConfig{
			FilePath: path, MaxSizeMB: 50, RetentionDays: 30, MaxBackups: 5, CompressRotated: boolPtr(true),
		}, withFile + 4},
		{"rotation ignored without file", &LogConfig{MaxSizeMB: 50, MaxBackups: 5}, console},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(buildLoggerOpts(tt.cfg)); got != tt.want {
				t.Errorf("option count = %d, want %d", got, tt.want)
			}
		})
	}

	if opts := buildLoggerOpts(nil); opts != nil {
		t.Errorf("expected nil options for nil config, got %d", len(opts))
	}
}

func TestBuildLoggerOpts_AcceptedByLogger(t *testing.T) {
	cfg := &LogConfig{
		Level: "debug", Format: "json", FilePath: filepath.Join(t.TempDir(), "rotate.log"),
		MaxSizeMB: 10, RetentionDays: 7, MaxBackups: 3, CompressRotated: boolPtr(true),
	}

	log, err := logger.New(buildLoggerOpts(cfg)...)
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}
	defer log.Close()

	if !log.Enabled(context.TODO(), slog.LevelDebug) {
		t.Error("expected debug to be enabled")
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]logger.OutputFormat{
		"text":  logger.FormatText,
		"TEXT":  logger.FormatText,
		"json":  logger.FormatJSON,
		"other": logger.FormatCustom,
	}
	for in, want := range tests {
		if got := parseFormat(in); got != want {
			t.Errorf("parseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}
