package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
	}{
		{"debug", "debug", LevelDebug},
		{"info", "info", LevelInfo},
		{"warn", "warn", LevelWarn},
		{"Warning alias", "warning", LevelWarn},
		{"error", "error", LevelError},
		{"Case insensitive", "DEBUG", LevelDebug},
		{"Unknown falls back to info", "verbose", LevelInfo},
		{"Empty falls back to info", "", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Run("DEBUG overrides LOG_LEVEL", func(t *testing.T) {
		t.Setenv("DEBUG", "true")
		t.Setenv("LOG_LEVEL", "error")
		if got := levelFromEnv(); got != LevelDebug {
			t.Errorf("levelFromEnv() = %v, want debug", got)
		}
	})

	t.Run("LOG_LEVEL used when DEBUG unset", func(t *testing.T) {
		t.Setenv("DEBUG", "")
		t.Setenv("LOG_LEVEL", "warn")
		if got := levelFromEnv(); got != LevelWarn {
			t.Errorf("levelFromEnv() = %v, want warn", got)
		}
	})
}

func TestLogLevelConstants(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("Log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestZapLevelRoundTrip(t *testing.T) {
	for _, l := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if got := fromZapLevel(l.zapLevel()); got != l {
			t.Errorf("round trip of %v gave %v", l, got)
		}
	}
}

func TestLoggingFunctionsWriteToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	SetLevel(LevelDebug)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("debug %d", 1)
	Info("info %s", "two")
	Warn("warn")
	Error("error %v", "four")
	Access("GET /api/queue 200")

	entries := logs.All()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	want := []struct {
		level zapcore.Level
		msg   string
	}{
		{zapcore.DebugLevel, "debug 1"},
		{zapcore.InfoLevel, "info two"},
		{zapcore.WarnLevel, "warn"},
		{zapcore.ErrorLevel, "error four"},
		{zapcore.InfoLevel, "GET /api/queue 200"},
	}
	for i, w := range want {
		if entries[i].Level != w.level || entries[i].Message != w.msg {
			t.Errorf("entry %d = (%v, %q), want (%v, %q)", i, entries[i].Level, entries[i].Message, w.level, w.msg)
		}
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	SetLevel(LevelWarn)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	if IsDebugEnabled() {
		t.Error("IsDebugEnabled should be false at warn level")
	}

	Debug("hidden")
	Info("hidden")
	Warn("shown")

	if GetLevel() != LevelWarn {
		t.Errorf("GetLevel() = %v, want warn", GetLevel())
	}
	if logs.FilterMessage("hidden").Len() != 0 {
		t.Error("messages below warn should be filtered")
	}
	if logs.FilterMessage("shown").Len() != 1 {
		t.Error("expected warn message to be recorded")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
