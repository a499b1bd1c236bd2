package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	mu          sync.RWMutex
	sugar       *zap.SugaredLogger
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	initOnce    sync.Once
)

// ParseLevel converts a level name into a LogLevel. Unknown names map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// levelFromEnv reads DEBUG first, then LOG_LEVEL
func levelFromEnv() LogLevel {
	if debug := os.Getenv("DEBUG"); debug != "" {
		switch strings.ToLower(debug) {
		case "1", "true", "yes", "on":
			return LevelDebug
		}
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(l zapcore.Level) LogLevel {
	switch {
	case l <= zapcore.DebugLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

// newLogger builds the process logger. LOG_FORMAT=json selects the production
// encoder, anything else the console encoder.
func newLogger() *zap.SugaredLogger {
	var cfg zap.Config
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = atomicLevel
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: falling back to no-op logger: %v\n", err)
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func logger() *zap.SugaredLogger {
	initOnce.Do(func() {
		atomicLevel.SetLevel(levelFromEnv().zapLevel())
		mu.Lock()
		if sugar == nil {
			sugar = newLogger()
		}
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// SetLogger replaces the underlying zap logger. The shared level set with
// SetLevel still applies. Tests use it together with zaptest/observer.
func SetLogger(l *zap.Logger) {
	initOnce.Do(func() {})
	mu.Lock()
	sugar = l.WithOptions(zap.AddCallerSkip(1), zap.IncreaseLevel(atomicLevel)).Sugar()
	mu.Unlock()
}

// SetLevel changes the minimum level at runtime
func SetLevel(l LogLevel) {
	initOnce.Do(func() {
		mu.Lock()
		if sugar == nil {
			sugar = newLogger()
		}
		mu.Unlock()
	})
	atomicLevel.SetLevel(l.zapLevel())
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	logger()
	return fromZapLevel(atomicLevel.Level())
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	logger().Debugf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logger().Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logger().Errorf(format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	logger().Fatalf(format, args...)
}

// Access writes an HTTP access log line at info level.
func Access(line string) {
	logger().Info(line)
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = logger().Sync()
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
