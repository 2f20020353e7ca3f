// Package log is the process-wide structured logger. Call sites pass a message
// followed by alternating key/value pairs.
package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop().Sugar()

// Configure replaces the global logger. level is one of trace, debug, info,
// warn or error; format is console or json.
func Configure(level, format string) {
	cfg := zap.NewProductionConfig()
	if !strings.EqualFold(format, "json") {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.OutputPaths = []string{"stdout"}
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: building logger: %v\n", err)
		return
	}
	logger = l.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Trace(msg string, keysAndValues ...any) { logger.Debugw(msg, keysAndValues...) }

func Debug(msg string, keysAndValues ...any) { logger.Debugw(msg, keysAndValues...) }

func Info(msg string, keysAndValues ...any) { logger.Infow(msg, keysAndValues...) }

func Warn(msg string, keysAndValues ...any) { logger.Warnw(msg, keysAndValues...) }

func Error(msg string, keysAndValues ...any) { logger.Errorw(msg, keysAndValues...) }

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func Sync() {
	_ = logger.Sync()
}
