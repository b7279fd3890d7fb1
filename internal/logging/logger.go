package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable consulted when no level is given.
// Valid values: "debug", "info", "warn", "error", "silent"
const LogLevelEnvVar = "UBNT_DISCOVER_LOG_LEVEL"

// DefaultLevel is used when neither a flag nor the environment sets a level
const DefaultLevel = "warn"

// rawDumpLimit caps hex and ASCII dumps of datagrams
const rawDumpLimit = 256

// Initialize creates the global logger with the specified level.
// If level is empty, it checks UBNT_DISCOVER_LOG_LEVEL, then DefaultLevel.
// "silent" disables logging entirely.
//
// Output goes to stderr; stdout is reserved for discovery results.
func Initialize(level string) error {
	l, err := New(level)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// New builds a logger without touching the global one
func New(level string) (*zap.Logger, error) {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		level = DefaultLevel
	}

	level = strings.ToLower(strings.TrimSpace(level))
	if level == "silent" || level == "off" {
		return zap.NewNop(), nil
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Silent until Initialize is called, so library use stays quiet
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// RawBytes returns fields describing a datagram: its length plus hex and
// ASCII dumps of the first 256 bytes.
func RawBytes(data []byte) []zap.Field {
	return []zap.Field{
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
		zap.String("ascii", asciiDump(data)),
	}
}

// LogRawBytes logs raw bytes at debug level on l
func LogRawBytes(l *zap.Logger, label string, data []byte) {
	if l == nil {
		l = GetLogger()
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	l.Debug(label, RawBytes(data)...)
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > rawDumpLimit {
		return hex.EncodeToString(data[:rawDumpLimit]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > rawDumpLimit {
		data = data[:rawDumpLimit]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
