// Package zap adapts go.uber.org/zap to the domain Logger contract.
package zap

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ochairo/specimen/internal/domain/interfaces"
)

// Logger implements interfaces.Logger with a JSON zap core
type Logger struct {
	zap *zap.Logger
}

// NewLogger creates a logger writing JSON lines to stderr at the given level
func NewLogger(level string) (*Logger, error) {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(level string, w io.Writer) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		lvl,
	)

	return &Logger{zap: zap.New(core)}, nil
}

// ParseLevel maps debug, info, warn and error to zap levels
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", level)
	}
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields ...interfaces.Field) *Logger {
	return &Logger{zap: l.zap.With(toZapFields(fields)...)}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.zap.Debug(msg, toZapFields(fields)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.zap.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.zap.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.zap.Error(msg, toZapFields(fields)...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func toZapFields(fields []interfaces.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
