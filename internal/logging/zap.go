// file: internal/logging/zap.go
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names accepted by SetupDefaultLogger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Options controls how the zap backend is built.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Output receives JSON log lines. Defaults to os.Stderr; stdout carries protocol traffic.
	Output io.Writer
	// File, when set, adds a rotating log file.
	File string
}

// zapLogger adapts a zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

// WithContext attaches a request id when one is present on the context.
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return &zapLogger{sugar: l.sugar.With("request_id", id)}
	}
	return l
}

func (l *zapLogger) WithField(key string, value any) Logger {
	return &zapLogger{sugar: l.sugar.With(key, value)}
}

type requestIDKey struct{}

// ContextWithRequestID returns a context carrying a request id picked up by WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

var atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn, "warning":
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the level of every logger built by SetupLogger.
func SetLevel(level string) {
	atomicLevel.SetLevel(parseLevel(level))
}

// IsDebugEnabled reports whether debug messages are currently emitted.
func IsDebugEnabled() bool {
	return atomicLevel.Enabled(zapcore.DebugLevel)
}

// NewZapLogger builds a Logger backed by zap with a JSON encoder.
func NewZapLogger(opts Options) Logger {
	atomicLevel.SetLevel(parseLevel(opts.Level))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(out), atomicLevel),
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    100, // MB
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}),
			atomicLevel,
		))
	}

	core := zapcore.NewTee(cores...)
	return &zapLogger{sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
}

// SetupLogger builds a zap-backed logger from opts and installs it as the default.
func SetupLogger(opts Options) Logger {
	l := NewZapLogger(opts)
	SetDefaultLogger(l)
	return l
}

// SetupDefaultLogger installs a stderr JSON logger at the given level.
func SetupDefaultLogger(level string) Logger {
	return SetupLogger(Options{Level: level})
}

// InitLogging installs a JSON logger writing to w.
func InitLogging(level string, w io.Writer) Logger {
	return SetupLogger(Options{Level: level, Output: w})
}
