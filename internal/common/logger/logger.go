package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	z *zap.Logger
}

var base = newBase()

func newBase() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.MessageKey = "message"
	cfg.DisableStacktrace = true
	z, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return z.With(zap.String("hostname", hostname()))
}

func New(service string) *Logger { return NewWith(base, service) }

// NewWith builds a Logger on top of an existing zap logger (tests use zap.NewNop).
func NewWith(z *zap.Logger, service string) *Logger {
	return &Logger{z: z.With(zap.String("service", service))}
}

func Nop() *Logger { return NewWith(zap.NewNop(), "nop") }

func (l *Logger) log(level zapcore.Level, action string, fields map[string]any, err error) {
	zf := make([]zap.Field, 0, len(fields)+2)
	zf = append(zf, zap.String("action", action))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	if ce := l.z.Check(level, action); ce != nil {
		ce.Write(zf...)
	}
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(zapcore.InfoLevel, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(zapcore.DebugLevel, action, fields, nil) }
func (l *Logger) Warn(action string, err error, fields map[string]any) {
	l.log(zapcore.WarnLevel, action, fields, err)
}
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(zapcore.ErrorLevel, action, fields, err)
}

func (l *Logger) Sync() { _ = l.z.Sync() }

func hostname() string { h, _ := os.Hostname(); return h }
