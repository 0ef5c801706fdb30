// Package logger holds the process-wide zap logger. Initialize may be called
// more than once; each call replaces the sinks of the previous one.
package logger

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	current atomic.Pointer[zap.Logger]

	// mu serializes Initialize and guards files.
	mu    sync.Mutex
	files []*os.File
)

func init() {
	current.Store(zap.NewNop())
}

type Configuration struct {
	LogFile   string
	ErrorFile string
	Level     string
	Console   bool
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "timestamp",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Initialize builds a logger from cfg and installs it. On error the previous
// logger stays in place and nothing is leaked.
func Initialize(cfg Configuration) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var (
		cores  []zapcore.Core
		opened []*os.File
	)
	fileCore := func(path string, enab zapcore.LevelEnabler) error {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		opened = append(opened, f)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), enab))
		return nil
	}

	if cfg.LogFile != "" {
		if err := fileCore(cfg.LogFile, level); err != nil {
			return err
		}
	}
	if cfg.ErrorFile != "" {
		if err := fileCore(cfg.ErrorFile, zapcore.ErrorLevel); err != nil {
			closeAll(opened)
			return err
		}
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level))
	}

	install(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)), opened)
	return nil
}

// install swaps in l, then flushes and closes the files owned by the logger
// it replaced.
func install(l *zap.Logger, owned []*os.File) {
	mu.Lock()
	defer mu.Unlock()

	prev := current.Swap(l)
	_ = prev.Sync()
	closeAll(files)
	files = owned
}

func closeAll(fs []*os.File) {
	for _, f := range fs {
		_ = f.Close()
	}
}

// With returns a child logger that adds fields to every entry.
func With(fields ...zap.Field) *zap.Logger {
	return current.Load().WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	_ = current.Load().Sync()
}

func Debug(message string, fields ...zap.Field) {
	current.Load().Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	current.Load().Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	current.Load().Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	current.Load().Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	current.Load().Fatal(message, fields...)
}
