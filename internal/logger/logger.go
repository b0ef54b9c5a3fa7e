// Package logger provides structured logging for OntoForge using zap.
package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dbsmedya/ontoforge/internal/config"
)

// Logger is a zap.SugaredLogger that keeps its root logger around for Sync.
type Logger struct {
	*zap.SugaredLogger
	root *zap.Logger
}

// New builds a Logger from the logging section of the configuration.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	core := zapcore.NewCore(encoderFor(cfg.Format), sinkFor(cfg), parseLevel(cfg.Level))
	return wrap(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))), nil
}

// NewDefault logs text at info level to stderr, leaving stdout to command output.
func NewDefault() *Logger {
	l, _ := New(&config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"})
	return l
}

// NewNop discards everything.
func NewNop() *Logger {
	return wrap(zap.NewNop())
}

func wrap(root *zap.Logger) *Logger {
	return &Logger{SugaredLogger: root.Sugar(), root: root}
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil || name == "" {
		return zapcore.InfoLevel
	}
	return level
}

func encoderFor(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.SecondsDurationEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// sinkFor resolves the output setting. Anything other than stdout or stderr is a
// file path, rotated by lumberjack and mirrored to stderr.
func sinkFor(cfg *config.LoggingConfig) zapcore.WriteSyncer {
	switch cfg.Output {
	case "stdout":
		return zapcore.Lock(os.Stdout)
	case "", "stderr":
		return zapcore.Lock(os.Stderr)
	}
	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
	return zapcore.NewMultiWriteSyncer(file, zapcore.Lock(os.Stderr))
}

func (l *Logger) with(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...), root: l.root}
}

// WithDocument tags entries with the document being processed.
func (l *Logger) WithDocument(documentID string) *Logger {
	return l.with("document_id", documentID)
}

// WithCandidate tags entries with a tracked candidate.
func (l *Logger) WithCandidate(kind, name string) *Logger {
	return l.with("candidate_kind", kind, "candidate", name)
}

// WithMode tags entries with the discovery mode.
func (l *Logger) WithMode(mode config.Mode) *Logger {
	return l.with("mode", string(mode))
}

// WithFields adds arbitrary fields, in key order.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return l.with(args...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.root.Sync()
}
