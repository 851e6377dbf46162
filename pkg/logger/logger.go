// Package logger предоставляет форматирующий логгер поверх log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger — логгер, который передаётся во все компоненты через конструкторы.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	With(args ...any) Logger
}

// SlogLogger реализует Logger через slog.Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger создаёт JSON-логгер в stdout. Уровень берётся из LOG_LEVEL (debug|info|warn|error).
func NewSlogLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
}

func NewSlogLoggerWithWriter(w io.Writer, level slog.Level) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{l: slog.New(h)}
}

// ParseLevel возвращает slog.LevelInfo для пустых и неизвестных значений.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *SlogLogger) Debugf(format string, args ...any) {
	s.log(slog.LevelDebug, nil, format, args...)
}

func (s *SlogLogger) Infof(format string, args ...any) {
	s.log(slog.LevelInfo, nil, format, args...)
}

func (s *SlogLogger) Warnf(format string, args ...any) {
	s.log(slog.LevelWarn, nil, format, args...)
}

func (s *SlogLogger) Errorf(err error, format string, args ...any) {
	s.log(slog.LevelError, err, format, args...)
}

// With возвращает логгер с дополнительными атрибутами (ключ, значение, ...).
func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

func (s *SlogLogger) log(level slog.Level, err error, format string, args ...any) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	if err != nil {
		s.l.Log(ctx, level, msg, slog.String("error", err.Error()))
		return
	}
	s.l.Log(ctx, level, msg)
}

// Nop — логгер, который ничего не пишет. Используется в тестах.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) Debugf(string, ...any)        {}
func (Nop) Infof(string, ...any)         {}
func (Nop) Warnf(string, ...any)         {}
func (Nop) Errorf(error, string, ...any) {}
func (n Nop) With(...any) Logger         { return n }
