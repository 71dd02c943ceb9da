// Package logging builds the zap loggers used by the orchestrator, the
// process supervisor, and logger-aware analyzers.
//
// Loggers should be injected and named, e.g. lggr.Named("process").
// Tests should use Test or TestObserved rather than New.
package logging

import (
	"io"
	"os"
	"testing"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Config controls the CLI logger.
type Config struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Output defaults to stderr.
	Output io.Writer
	// NoColor disables level colours even on a terminal.
	NoColor bool
}

// New builds a console logger writing to cfg.Output.
func New(cfg Config) *zap.SugaredLogger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.NameKey = "logger"
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if !cfg.NoColor && IsTerminal(w) {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Test returns a debug-level logger that writes to tb.
func Test(tb testing.TB) *zap.SugaredLogger {
	tb.Helper()
	return zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()
}

// TestObserved returns a test logger and the entries it records at lvl or above.
func TestObserved(tb testing.TB, lvl zapcore.Level) (*zap.SugaredLogger, *observer.ObservedLogs) {
	tb.Helper()
	oCore, logs := observer.New(lvl)
	observe := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, oCore)
	})
	return zaptest.NewLogger(tb, zaptest.WrapOptions(observe)).Sugar(), logs
}
