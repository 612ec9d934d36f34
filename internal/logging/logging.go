// Package logging provides the logging sink passed into each build phase.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures a Logger.
type Options struct {
	Verbose     bool
	Trace       bool
	Tracepoints []string  // variant ids to trace; empty traces every variant
	Progress    io.Writer // receives the in-place progress line; nil disables it
}

// Logger routes phase messages to zap according to the run flags.
type Logger struct {
	z           *zap.Logger
	verbose     bool
	trace       bool
	tracepoints map[string]struct{}
	progress    io.Writer
	progressed  bool
}

// New wraps z with the given options.
func New(z *zap.Logger, opts Options) *Logger {
	l := &Logger{
		z:        z,
		verbose:  opts.Verbose,
		trace:    opts.Trace,
		progress: opts.Progress,
	}
	if len(opts.Tracepoints) > 0 {
		l.tracepoints = make(map[string]struct{}, len(opts.Tracepoints))
		for _, id := range opts.Tracepoints {
			l.tracepoints[id] = struct{}{}
		}
	}
	return l
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(zap.NewNop(), Options{})
}

// NewZap builds the console logger used by the command line tool.
// Output goes to stderr so stdout stays free for the progress line.
func NewZap(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Info logs a message that is always shown.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.z.Info(msg, fields...)
}

// Verbose logs a message only when verbose output was requested.
func (l *Logger) Verbose(msg string, fields ...zap.Field) {
	if l.verbose {
		l.z.Debug(msg, fields...)
	}
}

// Tracing reports whether variantID is a tracepoint of this run.
func (l *Logger) Tracing(variantID string) bool {
	if !l.trace {
		return false
	}
	if l.tracepoints == nil {
		return true
	}
	_, ok := l.tracepoints[variantID]
	return ok
}

// Trace logs a message about variantID when it is traced.
func (l *Logger) Trace(variantID, msg string, fields ...zap.Field) {
	if !l.Tracing(variantID) {
		return
	}
	l.z.Debug(msg, append([]zap.Field{zap.String("variant", variantID)}, fields...)...)
}

// Warn logs a warning. Warnings are never suppressed.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.z.Warn(msg, fields...)
}

// Error logs an error.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.z.Error(msg, fields...)
}

// Progress rewrites the progress line when verbose output is on.
func (l *Logger) Progress(records, variants int) {
	if !l.verbose || l.progress == nil {
		return
	}
	fmt.Fprintf(l.progress, "\rRecords ... %08d - Variants ... %08d", records, variants)
	l.progressed = true
}

// EndProgress terminates the progress line, if one was written.
func (l *Logger) EndProgress() {
	if l.progressed {
		fmt.Fprintln(l.progress)
		l.progressed = false
	}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	// stderr sync fails on some terminals; nothing useful to do about it
	_ = l.z.Sync()
}
