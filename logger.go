// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// Logger hooks registered by backends.
var (
	hooksMu sync.Mutex
	hooks   []func(*slog.Logger)
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for upload and all its sub-packages.
// By default, upload produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by upload:
//   - [slog.LevelDebug]: per-batch statistics, staging chunk allocation
//   - [slog.LevelWarn]: timed-out fence waits, failed fence polls
//
// Example:
//
//	upload.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	hooksMu.Lock()
	hs := hooks
	hooksMu.Unlock()
	for _, h := range hs {
		h(l)
	}
}

// Logger returns the current logger used by upload.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// OnSetLogger registers fn to be called with the new logger on every
// SetLogger call, and once immediately with the current one. Backends in
// sub-packages use it to share the logger without an import cycle.
func OnSetLogger(fn func(*slog.Logger)) {
	hooksMu.Lock()
	hooks = append(hooks, fn)
	hooksMu.Unlock()
	fn(Logger())
}

// slogger returns the current package logger.
func slogger() *slog.Logger { return loggerPtr.Load() }
