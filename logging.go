package kstate

import (
	"log/slog"
	"os"
)

// logger carries the library's advisory diagnostics: best-effort teardown
// failures, lost commits, and the like. They are not part of the contract.
// Warn level by default so the library stays quiet in normal operation.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelWarn,
}))

// SetLogger replaces the package logger. Pass a logger with a higher level
// threshold to silence the library entirely, or a Debug-level one to watch
// subscriptions and commits go by.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
