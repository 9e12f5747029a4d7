// Package logging builds the zap loggers used across collabedit.
// Components receive a *zap.Logger at construction; nothing in this
// module logs through a package-level singleton.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production logger. When debug is true the level is
// lowered to Debug and caller annotations are kept.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Nop returns a logger that discards everything. Used by tests and as
// the fallback when a caller passes nil.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns log unchanged unless it is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
