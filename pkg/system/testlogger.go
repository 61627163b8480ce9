package system

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a sugared logger that writes through t.Log, so output
// only shows up for failing or verbose tests.
func NewTestLogger(t testing.TB) *zap.SugaredLogger {
	return zaptest.NewLogger(t, zaptest.Level(zapcore.DebugLevel)).Sugar()
}

// NewObservedLogger returns a sugared logger together with the entries it records
// at or above level. Tests use it to assert on notification outcome logs.
func NewObservedLogger(level zapcore.Level) (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core).Sugar(), logs
}
