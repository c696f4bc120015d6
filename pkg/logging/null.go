package logging

import "context"

// Discard drops every entry; it is what components fall back to when they
// are given a nil Logger
var Discard Logger = NullLogger{}

// NullLogger implements Logger without output
type NullLogger struct{}

// NewNullLogger returns Discard
func NewNullLogger() Logger {
	return Discard
}

func (NullLogger) Debug(context.Context, string, Fields)        {}
func (NullLogger) Info(context.Context, string, Fields)         {}
func (NullLogger) Warn(context.Context, string, Fields)         {}
func (NullLogger) Error(context.Context, string, error, Fields) {}

func (l NullLogger) WithFields(Fields) Logger { return l }

// Enabled is false for every level, so callers skip building debug output
func (NullLogger) Enabled(Level) bool { return false }

func (NullLogger) Close() error { return nil }
