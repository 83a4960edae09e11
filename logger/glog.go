package logger

import (
	"github.com/golang/glog"
)

// GlogLogger implements Logger on top of github.com/golang/glog, the
// backend this module uses by default.
type GlogLogger struct {
	depth int
}

// NewGlogLogger returns the default glog-backed Logger.
func NewGlogLogger() Logger {
	return &GlogLogger{depth: 1}
}

func (l *GlogLogger) Debug(msg string, args ...any) {
	glog.InfoDepth(l.depth, format(msg, args...))
}

func (l *GlogLogger) Info(msg string, args ...any) {
	glog.InfoDepth(l.depth, format(msg, args...))
}

func (l *GlogLogger) Warn(msg string, args ...any) {
	glog.WarningDepth(l.depth, format(msg, args...))
}

func (l *GlogLogger) Error(msg string, args ...any) {
	glog.ErrorDepth(l.depth, format(msg, args...))
}

func (l *GlogLogger) Fatal(msg string, args ...any) {
	glog.FatalDepth(l.depth, format(msg, args...))
}
