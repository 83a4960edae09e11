package logger

import "go.uber.org/zap"

// ZapLogger implements Logger on top of go.uber.org/zap for callers who
// want structured field-based logging instead of glog's printf style.
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger. Pass nil to use zap.NewNop().
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{l: l}
}

func (z *ZapLogger) Debug(msg string, args ...any) { z.l.Sugar().Debugw(msg, args...) }
func (z *ZapLogger) Info(msg string, args ...any)  { z.l.Sugar().Infow(msg, args...) }
func (z *ZapLogger) Warn(msg string, args ...any)  { z.l.Sugar().Warnw(msg, args...) }
func (z *ZapLogger) Error(msg string, args ...any) { z.l.Sugar().Errorw(msg, args...) }
func (z *ZapLogger) Fatal(msg string, args ...any) { z.l.Sugar().Fatalw(msg, args...) }
