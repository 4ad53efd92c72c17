package logutils

import "go.uber.org/zap"

// LogOnPanic logs a panic with its stack trace and re-panics. Defer it first
// thing in every goroutine the harness starts.
func LogOnPanic() {
	if err := recover(); err != nil {
		ZapLogger().Error("panic in goroutine", zap.Any("error", err), zap.Stack("stacktrace"))
		panic(err)
	}
}
