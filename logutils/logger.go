package logutils

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	_zapLogger atomic.Pointer[zap.Logger]
	_zapLevel  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// ZapLogger returns the process wide logger. It is built lazily on first use
// with a console encoder writing to stderr.
func ZapLogger() *zap.Logger {
	if logger := _zapLogger.Load(); logger != nil {
		return logger
	}
	_zapLogger.CompareAndSwap(nil, newConsoleLogger(_zapLevel))
	return _zapLogger.Load()
}

// OverrideRootLogger replaces the process wide logger. Used by tests and the
// CLI to redirect output. It is safe to call while other goroutines log.
func OverrideRootLogger(logger *zap.Logger) {
	_zapLogger.Store(logger)
}

// SetLogLevel changes the level of the default logger at runtime.
func SetLogLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	_zapLevel.SetLevel(lvl)
	return nil
}

// ParseLevel accepts zap level names as well as the geth style "eror"/"warn"
// names used in status-go configs.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zap.InfoLevel, nil
	case "eror":
		return zap.ErrorLevel, nil
	case "trace":
		return zap.DebugLevel, nil
	}
	return zapcore.ParseLevel(strings.ToLower(level))
}

func newConsoleLogger(level zap.AtomicLevel) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)
	return zap.New(core, zap.AddCaller())
}
