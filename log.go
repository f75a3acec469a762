package scyjava

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package's logger.
// Call this before starting the JVM to capture startup diagnostics.
func SetLogger(l *zap.Logger) {
	logger = l
}

// SetVerbose configures a console logger at the given verbosity and installs
// it as the package logger. Level 0 is quiet (warnings and errors only),
// 1 is informational, and 2 or higher enables debug output of environment
// construction and conversion dispatch details.
func SetVerbose(level int) {
	cfg := zap.NewDevelopmentConfig()
	switch {
	case level <= 0:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case level == 1:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return
	}
	SetLogger(l)
}
