package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	l    *zap.Logger
	once sync.Once
)

// Get returns the process-wide logger, building it on first use.
func Get() *zap.Logger {
	once.Do(func() {
		var err error
		l, err = zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
	})
	return l
}

// SetForTesting replaces the global logger, used by tests.
func SetForTesting(logger *zap.Logger) {
	Get()
	l = logger
}
