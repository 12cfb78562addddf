package ffi

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/crabhttp/client"
	"github.com/wippyai/crabhttp/lasterror"
	"github.com/wippyai/crabhttp/resource"
)

// DefaultLogPath is used by InitializeLogging when path is empty.
const DefaultLogPath = "rest_client.log"

var (
	logOnce sync.Once
	logErr  error
	logBase atomic.Pointer[zap.Logger]
)

// InitializeLogging installs a JSON file logger at debug level into every
// package of the module. Only the first call has an effect; later calls
// return its result.
func InitializeLogging(path string) error {
	logOnce.Do(func() {
		if path == "" {
			path = DefaultLogPath
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
		cfg.Sampling = nil

		l, err := cfg.Build()
		if err != nil {
			logErr = err
			return
		}
		logBase.Store(l)
		installLogger(l)
		l.Info("logging initialized", zap.String("path", path))
	})
	return logErr
}

// BaseLogger returns the logger installed by InitializeLogging, or a no-op
// logger before it ran.
func BaseLogger() *zap.Logger {
	if l := logBase.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func installLogger(l *zap.Logger) {
	SetLogger(l.Named("ffi"))
	lasterror.SetLogger(l.Named("lasterror"))
	client.SetLogger(l.Named("client"))
	resource.SetLogger(l.Named("resource"))
}
