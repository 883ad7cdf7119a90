package allocwrap

import (
	"go.uber.org/zap"
)

var logger = zap.NewNop()

// UseLogger use logger. Adapters only log allocation failures, at debug level.
func UseLogger(zapLogger *zap.Logger) {
	logger = zapLogger.Named("allocwrap")
}
