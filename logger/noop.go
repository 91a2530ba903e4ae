package logger

import "go.uber.org/zap"

// NewNoop returns a Logger that discards everything. It serves as the
// default collaborator when callers do not provide a logger.
func NewNoop() Logger {
	return &logger{SugaredLogger: zap.NewNop().Sugar()}
}
