package vds

import (
	"go.uber.org/zap"
)

// Stage identifies a point in a partition's lifecycle.
type Stage string

const (
	StagePlanned  Stage = "planned"
	StageCreating Stage = "creating"
	StageCreated  Stage = "created"
	StageSkipped  Stage = "skipped"
	StageFailed   Stage = "failed"
	StageVerified Stage = "verified"
)

// Event describes progress on one partition.
type Event struct {
	Stage     Stage
	Partition int
	Path      string
	Frames    int64
	Err       error
}

// ProgressFunc receives events as work proceeds. Implementations must be
// safe for concurrent use; the materializer calls them from worker
// goroutines.
type ProgressFunc func(Event)

// NewZapProgress returns a ProgressFunc that logs each event through the
// given logger.
func NewZapProgress(log *zap.Logger) ProgressFunc {
	return func(e Event) {
		fields := []zap.Field{
			zap.Int("partition", e.Partition),
			zap.String("path", e.Path),
			zap.Int64("frames", e.Frames),
		}
		switch e.Stage {
		case StageFailed:
			log.Error("partition failed", append(fields, zap.Error(e.Err))...)
		case StageSkipped:
			log.Info("partition skipped", fields...)
		default:
			log.Info(string(e.Stage), fields...)
		}
	}
}
