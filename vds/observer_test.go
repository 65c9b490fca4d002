package vds

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapProgressLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	progress := NewZapProgress(zap.New(core))

	progress(Event{Stage: StageCreated, Partition: 2, Path: "run_002.hsf", Frames: 125})
	progress(Event{Stage: StageSkipped, Partition: 3, Path: "run_003.hsf", Frames: 125})
	progress(Event{Stage: StageFailed, Partition: 4, Path: "run_004.hsf", Err: errors.New("disk full")})

	entries := logs.All()
	require.Len(t, entries, 3)

	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, "created", entries[0].Message)
	require.Equal(t, int64(2), entries[0].ContextMap()["partition"])

	require.Equal(t, zap.InfoLevel, entries[1].Level)
	require.Equal(t, "partition skipped", entries[1].Message)

	require.Equal(t, zap.ErrorLevel, entries[2].Level)
	require.Equal(t, "partition failed", entries[2].Message)
	require.Equal(t, "disk full", entries[2].ContextMap()["error"])
}
