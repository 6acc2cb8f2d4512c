package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGoLogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	done := make(chan struct{}, 3)
	Go(logger, "ok", time.Second, func(context.Context) error {
		done <- struct{}{}
		return nil
	})
	Go(logger, "fails", time.Second, func(context.Context) error {
		done <- struct{}{}
		return errors.New("smtp down")
	})
	Go(logger, "panics", time.Second, func(context.Context) error {
		done <- struct{}{}
		panic("boom")
	})
	for i := 0; i < 3; i++ {
		<-done
	}

	require.Eventually(t, func() bool { return logs.Len() == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("background task completed").Len())
	assert.Equal(t, 2, logs.FilterMessage("background task failed").Len())
}

func TestGoAppliesTimeout(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Go(zap.New(core), "slow", 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 10*time.Millisecond)
	entry := logs.All()[0]
	assert.Equal(t, "background task failed", entry.Message)
	assert.Equal(t, context.DeadlineExceeded.Error(), entry.ContextMap()["error"])
}
