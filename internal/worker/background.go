package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Go runs task detached from the caller with its own timeout. The outcome,
// including a recovered panic, is logged and never returned.
func Go(logger *zap.Logger, name string, timeout time.Duration, task func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		started := time.Now()

		err := run(ctx, task)
		fields := []zap.Field{zap.String("task", name), zap.Duration("elapsed", time.Since(started))}
		if err != nil {
			logger.Warn("background task failed", append(fields, zap.Error(err))...)
			return
		}
		logger.Info("background task completed", fields...)
	}()
}

func run(ctx context.Context, task func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}
