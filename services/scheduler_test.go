package services

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestStartSnapshotSchedulerRunsImmediately(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var runs atomic.Int32
	done := make(chan struct{}, 1)
	sched, err := StartSnapshotScheduler(context.Background(), time.Hour, true, func(context.Context) error {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
		return nil
	}, logger)
	if err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	defer sched.Shutdown()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot task did not run")
	}
}

func TestStartSnapshotSchedulerRejectsInterval(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if _, err := StartSnapshotScheduler(context.Background(), 0, false, func(context.Context) error { return nil }, logger); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
