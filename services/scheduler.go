// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// StartSnapshotScheduler runs task every interval until the returned scheduler
// is shut down. A run that is still going when the next one is due is skipped.
func StartSnapshotScheduler(ctx context.Context, interval time.Duration, runNow bool, task func(context.Context) error, logger *logrus.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("snapshot interval must be positive, got %s", interval)
	}
	log := logger.WithField("component", "scheduler")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	opts := []gocron.JobOption{
		gocron.WithName("leaderboard-snapshot"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if runNow {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			started := time.Now()
			if err := task(ctx); err != nil {
				log.WithError(err).Error("Leaderboard snapshot failed")
				return
			}
			log.WithField("took", time.Since(started).String()).Info("Leaderboard snapshot exported")
		}),
		opts...,
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule snapshot job: %w", err)
	}

	sched.Start()
	return sched, nil
}
