package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gamification-rewards/models"
	"gamification-rewards/repository"
	"gamification-rewards/services"
	"gamification-rewards/utils"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

// LeaderboardSnapshot is the JSON document written for one sort key.
type LeaderboardSnapshot struct {
	SortBy      repository.LeaderboardSort  `json:"sort_by"`
	Date        models.Date                 `json:"date"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Entries     []services.LeaderboardEntry `json:"leaderboard"`
}

// SnapshotExporter publishes the leaderboard for every sort key to object storage.
type SnapshotExporter struct {
	Rewards  *services.RewardService
	Uploader utils.ObjectUploader
	Clock    services.Clock
	Limit    int
	Log      *logrus.Entry
}

func NewSnapshotExporter(rewards *services.RewardService, uploader utils.ObjectUploader, clock services.Clock, limit int, logger *logrus.Logger) *SnapshotExporter {
	return &SnapshotExporter{
		Rewards:  rewards,
		Uploader: uploader,
		Clock:    clock,
		Limit:    limit,
		Log:      logger.WithField("component", "snapshot_exporter"),
	}
}

// SnapshotKeys returns the dated and latest object keys for a sort key.
func SnapshotKeys(sortBy repository.LeaderboardSort, day models.Date) (dated, latest string) {
	prefix := "leaderboards/" + slug.Make(string(sortBy))
	return fmt.Sprintf("%s/%s.json", prefix, day), prefix + "/latest.json"
}

// Export writes one snapshot per sort key. It stops at the first failure.
func (e *SnapshotExporter) Export(ctx context.Context) error {
	day := e.Clock.Today()
	for _, sortBy := range repository.LeaderboardSorts {
		entries, _, err := e.Rewards.Leaderboard(ctx, string(sortBy), e.Limit)
		if err != nil {
			return fmt.Errorf("load %s leaderboard: %w", sortBy, err)
		}

		body, err := json.Marshal(LeaderboardSnapshot{
			SortBy:      sortBy,
			Date:        day,
			GeneratedAt: time.Now().UTC(),
			Entries:     entries,
		})
		if err != nil {
			return fmt.Errorf("encode %s snapshot: %w", sortBy, err)
		}

		dated, latest := SnapshotKeys(sortBy, day)
		for _, key := range []string{dated, latest} {
			url, err := e.Uploader.Upload(ctx, key, body, "application/json")
			if err != nil {
				return err
			}
			e.Log.WithFields(logrus.Fields{
				"sort_by": sortBy,
				"entries": len(entries),
				"url":     url,
			}).Debug("Snapshot uploaded")
		}
	}
	return nil
}
