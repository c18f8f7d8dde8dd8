package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamification-rewards/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore persists reward state in PostgreSQL through gorm.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// OpenGorm connects to PostgreSQL and routes gorm's own logging through logrus.
func OpenGorm(dsn string, log *logrus.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormStore(db), nil
}

// Migrate creates or updates the user_rewards table.
func (s *GormStore) Migrate() error {
	if err := s.DB.AutoMigrate(&models.UserReward{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Find(ctx context.Context, userID string) (*models.UserReward, error) {
	var row models.UserReward
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find reward state for %s: %w", userID, err)
	}
	return &row, nil
}

func (s *GormStore) Upsert(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error) {
	return s.update(ctx, userID, true, fn)
}

func (s *GormStore) Modify(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error) {
	return s.update(ctx, userID, false, fn)
}

// update runs one read-modify-write cycle in a transaction holding the row lock.
func (s *GormStore) update(ctx context.Context, userID string, create bool, fn UpdateFunc) (*models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *models.UserReward
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if create {
			// Insert the default row unless one exists.
			fresh := models.NewUserReward(userID)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).Create(fresh).Error; err != nil {
				return fmt.Errorf("create reward state for %s: %w", userID, err)
			}
		}

		var row models.UserReward
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock reward state for %s: %w", userID, err)
		}

		if err := fn(&row); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				updated = &row
				return nil
			}
			return err
		}

		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("save reward state for %s: %w", userID, err)
		}
		updated = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormStore) Leaderboard(ctx context.Context, sortBy LeaderboardSort, limit int) ([]models.UserReward, error) {
	var rows []models.UserReward
	err := s.DB.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy.Column()}, Desc: true}).
		Order("user_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard by %s: %w", sortBy, err)
	}
	return rows, nil
}
