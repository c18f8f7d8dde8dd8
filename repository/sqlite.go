package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gamification-rewards/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS user_rewards (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    ad_tokens INTEGER NOT NULL DEFAULT 0,
    streak_days INTEGER NOT NULL DEFAULT 1 CHECK (streak_days >= 1),
    last_active TEXT,
    badges TEXT NOT NULL DEFAULT '[]',
    gives INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_rewards_ad_tokens ON user_rewards(ad_tokens DESC);
CREATE INDEX IF NOT EXISTS idx_user_rewards_gives ON user_rewards(gives DESC);
`

const selectUserRewardSQL = `
SELECT id, user_id, ad_tokens, streak_days, last_active, badges, gives, created_at, updated_at
FROM user_rewards`

// SQLiteStore persists reward state in a local SQLite file.
type SQLiteStore struct {
	sqlDB   *sql.DB
	writeMu sync.Mutex // serializes read-modify-write transactions
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (or creates) the database file and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserReward(row rowScanner) (*models.UserReward, error) {
	var (
		u          models.UserReward
		lastActive sql.NullString
		badges     string
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&u.ID, &u.UserID, &u.Tokens, &u.StreakDays, &lastActive, &badges, &u.Gives, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if lastActive.Valid && lastActive.String != "" {
		d, err := models.ParseDate(lastActive.String)
		if err != nil {
			return nil, err
		}
		u.LastActive = &d
	}
	if err := u.Badges.Scan(badges); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

func (s *SQLiteStore) Find(ctx context.Context, userID string) (*models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := scanUserReward(s.sqlDB.QueryRowContext(ctx, selectUserRewardSQL+` WHERE user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find reward state for %s: %w", userID, err)
	}
	return u, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error) {
	return s.update(ctx, userID, true, fn)
}

func (s *SQLiteStore) Modify(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error) {
	return s.update(ctx, userID, false, fn)
}

func (s *SQLiteStore) update(ctx context.Context, userID string, create bool, fn UpdateFunc) (*models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if create {
		fresh := models.NewUserReward(userID)
		now := toMillis(time.Now())
		badges, err := fresh.Badges.Value()
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_rewards (id, user_id, ad_tokens, streak_days, last_active, badges, gives, created_at, updated_at)
			 VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?)
			 ON CONFLICT(user_id) DO NOTHING`,
			fresh.ID, fresh.UserID, fresh.Tokens, fresh.StreakDays, badges, fresh.Gives, now, now,
		); err != nil {
			return nil, fmt.Errorf("create reward state for %s: %w", userID, err)
		}
	}

	row, err := scanUserReward(tx.QueryRowContext(ctx, selectUserRewardSQL+` WHERE user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load reward state for %s: %w", userID, err)
	}

	if err := fn(row); err != nil {
		if errors.Is(err, ErrSkipWrite) {
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("commit tx: %w", err)
			}
			return row, nil
		}
		return nil, err
	}

	var lastActive any
	if row.LastActive != nil {
		lastActive = row.LastActive.String()
	}
	badges, err := row.Badges.Value()
	if err != nil {
		return nil, err
	}
	row.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE user_rewards
		 SET ad_tokens = ?, streak_days = ?, last_active = ?, badges = ?, gives = ?, updated_at = ?
		 WHERE user_id = ?`,
		row.Tokens, row.StreakDays, lastActive, badges, row.Gives, toMillis(row.UpdatedAt), userID,
	); err != nil {
		return nil, fmt.Errorf("save reward state for %s: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return row, nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, sortBy LeaderboardSort, limit int) ([]models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Column comes from the LeaderboardSort whitelist, never from user input.
	query := fmt.Sprintf(`%s ORDER BY %s DESC, user_id ASC LIMIT ?`, selectUserRewardSQL, sortBy.Column())
	rows, err := s.sqlDB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard by %s: %w", sortBy, err)
	}
	defer rows.Close()

	var out []models.UserReward
	for rows.Next() {
		u, err := scanUserReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}
