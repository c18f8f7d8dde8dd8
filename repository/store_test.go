package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gamification-rewards/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type storeFactory func(t *testing.T) StateStore

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) StateStore {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) StateStore {
			return openTempSQLite(t)
		},
		"gorm": func(t *testing.T) StateStore {
			return openTempGorm(t)
		},
	}
}

// openTempGorm runs against TEST_DATABASE_URL in a throwaway schema.
func openTempGorm(t *testing.T) *GormStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	schema := "rewards_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := OpenGorm(dsn, logger)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := admin.DB.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if err := admin.DB.Exec("DROP SCHEMA " + schema + " CASCADE").Error; err != nil {
			t.Errorf("drop schema: %v", err)
		}
		_ = admin.Close()
	})

	store, err := OpenGorm(withSearchPath(dsn, schema), logger)
	if err != nil {
		t.Fatalf("open postgres in schema: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

// withSearchPath adds a search_path runtime parameter to a URL or key=value DSN.
func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}

func TestWithSearchPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn, want string
	}{
		{"postgres://u:p@db/rewards", "postgres://u:p@db/rewards?search_path=s1"},
		{"postgres://u:p@db/rewards?sslmode=disable", "postgres://u:p@db/rewards?sslmode=disable&search_path=s1"},
		{"host=db user=u dbname=rewards", "host=db user=u dbname=rewards search_path=s1"},
	}
	for _, tc := range tests {
		if got := withSearchPath(tc.dsn, "s1"); got != tc.want {
			t.Fatalf("withSearchPath(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}

func openTempSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "rewards.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close sqlite store: %v", err)
		}
	})
	return store
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestStoreUpsertCreatesDefaultState(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx := context.Background()

			got, err := store.Upsert(ctx, "alice", func(*models.UserReward) error { return nil })
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if got.UserID != "alice" || got.ID == "" {
				t.Fatalf("ids = %q/%q", got.UserID, got.ID)
			}
			if got.Tokens != 0 || got.StreakDays != 1 || got.Gives != 0 || got.LastActive != nil || got.Badges.Len() != 0 {
				t.Fatalf("unexpected default state: %+v", got)
			}

			found, err := store.Find(ctx, "alice")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if found.ID != got.ID {
				t.Fatalf("find id = %q, want %q", found.ID, got.ID)
			}
		})
	}
}

func TestStoreUpsertPersistsMutation(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx := context.Background()
			day := models.NewDate(2026, time.October, 19)

			_, err := store.Upsert(ctx, "bob", func(u *models.UserReward) error {
				u.Tokens += 7
				u.Gives = 12
				u.StreakDays = 4
				u.LastActive = &day
				u.Badges.Add("Robux")
				u.Badges.Add("3-day Streak")
				return nil
			})
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}

			found, err := store.Find(ctx, "bob")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if found.Tokens != 7 || found.Gives != 12 || found.StreakDays != 4 {
				t.Fatalf("counters = %d/%d/%d", found.Tokens, found.Gives, found.StreakDays)
			}
			if found.LastActive == nil || !found.LastActive.Equal(day) {
				t.Fatalf("last_active = %v, want %s", found.LastActive, day)
			}
			if !found.Badges.Contains("Robux") || !found.Badges.Contains("3-day Streak") || found.Badges.Len() != 2 {
				t.Fatalf("badges = %v", found.Badges.Names())
			}
		})
	}
}

func TestStoreModifyMissingUser(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx := context.Background()

			called := false
			_, err := store.Modify(ctx, "ghost", func(*models.UserReward) error {
				called = true
				return nil
			})
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("modify error = %v, want %v", err, ErrNotFound)
			}
			if called {
				t.Fatal("update func ran for missing user")
			}
			if _, err := store.Find(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("find error = %v, want %v", err, ErrNotFound)
			}
		})
	}
}

func TestStoreFailedUpdateWritesNothing(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx := context.Background()

			if _, err := store.Upsert(ctx, "carol", func(u *models.UserReward) error {
				u.Gives = 3
				return nil
			}); err != nil {
				t.Fatalf("seed: %v", err)
			}

			boom := errors.New("boom")
			_, err := store.Modify(ctx, "carol", func(u *models.UserReward) error {
				u.Gives = 99
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("modify error = %v, want %v", err, boom)
			}

			_, err = store.Modify(ctx, "carol", func(u *models.UserReward) error {
				u.Gives = 77
				return ErrSkipWrite
			})
			if err != nil {
				t.Fatalf("skip write returned error: %v", err)
			}

			found, err := store.Find(ctx, "carol")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if found.Gives != 3 {
				t.Fatalf("gives = %d, want 3", found.Gives)
			}
		})
	}
}

func TestStoreConcurrentIncrementsAreSerialized(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx := context.Background()

			const workers = 25
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.Upsert(ctx, "dana", func(u *models.UserReward) error {
						u.Gives++
						return nil
					})
					if err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("concurrent upsert: %v", err)
			}

			found, err := store.Find(ctx, "dana")
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if found.Gives != workers {
				t.Fatalf("gives = %d, want %d", found.Gives, workers)
			}
		})
	}
}

func TestStoreLeaderboardOrdering(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx := context.Background()

			seed := []struct {
				user   string
				tokens int64
				gives  int64
			}{
				{"u1", 50, 1},
				{"u2", 10, 30},
				{"u3", 50, 5},
				{"u4", 0, 0},
			}
			for _, s := range seed {
				s := s
				if _, err := store.Upsert(ctx, s.user, func(u *models.UserReward) error {
					u.Tokens = s.tokens
					u.Gives = s.gives
					return nil
				}); err != nil {
					t.Fatalf("seed %s: %v", s.user, err)
				}
			}

			byTokens, err := store.Leaderboard(ctx, SortByTokens, 3)
			if err != nil {
				t.Fatalf("leaderboard tokens: %v", err)
			}
			assertUserOrder(t, byTokens, "u1", "u3", "u2")

			byGives, err := store.Leaderboard(ctx, SortByGives, 10)
			if err != nil {
				t.Fatalf("leaderboard gives: %v", err)
			}
			assertUserOrder(t, byGives, "u2", "u3", "u1", "u4")
		})
	}
}

func assertUserOrder(t *testing.T, rows []models.UserReward, want ...string) {
	t.Helper()

	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if row.UserID != want[i] {
			t.Fatalf("row %d = %q, want %q", i, row.UserID, want[i])
		}
	}
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := factory(t)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := store.Upsert(ctx, "erin", func(*models.UserReward) error { return nil }); !errors.Is(err, context.Canceled) {
				t.Fatalf("upsert error = %v, want %v", err, context.Canceled)
			}
		})
	}
}

func TestParseLeaderboardSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   LeaderboardSort
		wantOK bool
	}{
		{"ad_tokens", SortByTokens, true},
		{"gives", SortByGives, true},
		{"tokens", "", false},
		{"gives; DROP TABLE user_rewards", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseLeaderboardSort(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseLeaderboardSort(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
