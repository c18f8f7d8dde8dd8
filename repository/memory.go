package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gamification-rewards/models"
)

// MemoryStore keeps reward state in process memory.
// Used for tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]*models.UserReward
	locks map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[string]*models.UserReward),
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex guarding one user's read-modify-write cycle.
func (s *MemoryStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *MemoryStore) Find(ctx context.Context, userID string) (*models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return row.Clone(), nil
}

func (s *MemoryStore) Upsert(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error) {
	return s.update(ctx, userID, true, fn)
}

func (s *MemoryStore) Modify(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error) {
	return s.update(ctx, userID, false, fn)
}

func (s *MemoryStore) update(ctx context.Context, userID string, create bool, fn UpdateFunc) (*models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	current, ok := s.rows[userID]
	if !ok && create {
		current = models.NewUserReward(userID)
		now := time.Now().UTC()
		current.CreatedAt, current.UpdatedAt = now, now
		s.rows[userID] = current
	}
	s.mu.Unlock()
	if current == nil {
		return nil, ErrNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		if errors.Is(err, ErrSkipWrite) {
			return current.Clone(), nil
		}
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.rows[userID] = working
	s.mu.Unlock()
	return working.Clone(), nil
}

func (s *MemoryStore) Leaderboard(ctx context.Context, sortBy LeaderboardSort, limit int) ([]models.UserReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	rows := make([]models.UserReward, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, *row.Clone())
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		a, b := sortBy.counter(&rows[i]), sortBy.counter(&rows[j])
		if a != b {
			return a > b
		}
		return rows[i].UserID < rows[j].UserID
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
