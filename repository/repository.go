// Package repository persists user reward state.
//
// Every backend serializes the read-modify-write cycle for a single user id,
// so concurrent updates for the same user never lose an increment.
package repository

import (
	"context"
	"errors"

	"gamification-rewards/models"
)

var (
	// ErrNotFound is returned when no reward row exists for the user id.
	ErrNotFound = errors.New("user reward state not found")

	// ErrSkipWrite may be returned by an update func to end the cycle
	// without writing. The stores treat it as success.
	ErrSkipWrite = errors.New("skip write")
)

// UpdateFunc mutates the loaded state in place. Returning an error aborts the
// write; ErrSkipWrite aborts it silently.
type UpdateFunc func(state *models.UserReward) error

// StateStore is the storage collaborator of the reward engine.
type StateStore interface {
	// Find returns the stored state or ErrNotFound.
	Find(ctx context.Context, userID string) (*models.UserReward, error)

	// Upsert loads the state, creating the default row if absent, applies fn
	// and saves the result, all under one per-user critical section.
	Upsert(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error)

	// Modify is Upsert without creation: a missing user yields ErrNotFound.
	Modify(ctx context.Context, userID string, fn UpdateFunc) (*models.UserReward, error)

	// Leaderboard returns up to limit rows ordered by the sort column
	// descending, ties broken by user id ascending.
	Leaderboard(ctx context.Context, sortBy LeaderboardSort, limit int) ([]models.UserReward, error)
}

// LeaderboardSort is a whitelisted leaderboard ordering column.
type LeaderboardSort string

const (
	SortByTokens LeaderboardSort = "ad_tokens"
	SortByGives  LeaderboardSort = "gives"
)

// LeaderboardSorts lists every supported ordering.
var LeaderboardSorts = []LeaderboardSort{SortByTokens, SortByGives}

// ParseLeaderboardSort validates a user supplied sort key.
func ParseLeaderboardSort(s string) (LeaderboardSort, bool) {
	for _, candidate := range LeaderboardSorts {
		if string(candidate) == s {
			return candidate, true
		}
	}
	return "", false
}

// Column is the storage column backing the sort.
func (s LeaderboardSort) Column() string {
	switch s {
	case SortByGives:
		return "gives"
	default:
		return "ad_tokens"
	}
}

// counter returns the value the sort orders by.
func (s LeaderboardSort) counter(u *models.UserReward) int64 {
	if s == SortByGives {
		return u.Gives
	}
	return u.Tokens
}
