// services/reward_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"gamification-rewards/models"
	"gamification-rewards/repository"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	maxBadgeNameLength      = 100
)

// RewardService runs the reward engine against stored state.
// Each mutating call is one serialized read-modify-write cycle in the store.
type RewardService struct {
	store repository.StateStore
	clock Clock
	log   *logrus.Entry
}

func NewRewardService(store repository.StateStore, clock Clock, logger *logrus.Logger) *RewardService {
	return &RewardService{
		store: store,
		clock: clock,
		log:   logger.WithField("component", "rewards"),
	}
}

// CheckInResult is returned by LogWatch.
type CheckInResult struct {
	State         *models.UserReward
	TokensAdded   int64
	StreakChanged bool // streak length differs from before the check-in
	Badges        BadgeEvaluation
}

// GiveResult is returned by RecordGive.
type GiveResult struct {
	UserID       string
	Added        int64
	NewGiveCount int64
	Badges       BadgeEvaluation
}

// RewardsReport summarizes a user's counters and badge progress.
type RewardsReport struct {
	CurrentTokens     int64          `json:"current_tokens"`
	CurrentStreak     int            `json:"current_streak"`
	CurrentGives      int64          `json:"current_gives"`
	NewBadgesUnlocked []string       `json:"new_badges_unlocked"`
	NextGiveBadge     *BadgeProgress `json:"next_give_badge"`
	NextStreakBadge   *BadgeProgress `json:"next_streak_badge"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Tokens int64  `json:"tokens"`
	Gives  int64  `json:"gives"`
	Rank   int    `json:"rank"`
}

func normalizeUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidUserID
	}
	return userID, nil
}

// addCounter adds delta to a non-negative counter without wrapping past MaxInt64.
func addCounter(current, delta int64) (int64, error) {
	if delta > math.MaxInt64-current {
		return current, ErrCounterOverflow
	}
	return current + delta, nil
}

func translateStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// LogWatch records a verified ad watch: adds tokens, counts the day toward the
// streak and unlocks any badges the counters now reach. Creates the user on
// first contact.
func (s *RewardService) LogWatch(ctx context.Context, userID string, tokensEarned int64) (*CheckInResult, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if tokensEarned < 0 {
		return nil, ErrInvalidTokens
	}

	// One reading of the day for the whole call.
	today := s.clock.Today()

	result := &CheckInResult{TokensAdded: tokensEarned}
	state, err := s.store.Upsert(ctx, userID, func(st *models.UserReward) error {
		tokens, err := addCounter(st.Tokens, tokensEarned)
		if err != nil {
			return err
		}
		st.Tokens = tokens

		streak, lastActive := UpdateStreak(st.LastActive, today, st.StreakDays)
		result.StreakChanged = streak != st.StreakDays
		st.StreakDays = streak
		st.LastActive = &lastActive

		result.Badges = EvaluateBadges(st.Gives, st.StreakDays, st.Badges)
		st.Badges = result.Badges.Badges
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("log watch for %s: %w", userID, err)
	}
	result.State = state

	s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"tokens_added": tokensEarned,
		"streak":       state.StreakDays,
		"last_active":  state.LastActive.String(),
	}).Debug("Ad watch logged")
	s.logUnlocks(userID, result.Badges.NewlyUnlocked)

	return result, nil
}

// RecordGive adds count verified gives to an existing user and unlocks badges.
func (s *RewardService) RecordGive(ctx context.Context, userID string, count int64) (*GiveResult, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	var eval BadgeEvaluation
	state, err := s.store.Modify(ctx, userID, func(st *models.UserReward) error {
		gives, err := addCounter(st.Gives, count)
		if err != nil {
			return err
		}
		st.Gives = gives
		eval = EvaluateBadges(st.Gives, st.StreakDays, st.Badges)
		st.Badges = eval.Badges
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"added_gives": count,
		"gives":       state.Gives,
	}).Info("Give recorded")
	s.logUnlocks(userID, eval.NewlyUnlocked)

	return &GiveResult{
		UserID:       userID,
		Added:        count,
		NewGiveCount: state.Gives,
		Badges:       eval,
	}, nil
}

// CheckRewards evaluates the catalog against stored counters, persists any new
// unlocks and reports progress toward the next badge in each category.
func (s *RewardService) CheckRewards(ctx context.Context, userID string) (*RewardsReport, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	var eval BadgeEvaluation
	state, err := s.store.Modify(ctx, userID, func(st *models.UserReward) error {
		eval = EvaluateBadges(st.Gives, st.StreakDays, st.Badges)
		if len(eval.NewlyUnlocked) == 0 {
			return repository.ErrSkipWrite
		}
		st.Badges = eval.Badges
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	s.logUnlocks(userID, eval.NewlyUnlocked)

	return &RewardsReport{
		CurrentTokens:     state.Tokens,
		CurrentStreak:     state.StreakDays,
		CurrentGives:      state.Gives,
		NewBadgesUnlocked: eval.NewlyUnlocked,
		NextGiveBadge:     eval.NextGiveBadge,
		NextStreakBadge:   eval.NextStreakBadge,
	}, nil
}

// UnlockBadge awards a badge by name outside the catalog rules (sponsor or
// manual awards). It returns the stored (trimmed) name and reports false when
// the user already holds the badge.
func (s *RewardService) UnlockBadge(ctx context.Context, userID, badgeName string) (string, bool, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return "", false, err
	}
	badgeName = strings.TrimSpace(badgeName)
	if badgeName == "" || utf8.RuneCountInString(badgeName) > maxBadgeNameLength {
		return "", false, ErrInvalidBadgeName
	}

	unlocked := false
	_, err = s.store.Modify(ctx, userID, func(st *models.UserReward) error {
		if !st.Badges.Add(badgeName) {
			return repository.ErrSkipWrite
		}
		unlocked = true
		return nil
	})
	if err != nil {
		return "", false, translateStoreError(err)
	}

	if unlocked {
		s.log.WithFields(logrus.Fields{"user_id": userID, "badge": badgeName}).Info("Badge unlocked manually")
	}
	return badgeName, unlocked, nil
}

// GetUserStats returns the stored state of an existing user.
func (s *RewardService) GetUserStats(ctx context.Context, userID string) (*models.UserReward, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	state, err := s.store.Find(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return state, nil
}

// Leaderboard ranks users by ad_tokens (default) or gives.
func (s *RewardService) Leaderboard(ctx context.Context, sortBy string, limit int) ([]LeaderboardEntry, repository.LeaderboardSort, error) {
	if sortBy == "" {
		sortBy = string(repository.SortByTokens)
	}
	sort, ok := repository.ParseLeaderboardSort(sortBy)
	if !ok {
		return nil, "", ErrInvalidSort
	}
	if limit < 1 || limit > MaxLeaderboardLimit {
		return nil, "", ErrInvalidLimit
	}

	rows, err := s.store.Leaderboard(ctx, sort, limit)
	if err != nil {
		return nil, "", err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntry{
			UserID: row.UserID,
			Tokens: row.Tokens,
			Gives:  row.Gives,
			Rank:   i + 1,
		}
	}
	return entries, sort, nil
}

// Catalog returns the fixed badge catalog.
func (s *RewardService) Catalog() []models.BadgeRule {
	return models.BadgeCatalog()
}

func (s *RewardService) logUnlocks(userID string, names []string) {
	for _, name := range names {
		s.log.WithFields(logrus.Fields{"user_id": userID, "badge": name}).Info("Badge awarded")
	}
}
