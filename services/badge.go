package services

import "gamification-rewards/models"

// BadgeProgress points at the nearest badge not yet unlocked in a category.
type BadgeProgress struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Needed    int64  `json:"needed"` // threshold minus the current counter
	Threshold int64  `json:"threshold"`
}

// BadgeEvaluation is the outcome of running the catalog against a user's counters.
type BadgeEvaluation struct {
	NewlyUnlocked   []string        `json:"new_badges_unlocked"`
	NextGiveBadge   *BadgeProgress  `json:"next_give_badge"`
	NextStreakBadge *BadgeProgress  `json:"next_streak_badge"`
	Badges          models.BadgeSet `json:"badges"`
}

// EvaluateBadges checks every catalog rule against the counters.
// Rules met and not already unlocked are reported in catalog order and added
// to the returned set; the input set is left untouched and nothing is removed.
func EvaluateBadges(gives int64, streakDays int, unlocked models.BadgeSet) BadgeEvaluation {
	catalog := models.BadgeCatalog()
	eval := BadgeEvaluation{
		NewlyUnlocked: []string{},
		Badges:        unlocked.Clone(),
	}

	for _, rule := range catalog {
		if !meetsThreshold(rule, gives, streakDays) {
			continue
		}
		if eval.Badges.Add(rule.Name) {
			eval.NewlyUnlocked = append(eval.NewlyUnlocked, rule.Name)
		}
	}

	// The unlock pass runs first, so every rule still missing is above its counter.
	eval.NextGiveBadge = nextBadge(catalog, models.BadgeCategoryGive, gives, eval.Badges)
	eval.NextStreakBadge = nextBadge(catalog, models.BadgeCategoryStreak, int64(streakDays), eval.Badges)
	return eval
}

func meetsThreshold(rule models.BadgeRule, gives int64, streakDays int) bool {
	switch rule.Category {
	case models.BadgeCategoryGive:
		return gives >= rule.Threshold
	case models.BadgeCategoryStreak:
		return int64(streakDays) >= rule.Threshold
	}
	return false
}

// nextBadge picks the smallest-threshold rule of the category that is not owned.
// Ties keep catalog order.
func nextBadge(catalog []models.BadgeRule, category models.BadgeCategory, current int64, owned models.BadgeSet) *BadgeProgress {
	var next *models.BadgeRule
	for i := range catalog {
		rule := &catalog[i]
		if rule.Category != category || owned.Contains(rule.Name) {
			continue
		}
		if next == nil || rule.Threshold < next.Threshold {
			next = rule
		}
	}
	if next == nil {
		return nil
	}
	return &BadgeProgress{
		Name:      next.Name,
		Code:      next.Code,
		Needed:    next.Threshold - current,
		Threshold: next.Threshold,
	}
}
