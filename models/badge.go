package models

import "github.com/gosimple/slug"

// BadgeCategory names the counter a badge rule is measured against.
type BadgeCategory string

const (
	BadgeCategoryGive   BadgeCategory = "give"   // measured against verified gives
	BadgeCategoryStreak BadgeCategory = "streak" // measured against consecutive active days
)

// BadgeRule is one static entry of the badge catalog.
type BadgeRule struct {
	Name      string        `json:"name"`
	Code      string        `json:"code"` // e.g., "first-giver", "30-day-champion"
	Category  BadgeCategory `json:"category"`
	Threshold int64         `json:"threshold"`
}

func newBadgeRule(name string, category BadgeCategory, threshold int64) BadgeRule {
	return BadgeRule{
		Name:      name,
		Code:      slug.Make(name),
		Category:  category,
		Threshold: threshold,
	}
}

// badgeCatalog is ascending by threshold within each category.
// Evaluation reports unlocks in this order.
var badgeCatalog = []BadgeRule{
	// Give-based badges
	newBadgeRule("First Giver", BadgeCategoryGive, 1),
	newBadgeRule("V-Buck", BadgeCategoryGive, 5),
	newBadgeRule("Robux", BadgeCategoryGive, 10),
	newBadgeRule("Generous Giver", BadgeCategoryGive, 20),
	newBadgeRule("Philanthropist", BadgeCategoryGive, 50),
	newBadgeRule("Ultimate Giver", BadgeCategoryGive, 100),

	// Streak-based badges
	newBadgeRule("3-day Streak", BadgeCategoryStreak, 3),
	newBadgeRule("5-day Streak", BadgeCategoryStreak, 5),
	newBadgeRule("10-day Streak", BadgeCategoryStreak, 10),
	newBadgeRule("30-day Champion", BadgeCategoryStreak, 30),
}

// BadgeCatalog returns a copy of the fixed badge catalog in evaluation order.
func BadgeCatalog() []BadgeRule {
	out := make([]BadgeRule, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}
