package models

import (
	"time"

	"github.com/google/uuid"
)

// UserReward holds the gamification counters for one user (one row per user).
type UserReward struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"` // opaque id supplied by the caller

	// Counters
	Tokens     int64 `gorm:"column:ad_tokens;not null;default:0;index" json:"tokens"`
	StreakDays int   `gorm:"not null;default:1" json:"streak"` // never below 1
	Gives      int64 `gorm:"not null;default:0;index" json:"gives"`

	// LastActive is nil until the first check-in.
	LastActive *Date    `gorm:"type:date" json:"last_active,omitempty"`
	Badges     BadgeSet `gorm:"type:jsonb;not null;default:'[]'" json:"badges"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (UserReward) TableName() string {
	return "user_rewards"
}

// NewUserReward returns the default state created on a user's first interaction.
func NewUserReward(userID string) *UserReward {
	return &UserReward{
		ID:         uuid.NewString(),
		UserID:     userID,
		Tokens:     0,
		StreakDays: 1,
		Gives:      0,
		Badges:     NewBadgeSet(),
	}
}

// Clone returns a deep copy.
func (u *UserReward) Clone() *UserReward {
	out := *u
	if u.LastActive != nil {
		la := *u.LastActive
		out.LastActive = &la
	}
	out.Badges = u.Badges.Clone()
	return &out
}
