package services

import "gamification-rewards/models"

// UpdateStreak applies one daily check-in to a streak.
//
//   - first check-in (lastActive nil): streak 1
//   - same day: unchanged, so repeated check-ins never double count
//   - the day after lastActive: streak + 1
//   - any other gap, including lastActive in the future: reset to 1
//
// The returned last-active date is always today.
func UpdateStreak(lastActive *models.Date, today models.Date, currentStreak int) (int, models.Date) {
	switch {
	case lastActive == nil:
		return 1, today
	case lastActive.Equal(today):
		return currentStreak, today
	case lastActive.AddDays(1).Equal(today):
		return currentStreak + 1, today
	default:
		return 1, today
	}
}
