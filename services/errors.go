package services

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidUserID    = errors.New("user_id is required")
	ErrInvalidCount     = errors.New("count must be positive")
	ErrInvalidTokens    = errors.New("ad_tokens_earned must not be negative")
	ErrInvalidSort      = errors.New("invalid sort_by parameter. Must be 'ad_tokens' or 'gives'")
	ErrInvalidLimit     = errors.New("limit must be between 1 and 100")
	ErrInvalidBadgeName = errors.New("badge_name must be 1 to 100 characters")
	ErrCounterOverflow  = errors.New("counter would exceed its maximum value")
)

// IsInvalidInput reports whether err is a caller precondition failure.
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrInvalidUserID,
		ErrInvalidCount,
		ErrInvalidTokens,
		ErrInvalidSort,
		ErrInvalidLimit,
		ErrInvalidBadgeName,
		ErrCounterOverflow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
