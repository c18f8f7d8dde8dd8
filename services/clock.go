package services

import (
	"time"

	"gamification-rewards/models"
)

// Clock supplies the current calendar day. It is injected so streak
// handling can be tested against fixed dates.
type Clock interface {
	Today() models.Date
}

// SystemClock reads the wall clock and takes the calendar day in Location.
// A nil Location means UTC.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() models.Date {
	return models.DateOf(time.Now(), c.Location)
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() models.Date

func (f ClockFunc) Today() models.Date { return f() }
