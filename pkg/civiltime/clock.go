package civiltime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	appErrors "github.com/noah-isme/workshop-availability-api/pkg/errors"
)

// MinutesPerDay bounds every Clock value.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time of day with minute precision, stored as minutes since midnight.
type Clock int

// NewClock builds a Clock from hour and minute components.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time of day %02d:%02d", hour, minute))
	}
	return Clock(hour*60 + minute), nil
}

// ParseClock parses "HH:MM" (a single digit hour is tolerated).
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q, expected HH:MM", raw))
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q, expected HH:MM", raw))
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q, expected HH:MM", raw))
	}
	return NewClock(hour, minute)
}

// MustParseClock is ParseClock for literals known to be valid.
func MustParseClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add shifts the clock by d; the result may leave the day and must be checked with Valid.
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

// Valid reports whether c is inside [00:00, 24:00).
func (c Clock) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

// String renders "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(raw string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(raw))
	if err != nil || !d.IsValid() {
		return civil.Date{}, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return d, nil
}

// Weekday returns the day of week of a calendar date.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// Within reports whether d lies in the inclusive range [start, end].
func Within(d, start, end civil.Date) bool {
	return !d.Before(start) && !d.After(end)
}
