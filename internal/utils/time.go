package utils

import (
	"fmt"
	"time"

	"github.com/yndrdev/totalrecover/internal/constants"
)

const dayDuration = 24 * time.Hour

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	// Return the date at midnight in the specified timezone
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// civilMidnight returns midnight UTC of t's calendar date as read in t's own location.
// UTC has no DST, so differences between two civil midnights are whole days.
func civilMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayFor returns the recovery day of asOf relative to surgeryDate: the number of
// midnights between the two calendar dates, negative before surgery.
//
// Each argument is read as a calendar date in its own location; callers convert
// asOf into the patient's timezone first (see Clock).
func DayFor(surgeryDate, asOf time.Time) int {
	return int(civilMidnight(asOf).Sub(civilMidnight(surgeryDate)) / dayDuration)
}

// DateFor returns the calendar date of recovery day n, at midnight in the
// surgery date's location.
func DateFor(surgeryDate time.Time, n int) time.Time {
	y, m, d := surgeryDate.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, surgeryDate.Location())
}

// Clock computes recovery days for "now" in a fixed timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock reading the system time in loc.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// NewClockForTimezone returns a clock for an IANA timezone name.
func NewClockForTimezone(timezone string) (*Clock, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return NewClock(loc), nil
}

// WithNow returns a copy of the clock that reads time from fn.
func (c *Clock) WithNow(fn func() time.Time) *Clock {
	return &Clock{loc: c.loc, now: fn}
}

// Location returns the clock's timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the clock's timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current recovery day for a patient whose surgery is on surgeryDate.
func (c *Clock) Today(surgeryDate time.Time) int {
	return DayFor(surgeryDate, c.Now())
}

// ParseSurgeryDate parses a YYYY-MM-DD surgery date at midnight in the clock's timezone.
func (c *Clock) ParseSurgeryDate(dateStr string) (time.Time, error) {
	t, err := ParseDateInLocation(dateStr, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid surgery date %q: %w", dateStr, err)
	}
	return t, nil
}
