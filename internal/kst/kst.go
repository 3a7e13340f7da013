// Package kst maps Korea Standard Time calendar days and wall-clock times to
// absolute instants.
//
// Korea has not observed daylight saving time since 1988, so the zone is a
// fixed UTC+9 offset and no transition logic exists here.
package kst

import (
	"errors"
	"fmt"
	"time"
)

// Offset is the fixed KST offset from UTC.
const Offset = 9 * time.Hour

// Location is the fixed-offset zone used for every local computation.
var Location = time.FixedZone("KST", int(Offset/time.Second))

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date; use YYYY-MM-DD")

// ErrInvalidClock is returned for times that are not HH:MM or 24:00.
var ErrInvalidClock = errors.New("invalid time; use HH:MM")

// Date is a KST calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, Location)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the KST calendar day containing t.
func DateOf(t time.Time) Date {
	y, m, d := t.In(Location).Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current KST calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Midnight returns 00:00 KST of the day.
func (d Date) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, Location)
}

// Bounds returns [00:00, 24:00) of the day as absolute instants.
func (d Date) Bounds() (start, end time.Time) {
	start = d.Midnight()
	return start, start.Add(24 * time.Hour)
}

// Contains reports whether t falls inside the day.
func (d Date) Contains(t time.Time) bool {
	start, end := d.Bounds()
	return !t.Before(start) && t.Before(end)
}

// AddDays returns the day n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Midnight().AddDate(0, 0, n))
}

// Clock is a wall-clock offset from local midnight. 24:00 is valid and means
// the following midnight.
type Clock time.Duration

// EndOfDay is the 24:00 clock.
const EndOfDay = Clock(24 * time.Hour)

// ParseClock parses HH:MM, accepting 24:00 as end of day.
func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return EndOfDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	mins := int(time.Duration(c) / time.Minute)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// On returns the absolute instant of the clock on day d.
func (c Clock) On(d Date) time.Time {
	return d.Midnight().Add(time.Duration(c))
}

// HHMM formats t as a KST wall-clock HH:MM.
func HHMM(t time.Time) string {
	return t.In(Location).Format("15:04")
}
