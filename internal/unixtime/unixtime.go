// Package unixtime converts civil dates and times to Unix timestamps.
package unixtime

import (
	"time"

	"github.com/ngrash/leaptime/gregorian"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// FromDateTime converts a date and time to a Unix timestamp, i.e. the number
// of seconds since 1970-01-01 00:00:00 UTC. It ignores leap seconds but
// respects leap years and assumes the proleptic Gregorian calendar.
//
// The time of day is not range checked, so 23:59:60 yields the first second
// of the following day. The date must exist.
func FromDateTime(year int, month time.Month, day, hour, minute, second int) (int64, error) {
	d, err := gregorian.FromDate(year, month, day)
	if err != nil {
		return 0, err
	}
	sod := int64(hour)*secondsPerHour + int64(minute)*secondsPerMinute + int64(second)
	return d.ToDay()*secondsPerDay + sod, nil
}

// Day returns the fixed day and second of day of a Unix timestamp.
func Day(unix int64) (day, secondOfDay int64) {
	day, secondOfDay = unix/secondsPerDay, unix%secondsPerDay
	if secondOfDay < 0 {
		day--
		secondOfDay += secondsPerDay
	}
	return day, secondOfDay
}
