package iso8601

import (
	"fmt"
	"time"

	"github.com/ngrash/leaptime/gregorian"
	"github.com/ngrash/leaptime/leapsec"
)

// Builder collects the fields of a date-time. The precision of the result is
// the finest field set. Fields between the year and the precision must be
// set; Build panics if one is missing.
//
//	dt, err := iso8601.NewBuilder().
//		Year(2016).Month(time.December).Day(31).
//		Hour(23).Minute(59).Second(60).
//		Build()
type Builder struct {
	chron     *Chronology
	precision Precision
	set       uint16 // bit p is set if the field with precision p was given

	year, day, hour, minute, second int
	month                           time.Month
	milli, micro, nano              int
	offsetHour, offsetMinute        int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) field(p Precision) *Builder {
	b.set |= 1 << p
	b.precision = max(b.precision, p)
	return b
}

func (b *Builder) has(p Precision) bool { return b.set&(1<<p) != 0 }

// Chronology binds the result to c instead of Default.
func (b *Builder) Chronology(c *Chronology) *Builder {
	b.chron = c
	return b
}

func (b *Builder) Year(year int) *Builder {
	b.year = year
	return b.field(Years)
}

func (b *Builder) Month(month time.Month) *Builder {
	b.month = month
	return b.field(Months)
}

func (b *Builder) Day(day int) *Builder {
	b.day = day
	return b.field(Days)
}

func (b *Builder) Hour(hour int) *Builder {
	b.hour = hour
	return b.field(Hours)
}

func (b *Builder) Minute(minute int) *Builder {
	b.minute = minute
	return b.field(Minutes)
}

// Second sets the second of the minute. 60 is valid in the last minute of a
// day with a positive leap second.
func (b *Builder) Second(second int) *Builder {
	b.second = second
	return b.field(Seconds)
}

func (b *Builder) Millisecond(ms int) *Builder {
	b.milli = ms
	return b.field(Milliseconds)
}

func (b *Builder) Microsecond(us int) *Builder {
	b.micro = us
	return b.field(Microseconds)
}

func (b *Builder) Nanosecond(ns int) *Builder {
	b.nano = ns
	return b.field(Nanoseconds)
}

// OffsetHour sets the hours of the UTC offset. It does not change the
// precision and defaults to zero.
func (b *Builder) OffsetHour(h int) *Builder {
	b.offsetHour = h
	return b
}

// OffsetMinute sets the minutes of the UTC offset. The sign follows the
// offset hour.
func (b *Builder) OffsetMinute(m int) *Builder {
	b.offsetMinute = m
	return b
}

// Build validates the fields and returns the date-time. Errors wrap
// ErrInvalidDateTime or, for years outside 0..9999, ErrDateTimeOutOfBounds.
func (b *Builder) Build() (DateTime, error) {
	if !b.has(Years) {
		panic("iso8601: no year provided")
	}
	for p := Months; p <= b.precision; p++ {
		if p != Weeks && !b.has(p) {
			panic(fmt.Sprintf("iso8601: precision is %v but no %v provided", b.precision, p))
		}
	}
	c := b.chron
	if c == nil {
		c = Default()
	}

	if b.year < minYear || b.year > maxYear {
		return DateTime{}, fmt.Errorf("%w: year %d", ErrDateTimeOutOfBounds, b.year)
	}
	month, day := time.January, 1
	if b.has(Months) {
		month = b.month
	}
	if b.has(Days) {
		day = b.day
	}
	date, err := gregorian.FromDate(b.year, month, day)
	if err != nil {
		return DateTime{}, fmt.Errorf("%w: %w", ErrInvalidDateTime, err)
	}
	if b.hour < 0 || b.hour > 23 || b.minute < 0 || b.minute > 59 {
		return DateTime{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidDateTime, b.hour, b.minute)
	}
	if b.second < 0 || b.second >= c.minuteLength(date.ToDay(), b.hour, b.minute) {
		return DateTime{}, fmt.Errorf("%w: second %d of %v %02d:%02d", ErrInvalidDateTime, b.second, date, b.hour, b.minute)
	}
	for _, v := range []int{b.milli, b.micro, b.nano} {
		if v < 0 || v > 999 {
			return DateTime{}, fmt.Errorf("%w: fraction %d", ErrInvalidDateTime, v)
		}
	}
	if b.offsetHour < -23 || b.offsetHour > 23 || b.offsetMinute < 0 || b.offsetMinute > 59 {
		return DateTime{}, fmt.Errorf("%w: offset %d:%d", ErrInvalidDateTime, b.offsetHour, b.offsetMinute)
	}
	offset := b.offsetHour*60 + b.offsetMinute
	if b.offsetHour < 0 {
		offset = b.offsetHour*60 - b.offsetMinute
	}

	sod := int64(b.hour*3600 + b.minute*60 + b.second)
	nanos := int64(b.milli*1_000_000 + b.micro*1_000 + b.nano)
	return newDateTime(c, b.precision, date, sod, nanos, int16(offset)), nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() DateTime {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

// minuteLength returns the number of seconds in the minute. Only the last
// minute of the last day of a segment differs from 60.
func (c *Chronology) minuteLength(day int64, hour, minute int) int {
	if hour != 23 || minute != 59 {
		return 60
	}
	if l := c.table.ByDay(day); l.Position == leapsec.In {
		return int(l.Segment.DayLength(day) - lastMinuteStart)
	}
	return 60
}
