// Package leapsec models the UTC timeline as a sequence of continuous-time
// segments separated by leap seconds.
//
// A segment covers whole days of 86400 seconds, except for its last day
// which is longer or shorter by the segment's leap seconds. Instants are
// counted in elapsed seconds since 1970-01-01 00:00:00 UTC including all
// leap seconds inserted since.
package leapsec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ngrash/leaptime/internal/cursor"
	"github.com/ngrash/leaptime/internal/intmath"
	"github.com/ngrash/leaptime/internal/unixtime"
	"github.com/ngrash/leaptime/timescale"
)

const secondsPerDay = 86400

var (
	// ErrUnsorted is returned for records that are not in ascending order
	// or that place two leap seconds on the same day.
	ErrUnsorted = errors.New("leapsec: records not in ascending order")
	// ErrCorrection is returned when consecutive counts differ by more
	// than one leap second.
	ErrCorrection = errors.New("leapsec: invalid leap-second correction")
	// ErrUnknownFormat is returned for files that are neither TZif nor a
	// leapseconds file.
	ErrUnknownFormat = errors.New("leapsec: unknown file format")
)

// Segment is a stretch of time between two leap seconds.
type Segment struct {
	StartInstant int64 // elapsed seconds at the start of StartDay
	StartDay     int64 // fixed day, days since 1970-01-01
	DurationDays int64
	// LeapSeconds are inserted (or removed, if negative) at the end of
	// the last day of the segment.
	LeapSeconds int8
	// AccumulatedLeapSeconds is the sum of the leap seconds of all
	// preceding segments.
	AccumulatedLeapSeconds int32
}

// EndDay is the first day after the segment.
func (s Segment) EndDay() int64 { return s.StartDay + s.DurationDays }

// EndInstant is the first instant after the segment.
func (s Segment) EndInstant() int64 {
	return s.StartInstant + s.DurationDays*secondsPerDay + int64(s.LeapSeconds)
}

// LastDay is the day that ends with the segment's leap seconds.
func (s Segment) LastDay() int64 { return s.EndDay() - 1 }

// DayLength returns the number of seconds of day, which must be in s.
func (s Segment) DayLength(day int64) int64 {
	if day == s.LastDay() {
		return secondsPerDay + int64(s.LeapSeconds)
	}
	return secondsPerDay
}

// Position tells where a day or instant lies relative to a table.
type Position int

const (
	// BeforeFirst is before the first segment.
	BeforeFirst Position = iota
	// In is within a segment.
	In
	// AfterLast is after the last segment. Lookups in an empty table
	// always end up here.
	AfterLast
)

func (p Position) String() string {
	switch p {
	case BeforeFirst:
		return "BeforeFirst"
	case In:
		return "In"
	case AfterLast:
		return "AfterLast"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Lookup is the result of a table lookup. Segment is the first segment for
// BeforeFirst, the containing one for In and the last one for AfterLast.
// Index is the index of Segment, or -1 for the zero Segment of an empty table.
type Lookup struct {
	Position Position
	Index    int
	Segment  Segment
}

// Record is a leap second as published in leap-second tables: from Unix
// time Unix on, UTC differs from TAI by Count more seconds than at the
// start of 1972.
type Record struct {
	Unix  int64 // Unix time of the first second after the leap second
	Count int32 // cumulative leap seconds
}

// Table is an immutable sequence of contiguous segments.
// The zero value is an empty table describing UTC without leap seconds.
type Table struct {
	segments []Segment
	records  []Record
	expires  int64 // fixed day
	// hasExpires reports whether expires is known.
	hasExpires bool
}

// FromRecords builds a table from records sorted by Unix time. The first
// segment starts at 1970-01-01. The table never expires.
func FromRecords(records []Record) (*Table, error) {
	t := &Table{
		segments: make([]Segment, 0, len(records)),
		records:  append([]Record(nil), records...),
	}
	var (
		startInstant int64
		startDay     int64
		prevCount    int32
	)
	for i, r := range records {
		endDay, _ := unixtime.Day(r.Unix)
		if endDay <= startDay {
			return nil, fmt.Errorf("%w: record %d at %d does not end a day after %d", ErrUnsorted, i, r.Unix, startDay)
		}
		leap, ok := intmath.Convert[int8](int64(r.Count) - int64(prevCount))
		if !ok || leap < -1 || leap > 1 {
			return nil, fmt.Errorf("%w: record %d changes count from %d to %d", ErrCorrection, i, prevCount, r.Count)
		}
		s := Segment{
			StartInstant:           startInstant,
			StartDay:               startDay,
			DurationDays:           endDay - startDay,
			LeapSeconds:            leap,
			AccumulatedLeapSeconds: prevCount,
		}
		t.segments = append(t.segments, s)
		startInstant, startDay, prevCount = s.EndInstant(), s.EndDay(), r.Count
	}
	return t, nil
}

// WithExpiry returns a copy of t that expires on the given fixed day.
func (t *Table) WithExpiry(day int64) *Table {
	c := *t
	c.expires, c.hasExpires = day, true
	return &c
}

// Expires returns the first day on which t is no longer known to be
// accurate.
func (t *Table) Expires() (day int64, ok bool) {
	return t.expires, t.hasExpires
}

// Len returns the number of segments.
func (t *Table) Len() int { return len(t.segments) }

// Segments returns a copy of the segments of t.
func (t *Table) Segments() []Segment {
	return append([]Segment(nil), t.segments...)
}

// Records returns a copy of the records t was built from.
func (t *Table) Records() []Record {
	return append([]Record(nil), t.records...)
}

// ByDay locates the segment containing the fixed day.
func (t *Table) ByDay(day int64) Lookup {
	return t.search(func(s Segment) bool { return day < s.EndDay() }, func(s Segment) bool { return day < s.StartDay })
}

// BySecond locates the segment containing the instant, given in elapsed
// seconds since the epoch.
func (t *Table) BySecond(instant int64) Lookup {
	return t.search(func(s Segment) bool { return instant < s.EndInstant() }, func(s Segment) bool { return instant < s.StartInstant })
}

// LookupInstant locates the segment containing i. Instants finer than
// seconds are floored to whole seconds.
func LookupInstant[S timescale.Scale](t *Table, i timescale.Instant[S]) Lookup {
	return t.BySecond(i.FloorSeconds())
}

// search finds the first segment that ends after the key. Segments are
// half-open, so the key lies in it unless it is before its start.
func (t *Table) search(endsAfter, startsAfter func(Segment) bool) Lookup {
	n := len(t.segments)
	if n == 0 {
		return Lookup{Position: AfterLast, Index: -1}
	}
	i := sort.Search(n, func(i int) bool { return endsAfter(t.segments[i]) })
	switch {
	case i == n:
		return Lookup{Position: AfterLast, Index: n - 1, Segment: t.segments[n-1]}
	case startsAfter(t.segments[i]):
		// Segments are contiguous, so this only happens before the first.
		return Lookup{Position: BeforeFirst, Index: 0, Segment: t.segments[0]}
	default:
		return Lookup{Position: In, Index: i, Segment: t.segments[i]}
	}
}

// Cursor returns a cursor over the segments of t positioned at the result
// of a lookup: before the first segment, on the containing segment or
// after the last segment.
func (t *Table) Cursor(l Lookup) cursor.Cursor[Segment] {
	switch l.Position {
	case BeforeFirst:
		return cursor.NewAtStart(t.segments)
	case In:
		return cursor.NewAt(t.segments, l.Index)
	default:
		return cursor.NewAtEnd(t.segments)
	}
}

// AccumulatedAt returns the leap seconds inserted before the fixed day.
// Days after the last segment include the leap seconds of the last segment.
func (t *Table) AccumulatedAt(day int64) int32 {
	l := t.ByDay(day)
	switch l.Position {
	case BeforeFirst:
		return 0
	case In:
		return l.Segment.AccumulatedLeapSeconds
	default:
		return l.Segment.AccumulatedLeapSeconds + int32(l.Segment.LeapSeconds)
	}
}

// LeapSecondsBetween returns the sum of leap seconds inserted at the end of
// the days in [from, to).
func (t *Table) LeapSecondsBetween(from, to int64) int64 {
	if from >= to {
		return 0
	}
	c := t.Cursor(t.ByDay(from))
	if c.AtStart() {
		c.Next()
	}
	var n int64
	for s, ok := c.Current(); ok && s.LastDay() < to; s, ok = c.Next() {
		n += int64(s.LeapSeconds)
	}
	return n
}

// Equal reports whether t and u describe the same timeline and expiry.
func (t *Table) Equal(u *Table) bool {
	if t.hasExpires != u.hasExpires || t.expires != u.expires || len(t.segments) != len(u.segments) {
		return false
	}
	for i := range t.segments {
		if t.segments[i] != u.segments[i] {
			return false
		}
	}
	return true
}
