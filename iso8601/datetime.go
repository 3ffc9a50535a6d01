// Package iso8601 implements leap-second aware date-times in the ISO 8601
// calendar between 0000-01-01 and 9999-12-31.
//
// A DateTime stores its date as a gregorian.NormalizedDate and its time as a
// second of day, which is 86400 during a positive leap second. Calendar
// arithmetic never silently crosses a boundary: adding a month to January 31
// yields February 28 (or 29) plus a carry of days, and adding a day to a leap
// second yields 23:59:59 plus a carry of seconds. The caller decides whether
// to apply the carry, drop it or treat it as an error.
//
// Which days have leap seconds is decided by the Chronology a DateTime is
// bound to. Builders without an explicit chronology use Default.
package iso8601

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/ngrash/leaptime/gregorian"
)

const (
	secondsPerDay    = 86400
	nanosPerSecond   = 1_000_000_000
	lastMinuteStart  = 86340 // 23:59:00
	lastMinuteOfDay  = 1439
	minutesPerDay    = 1440
	minFixedDay      = -719528 // 0000-01-01
	maxFixedDay      = 2932896 // 9999-12-31
	minYear, maxYear = 0, 9999
)

// Bit layout of a packed date-time. The high word holds the precision and
// the coarse date fields, the low word the rest.
const (
	quadrenniumBits = 5
	centuryBits     = 2
	cycleBits       = 5
	precisionBits   = 4

	centuryShift   = quadrenniumBits
	cycleShift     = centuryShift + centuryBits
	precisionShift = cycleShift + cycleBits

	// cycleBias makes the cycle of 0000-01-01 zero.
	cycleBias = 6

	nanosBits = 30
	sodBits   = 17
	dayBits   = 9
	yearBits  = 2

	sodShift  = nanosBits
	dayShift  = sodShift + sodBits
	yearShift = dayShift + dayBits
)

func mask(bits uint) uint64 { return 1<<bits - 1 }

// DateTime is a point on the UTC time line with a precision, an informative
// UTC offset and the chronology it was built with. DateTime values are
// immutable; all arithmetic returns new values.
//
// The zero value is not a valid date-time. Use a Builder, FromInstant or
// Unpack.
type DateTime struct {
	hi     uint16
	lo     uint64
	offset int16 // minutes east of UTC
	chron  *Chronology
}

// newDateTime packs the fields. They must be valid.
func newDateTime(c *Chronology, p Precision, date gregorian.NormalizedDate, sod, nanos int64, offset int16) DateTime {
	hi := uint16(p)<<precisionShift |
		uint16(int(date.Cycle())+cycleBias)<<cycleShift |
		uint16(date.Century())<<centuryShift |
		uint16(date.Quadrennium())
	lo := uint64(date.YearOfQuadrennium())<<yearShift |
		uint64(date.DayOfYear())<<dayShift |
		uint64(sod)<<sodShift |
		uint64(nanos)
	return DateTime{hi: hi, lo: lo, offset: offset, chron: c}
}

// with returns d with the date and second of day replaced.
func (d DateTime) with(date gregorian.NormalizedDate, sod int64) DateTime {
	return newDateTime(d.chron, d.Precision(), date, sod, int64(d.nanos()), d.offset)
}

// atLeast returns d with its precision raised to p if it is coarser.
func (d DateTime) atLeast(p Precision) DateTime {
	if d.Precision() >= p {
		return d
	}
	d.hi = d.hi&^uint16(mask(precisionBits)<<precisionShift) | uint16(p)<<precisionShift
	return d
}

func (d DateTime) parts() (cycle int8, century, quadrennium, year uint8, day uint16) {
	cycle = int8(uint64(d.hi)>>cycleShift&mask(cycleBits)) - cycleBias
	century = uint8(uint64(d.hi) >> centuryShift & mask(centuryBits))
	quadrennium = uint8(uint64(d.hi) & mask(quadrenniumBits))
	year = uint8(d.lo >> yearShift & mask(yearBits))
	day = uint16(d.lo >> dayShift & mask(dayBits))
	return
}

// Date returns the date of d.
func (d DateTime) Date() gregorian.NormalizedDate {
	date, err := gregorian.FromParts(d.parts())
	if err != nil {
		panic(fmt.Sprintf("iso8601: corrupt date-time: %v", err))
	}
	return date
}

func (d DateTime) sod() int64    { return int64(d.lo >> sodShift & mask(sodBits)) }
func (d DateTime) nanos() uint32 { return uint32(d.lo & mask(nanosBits)) }

// chronology returns the chronology of d, Default for the zero value.
func (d DateTime) chronology() *Chronology {
	if d.chron == nil {
		return Default()
	}
	return d.chron
}

// Chronology returns the chronology d is bound to.
func (d DateTime) Chronology() *Chronology { return d.chronology() }

// Precision returns the finest field d was given with.
func (d DateTime) Precision() Precision {
	return Precision(uint64(d.hi) >> precisionShift & mask(precisionBits))
}

// FixedDay returns the number of days between 1970-01-01 and d's date.
func (d DateTime) FixedDay() int64 { return d.Date().ToDay() }

func (d DateTime) Year() int { return d.Date().Year() }

func (d DateTime) Month() time.Month { return d.Date().Month() }

func (d DateTime) Day() int { return d.Date().Day() }

// Hour returns the hour of day in [0, 23].
func (d DateTime) Hour() int { return int(min(d.sod()/3600, 23)) }

// Minute returns the minute of the hour in [0, 59].
func (d DateTime) Minute() int {
	if sod := d.sod(); sod < lastMinuteStart {
		return int(sod % 3600 / 60)
	}
	return 59
}

// Second returns the second of the minute. It is 60 (or 61) during a
// positive leap second.
func (d DateTime) Second() int {
	if sod := d.sod(); sod < lastMinuteStart {
		return int(sod % 60)
	}
	return int(d.sod() - lastMinuteStart)
}

// SecondOfDay returns the seconds since midnight, including the leap
// second of the day if it has one.
func (d DateTime) SecondOfDay() int64 { return d.sod() }

// NanosecondOfSecond returns the fraction of the second in nanoseconds.
func (d DateTime) NanosecondOfSecond() int { return int(d.nanos()) }

func (d DateTime) Millisecond() int { return int(d.nanos()) / 1_000_000 }

func (d DateTime) Microsecond() int { return int(d.nanos()) / 1_000 % 1_000 }

func (d DateTime) Nanosecond() int { return int(d.nanos()) % 1_000 }

// OffsetMinutes returns the UTC offset d was given with. The offset is kept
// for display only; all fields of d are in UTC.
func (d DateTime) OffsetMinutes() int { return int(d.offset) }

// WithOffset returns d with the UTC offset replaced.
func (d DateTime) WithOffset(minutes int) (DateTime, error) {
	if minutes <= -24*60 || minutes >= 24*60 {
		return DateTime{}, fmt.Errorf("%w: offset of %d minutes", ErrInvalidDateTime, minutes)
	}
	d.offset = int16(minutes)
	return d, nil
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o on the time line.
func (d DateTime) Compare(o DateTime) int {
	if c := cmp.Compare(d.secondInstant(), o.secondInstant()); c != 0 {
		return c
	}
	return cmp.Compare(d.nanos(), o.nanos())
}

// Equal reports whether d and o denote the same point in time.
func (d DateTime) Equal(o DateTime) bool { return d.Compare(o) == 0 }

// secondInstant is Instant without the policy check.
func (d DateTime) secondInstant() int64 {
	return d.chronology().secondInstant(d.FixedDay(), d.sod())
}

// String formats d as an ISO 8601 date-time down to its precision, for
// example 2016-12-31T23:59:60.5Z.
func (d DateTime) String() string {
	var b strings.Builder
	p := d.Precision()
	year, month, day := d.Date().ToDate()
	fmt.Fprintf(&b, "%04d", year)
	if p >= Months {
		fmt.Fprintf(&b, "-%02d", int(month))
	}
	if p >= Weeks {
		fmt.Fprintf(&b, "-%02d", day)
	}
	if p < Hours {
		return b.String()
	}
	fmt.Fprintf(&b, "T%02d", d.Hour())
	if p >= Minutes {
		fmt.Fprintf(&b, ":%02d", d.Minute())
	}
	if p >= Seconds {
		fmt.Fprintf(&b, ":%02d", d.Second())
	}
	if n := p.subsecondDigits(); n > 0 {
		frac := fmt.Sprintf("%09d", d.nanos())
		b.WriteString("." + frac[:n])
	}
	switch off := int(d.offset); {
	case off == 0:
		b.WriteString("Z")
	case off < 0:
		fmt.Fprintf(&b, "-%02d:%02d", -off/60, -off%60)
	default:
		fmt.Fprintf(&b, "+%02d:%02d", off/60, off%60)
	}
	return b.String()
}

// PackedSize is the length of the binary form of a DateTime.
const PackedSize = 10

// Pack returns the 80-bit binary form of d: precision, date, second of day
// and nanoseconds. Offset and chronology are not included.
func (d DateTime) Pack() [PackedSize]byte {
	var b [PackedSize]byte
	binary.BigEndian.PutUint16(b[:2], d.hi)
	binary.BigEndian.PutUint64(b[2:], d.lo)
	return b
}

// Unpack is the inverse of Pack. The date-time is bound to c, or to Default
// if c is nil, and validated against it.
func Unpack(c *Chronology, b [PackedSize]byte) (DateTime, error) {
	if c == nil {
		c = Default()
	}
	d := DateTime{
		hi:    binary.BigEndian.Uint16(b[:2]),
		lo:    binary.BigEndian.Uint64(b[2:]),
		chron: c,
	}
	if p := d.Precision(); p > Nanoseconds {
		return DateTime{}, fmt.Errorf("%w: precision %d", ErrInvalidDateTime, uint8(p))
	}
	if d.lo>>(yearShift+yearBits) != 0 {
		return DateTime{}, fmt.Errorf("%w: reserved bits set", ErrInvalidDateTime)
	}
	date, err := gregorian.FromParts(d.parts())
	if err != nil {
		return DateTime{}, fmt.Errorf("%w: %w", ErrInvalidDateTime, err)
	}
	day := date.ToDay()
	if err := checkBounds(day); err != nil {
		return DateTime{}, err
	}
	if sod := d.sod(); sod >= c.dayLength(day) {
		return DateTime{}, fmt.Errorf("%w: second %d of %v", ErrInvalidDateTime, sod, date)
	}
	if d.nanos() >= nanosPerSecond {
		return DateTime{}, fmt.Errorf("%w: %d nanoseconds", ErrInvalidDateTime, d.nanos())
	}
	return d, nil
}

func checkBounds(day int64) error {
	if day < minFixedDay || day > maxFixedDay {
		return fmt.Errorf("%w: fixed day %d", ErrDateTimeOutOfBounds, day)
	}
	return nil
}
