// Package gregorian implements the proleptic Gregorian calendar on top of a
// normalized date representation.
//
// A NormalizedDate splits a day count into 400-year cycles, centuries,
// quadrennia, years and days, with years starting on March 1. With that
// shift every leap day is the last day of the last year of its period, so
// decomposition needs no leap-year branches: at each level the quotient is
// capped and the extra day stays in the remainder.
package gregorian

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ngrash/leaptime/internal/intmath"
)

var (
	// ErrInvalidDate is returned for month or day values that do not exist.
	ErrInvalidDate = errors.New("gregorian: invalid date")
	// ErrOutOfRange is returned when a date leaves the representable range
	// [MinFixedDay, MaxFixedDay].
	ErrOutOfRange = errors.New("gregorian: date out of range")
)

const (
	DaysPerCycle       = 146097 // 97*366 + 303*365
	DaysPerCentury     = 36524  // 24*366 + 76*365
	DaysPerQuadrennium = 1461   // 3*365 + 366
	DaysPerYear        = 365

	// EpochOffset is the fixed day of 2000-03-01, the origin of normalized dates.
	EpochOffset = 11017

	// MinFixedDay and MaxFixedDay bound the days a NormalizedDate can hold.
	MinFixedDay = EpochOffset + math.MinInt8*DaysPerCycle
	MaxFixedDay = EpochOffset + (math.MaxInt8+1)*DaysPerCycle - 1

	// Days since March 1 at which January 1 of the following civil year starts.
	januaryFirst = 306
)

// NormalizedDate is a day in the proleptic Gregorian calendar.
// The zero value is 2000-03-01.
type NormalizedDate struct {
	cycle       int8   // 400-year cycles since 2000-03-01
	century     uint8  // 0..3
	quadrennium uint8  // 0..24
	year        uint8  // 0..3
	day         uint16 // 0..365, days since March 1
}

// FromDay returns the date of the given fixed day, a signed count of days
// since 1970-01-01.
func FromDay(fixedDay int64) (NormalizedDate, error) {
	if fixedDay < MinFixedDay || fixedDay > MaxFixedDay {
		return NormalizedDate{}, fmt.Errorf("%w: fixed day %d", ErrOutOfRange, fixedDay)
	}
	cycle, d := intmath.DivModFloor(fixedDay-EpochOffset, DaysPerCycle)
	century, d := intmath.ClampedDivRem(d, DaysPerCentury, uint8(3))
	quadrennium, d := intmath.DivModFloor(d, DaysPerQuadrennium)
	year, day := intmath.ClampedDivRem(d, DaysPerYear, uint8(3))
	return NormalizedDate{
		cycle:       int8(cycle),
		century:     century,
		quadrennium: uint8(quadrennium),
		year:        year,
		day:         uint16(day),
	}, nil
}

// MustFromDay is like FromDay but panics on error.
func MustFromDay(fixedDay int64) NormalizedDate {
	d, err := FromDay(fixedDay)
	if err != nil {
		panic(err)
	}
	return d
}

// FromDate returns the normalized form of the civil date year-month-day.
func FromDate(year int, month time.Month, day int) (NormalizedDate, error) {
	if month < time.January || month > time.December {
		return NormalizedDate{}, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	if day < 1 || day > DaysIn(year, month) {
		return NormalizedDate{}, fmt.Errorf("%w: day %d of %04d-%02d", ErrInvalidDate, day, year, month)
	}

	y := int64(year) - 2000
	m := int64(month) - 3
	if m < 0 {
		m += 12
		y--
	}
	cycle, y := intmath.DivModFloor(y, 400)
	c, ok := intmath.Convert[int8](cycle)
	if !ok {
		return NormalizedDate{}, fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}
	century, y := intmath.ClampedDivRem(y, 100, uint8(3))
	quadrennium, y := intmath.ClampedDivRem(y, 4, uint8(24))
	return NormalizedDate{
		cycle:       c,
		century:     century,
		quadrennium: quadrennium,
		year:        uint8(y),
		day:         uint16(yearDayFromMonth(m) + int64(day) - 1),
	}, nil
}

// MustFromDate is like FromDate but panics on error.
func MustFromDate(year int, month time.Month, day int) NormalizedDate {
	d, err := FromDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromParts assembles a date from its normalized components.
func FromParts(cycle int8, century, quadrennium, year uint8, day uint16) (NormalizedDate, error) {
	d := NormalizedDate{cycle, century, quadrennium, year, day}
	if century > 3 || quadrennium > 24 || year > 3 || day > 365 || (day == 365 && !d.IsLeapYear()) {
		return NormalizedDate{}, fmt.Errorf("%w: parts (%d, %d, %d, %d, %d)", ErrInvalidDate, cycle, century, quadrennium, year, day)
	}
	return d, nil
}

// Cycle returns the number of 400-year cycles since 2000-03-01.
func (d NormalizedDate) Cycle() int8 { return d.cycle }

// Century returns the century within the cycle.
func (d NormalizedDate) Century() uint8 { return d.century }

// Quadrennium returns the 4-year period within the century.
func (d NormalizedDate) Quadrennium() uint8 { return d.quadrennium }

// YearOfQuadrennium returns the year within the quadrennium.
func (d NormalizedDate) YearOfQuadrennium() uint8 { return d.year }

// DayOfYear returns the number of days since March 1.
func (d NormalizedDate) DayOfYear() uint16 { return d.day }

// ToDay returns the fixed day of d.
func (d NormalizedDate) ToDay() int64 {
	return int64(d.cycle)*DaysPerCycle +
		int64(d.century)*DaysPerCentury +
		int64(d.quadrennium)*DaysPerQuadrennium +
		int64(d.year)*DaysPerYear +
		int64(d.day) +
		EpochOffset
}

// normalizedYear returns the civil year in which d's March-first year begins.
func (d NormalizedDate) normalizedYear() int {
	return 2000 + 400*int(d.cycle) + 100*int(d.century) + 4*int(d.quadrennium) + int(d.year)
}

// ToDate returns the civil year, month and day of d.
func (d NormalizedDate) ToDate() (year int, month time.Month, day int) {
	m, dim := monthDayFromYearDay(int64(d.day))
	year = d.normalizedYear()
	m += 3
	if m > 12 {
		m -= 12
		year++
	}
	return year, time.Month(m), int(dim) + 1
}

// Year returns the civil year of d.
func (d NormalizedDate) Year() int {
	if d.day >= januaryFirst {
		return d.normalizedYear() + 1
	}
	return d.normalizedYear()
}

// Month returns the civil month of d.
func (d NormalizedDate) Month() time.Month {
	_, m, _ := d.ToDate()
	return m
}

// Day returns the day of the month of d.
func (d NormalizedDate) Day() int {
	_, dim := monthDayFromYearDay(int64(d.day))
	return int(dim) + 1
}

// IsLeapYear reports whether d's March-first year ends with February 29.
func (d NormalizedDate) IsLeapYear() bool {
	return d.year == 3 && !(d.quadrennium == 24 && d.century != 3)
}

// YearLength returns the number of days in d's March-first year.
func (d NormalizedDate) YearLength() int64 {
	if d.IsLeapYear() {
		return DaysPerYear + 1
	}
	return DaysPerYear
}

// DaysInMonth returns the number of days in d's month.
func (d NormalizedDate) DaysInMonth() int {
	m, _ := monthDayFromYearDay(int64(d.day))
	return int(monthLength(m, d.IsLeapYear()))
}

// AddYears moves d by n years.
//
// February 29 moved into a common year becomes February 28 and AddYears
// returns a day carry of 1. On error d is left unchanged.
func (d *NormalizedDate) AddYears(n int64) (dayCarry int64, err error) {
	r, err := d.shiftYears(n)
	if err != nil {
		return 0, err
	}
	if r.day == DaysPerYear && !r.IsLeapYear() {
		r.day = DaysPerYear - 1
		dayCarry = 1
	}
	*d = r
	return dayCarry, nil
}

// shiftYears moves d by n years without looking at the day.
func (d NormalizedDate) shiftYears(n int64) (NormalizedDate, error) {
	total, ok := intmath.CheckedAdd(int64(d.year), n)
	if !ok {
		return d, fmt.Errorf("%w: adding %d years", ErrOutOfRange, n)
	}
	q, year := intmath.DivModFloor(total, 4)
	c, quadrennium := intmath.DivModFloor(int64(d.quadrennium)+q, 25)
	cy, century := intmath.DivModFloor(int64(d.century)+c, 4)
	cycle, ok := intmath.Convert[int8](int64(d.cycle) + cy)
	if !ok {
		return d, fmt.Errorf("%w: adding %d years", ErrOutOfRange, n)
	}
	d.cycle = cycle
	d.century = uint8(century)
	d.quadrennium = uint8(quadrennium)
	d.year = uint8(year)
	return d, nil
}

// AddMonths moves d by n months.
//
// If the day of month does not exist in the target month, the date is
// clamped to the last day of that month and the number of days cut off is
// returned as day carry. 2000-03-31 plus one month is 2000-04-30 with a carry
// of 1. On error d is left unchanged.
func (d *NormalizedDate) AddMonths(n int64) (dayCarry int64, err error) {
	m, dim := monthDayFromYearDay(int64(d.day))
	total, ok := intmath.CheckedAdd(m, n)
	if !ok {
		return 0, fmt.Errorf("%w: adding %d months", ErrOutOfRange, n)
	}
	years, m := intmath.DivModFloor(total, 12)
	r, err := d.shiftYears(years)
	if err != nil {
		return 0, err
	}
	if length := monthLength(m, r.IsLeapYear()); dim >= length {
		dayCarry = dim + 1 - length
		dim = length - 1
	}
	r.day = uint16(yearDayFromMonth(m) + dim)
	*d = r
	return dayCarry, nil
}

// AddDays moves d by n days. On error d is left unchanged.
func (d *NormalizedDate) AddDays(n int64) error {
	if day := int64(d.day) + n; n > -DaysPerYear && n < DaysPerYear && day >= 0 && day < d.YearLength() {
		d.day = uint16(day)
		return nil
	}
	fixed, ok := intmath.CheckedAdd(d.ToDay(), n)
	if !ok {
		return fmt.Errorf("%w: adding %d days", ErrOutOfRange, n)
	}
	r, err := FromDay(fixed)
	if err != nil {
		return err
	}
	*d = r
	return nil
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d NormalizedDate) Compare(o NormalizedDate) int {
	if c := cmp.Compare(d.cycle, o.cycle); c != 0 {
		return c
	}
	if c := cmp.Compare(d.century, o.century); c != 0 {
		return c
	}
	if c := cmp.Compare(d.quadrennium, o.quadrennium); c != 0 {
		return c
	}
	if c := cmp.Compare(d.year, o.year); c != 0 {
		return c
	}
	return cmp.Compare(d.day, o.day)
}

func (d NormalizedDate) String() string {
	y, m, day := d.ToDate()
	if y < 0 {
		return fmt.Sprintf("-%04d-%02d-%02d", -y, m, day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, day)
}

// IsLeapYear reports whether the civil year has 366 days. Year 0 is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given civil month.
func DaysIn(year int, month time.Month) int {
	m := int64(month) - 3
	if m < 0 {
		m += 12
		year--
	}
	return int(monthLength(m, IsLeapYear(year+1)))
}

// yearDayFromMonth returns the first day of month m, counted from March 1
// with March as month 0 (Reingold and Dershowitz, formula 1.90).
func yearDayFromMonth(m int64) int64 {
	return (153*m + 2) / 5
}

// monthDayFromYearDay is the inverse of yearDayFromMonth.
func monthDayFromYearDay(day int64) (month, dayOfMonth int64) {
	month = (5*day + 2) / 153
	return month, day - yearDayFromMonth(month)
}

// monthLength returns the length of month m, where 0 is March and 11 is February.
func monthLength(m int64, leap bool) int64 {
	if m == 11 {
		if leap {
			return 29
		}
		return 28
	}
	return yearDayFromMonth(m+1) - yearDayFromMonth(m)
}
