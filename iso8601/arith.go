package iso8601

import (
	"fmt"

	"github.com/ngrash/leaptime/gregorian"
	"github.com/ngrash/leaptime/internal/intmath"
)

// CheckedAddYears adds n years. February 29 moved into a common year
// becomes February 28 with a carry of one day.
func (d DateTime) CheckedAddYears(n int64) (WithCarry, error) {
	date := d.Date()
	dayCarry, err := date.AddYears(n)
	if err != nil {
		return WithCarry{}, fmt.Errorf("%w: %w", ErrDateTimeOutOfBounds, err)
	}
	return d.withDate(date, dayCarry)
}

// AddYears is like CheckedAddYears but panics on error.
func (d DateTime) AddYears(n int64) WithCarry { return must(d.CheckedAddYears(n)) }

// CheckedAddMonths adds n months. A day of month that does not exist in the
// target month is clamped to the last day and the difference is carried.
func (d DateTime) CheckedAddMonths(n int64) (WithCarry, error) {
	date := d.Date()
	dayCarry, err := date.AddMonths(n)
	if err != nil {
		return WithCarry{}, fmt.Errorf("%w: %w", ErrDateTimeOutOfBounds, err)
	}
	return d.withDate(date, dayCarry)
}

// AddMonths is like CheckedAddMonths but panics on error.
func (d DateTime) AddMonths(n int64) WithCarry { return must(d.CheckedAddMonths(n)) }

// CheckedAddDays adds n calendar days, keeping the time of day. A leap
// second moved to a day without one becomes the last second of that day and
// the difference is carried.
func (d DateTime) CheckedAddDays(n int64) (WithCarry, error) {
	date := d.Date()
	if err := date.AddDays(n); err != nil {
		return WithCarry{}, fmt.Errorf("%w: %w", ErrDateTimeOutOfBounds, err)
	}
	return d.withDate(date, 0)
}

// AddDays is like CheckedAddDays but panics on error.
func (d DateTime) AddDays(n int64) WithCarry { return must(d.CheckedAddDays(n)) }

// withDate moves d to date and clamps the time of day to the new day.
func (d DateTime) withDate(date gregorian.NormalizedDate, dayCarry int64) (WithCarry, error) {
	day := date.ToDay()
	if err := checkBounds(day); err != nil {
		return WithCarry{}, err
	}
	sod, secondCarry := d.chronology().spill(day, d.sod())
	return WithCarry{
		DateTime: d.with(date, sod),
		Carry:    Carry{Days: uint64(dayCarry), Seconds: uint64(secondCarry)},
	}, nil
}

// CheckedAddHours adds n hours of 60 minutes each. See CheckedAddMinutes.
// The precision of the result is at least Hours.
func (d DateTime) CheckedAddHours(n int64) (WithCarry, error) {
	minutes, ok := intmath.CheckedMul(n, 60)
	if !ok {
		return WithCarry{}, fmt.Errorf("%w: %d hours", ErrArithmeticOverflow, n)
	}
	return d.addMinutes(minutes, Hours)
}

// AddHours is like CheckedAddHours but panics on error.
func (d DateTime) AddHours(n int64) WithCarry { return must(d.CheckedAddHours(n)) }

// CheckedAddMinutes adds n minutes, keeping the second of the minute. A
// leap second moved into a minute without one becomes second 59 and the
// difference is carried: 23:59:60 plus one minute is 00:00:59 with a carry
// of one second. The precision of the result is at least Minutes.
func (d DateTime) CheckedAddMinutes(n int64) (WithCarry, error) {
	return d.addMinutes(n, Minutes)
}

func (d DateTime) addMinutes(n int64, p Precision) (WithCarry, error) {
	minute, second := intmath.ClampedDivRem(d.sod(), 60, int64(lastMinuteOfDay))
	total, ok := intmath.CheckedAdd(minute, n)
	if !ok {
		return WithCarry{}, fmt.Errorf("%w: %d minutes", ErrArithmeticOverflow, n)
	}
	days, minute := intmath.DivModFloor(total, minutesPerDay)
	date := d.Date()
	if err := date.AddDays(days); err != nil {
		return WithCarry{}, fmt.Errorf("%w: %w", ErrDateTimeOutOfBounds, err)
	}
	day := date.ToDay()
	if err := checkBounds(day); err != nil {
		return WithCarry{}, err
	}

	var sod, carry int64
	if minute < lastMinuteOfDay {
		if second >= 60 {
			carry = second - 59
			second = 59
		}
		sod = minute*60 + second
	} else {
		sod, carry = d.chronology().spill(day, minute*60+second)
	}
	return WithCarry{DateTime: d.with(date, sod).atLeast(p), Carry: Carry{Seconds: uint64(carry)}}, nil
}

// AddMinutes is like CheckedAddMinutes but panics on error.
func (d DateTime) AddMinutes(n int64) WithCarry { return must(d.CheckedAddMinutes(n)) }

// CheckedAddSeconds moves d by n elapsed seconds, leap seconds included.
// 2016-12-31T23:59:59Z plus one second is 2016-12-31T23:59:60Z. The
// precision of the result is at least Seconds.
func (d DateTime) CheckedAddSeconds(n int64) (DateTime, error) {
	c := d.chronology()
	day := d.FixedDay()
	if err := c.checkCovered(day); err != nil {
		return DateTime{}, err
	}
	instant, ok := intmath.CheckedAdd(c.secondInstant(day, d.sod()), n)
	if !ok {
		return DateTime{}, fmt.Errorf("%w: %d seconds", ErrArithmeticOverflow, n)
	}
	r, err := d.atSecond(instant)
	if err != nil {
		return DateTime{}, err
	}
	return r.atLeast(Seconds), nil
}

// AddSeconds is like CheckedAddSeconds but panics on error.
func (d DateTime) AddSeconds(n int64) DateTime { return must(d.CheckedAddSeconds(n)) }

// atSecond returns d moved to the elapsed second, keeping its fraction.
func (d DateTime) atSecond(instant int64) (DateTime, error) {
	c := d.chronology()
	day, sod := c.daySecond(instant)
	if err := checkBounds(day); err != nil {
		return DateTime{}, err
	}
	if err := c.checkCovered(day); err != nil {
		return DateTime{}, err
	}
	date, err := gregorian.FromDay(day)
	if err != nil {
		return DateTime{}, fmt.Errorf("%w: %w", ErrDateTimeOutOfBounds, err)
	}
	return d.with(date, sod), nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
