package iso8601

import (
	"fmt"

	"github.com/ngrash/leaptime/internal/intmath"
)

// Carry is the part of a calendar addition that did not fit into the target
// field. Days are cut off by month and year arithmetic when the day of month
// does not exist in the target month, seconds when a leap second does not
// exist on the target day.
type Carry struct {
	Days    uint64
	Seconds uint64
}

// IsZero reports whether c carries nothing.
func (c Carry) IsZero() bool { return c == Carry{} }

// WithCarry is the result of a calendar addition: a valid date-time and the
// carry that was cut off to reach it.
type WithCarry struct {
	DateTime DateTime
	Carry    Carry
}

// HasCarry reports whether the addition was clamped.
func (w WithCarry) HasCarry() bool { return !w.Carry.IsZero() }

// DropCarry returns the clamped date-time. Adding a month to January 31
// yields the last day of February.
func (w WithCarry) DropCarry() DateTime { return w.DateTime }

// CheckedUnwrap returns the date-time, or ErrCarryNotApplied if the addition
// was clamped.
func (w WithCarry) CheckedUnwrap() (DateTime, error) {
	if w.HasCarry() {
		return DateTime{}, fmt.Errorf("%w: %+v", ErrCarryNotApplied, w.Carry)
	}
	return w.DateTime, nil
}

// Unwrap is like CheckedUnwrap but panics if there is a carry.
func (w WithCarry) Unwrap() DateTime {
	d, err := w.CheckedUnwrap()
	if err != nil {
		panic(err)
	}
	return d
}

// CheckedApplyCarry adds the carried days and then the carried seconds.
// Adding a month to January 31 yields the first days of March.
func (w WithCarry) CheckedApplyCarry() (DateTime, error) {
	d := w.DateTime
	seconds := w.Carry.Seconds
	if w.Carry.Days != 0 {
		days, ok := intmath.Convert[int64](w.Carry.Days)
		if !ok {
			return DateTime{}, fmt.Errorf("%w: carry of %d days", ErrArithmeticOverflow, w.Carry.Days)
		}
		r, err := d.CheckedAddDays(days)
		if err != nil {
			return DateTime{}, err
		}
		d = r.DateTime
		seconds += r.Carry.Seconds
		if seconds < r.Carry.Seconds {
			return DateTime{}, fmt.Errorf("%w: carry of %d seconds", ErrArithmeticOverflow, w.Carry.Seconds)
		}
	}
	if seconds == 0 {
		return d, nil
	}
	s, ok := intmath.Convert[int64](seconds)
	if !ok {
		return DateTime{}, fmt.Errorf("%w: carry of %d seconds", ErrArithmeticOverflow, seconds)
	}
	return d.CheckedAddSeconds(s)
}

// ApplyCarry is like CheckedApplyCarry but panics on error.
func (w WithCarry) ApplyCarry() DateTime {
	d, err := w.CheckedApplyCarry()
	if err != nil {
		panic(err)
	}
	return d
}
