package iso8601

import (
	"fmt"

	"github.com/ngrash/leaptime/gregorian"
	"github.com/ngrash/leaptime/internal/intmath"
	"github.com/ngrash/leaptime/timescale"
)

// Instant returns the whole seconds elapsed since 1970-01-01T00:00:00Z,
// leap seconds included. The fraction of the second is dropped.
// Under PolicyStrict it fails for days the leap-second table does not cover.
func (d DateTime) Instant() (timescale.Instant[timescale.Seconds], error) {
	c := d.chronology()
	day := d.FixedDay()
	if err := c.checkCovered(day); err != nil {
		return timescale.Instant[timescale.Seconds]{}, err
	}
	return timescale.FromTicks[timescale.Seconds](c.secondInstant(day, d.sod())), nil
}

// NanoInstant is like Instant but keeps the fraction of the second.
func (d DateTime) NanoInstant() (timescale.Instant[timescale.Nanoseconds], error) {
	s, err := d.Instant()
	if err != nil {
		return timescale.Instant[timescale.Nanoseconds]{}, err
	}
	ns, err := timescale.Convert[timescale.Nanoseconds](s)
	if err != nil {
		return timescale.Instant[timescale.Nanoseconds]{}, fmt.Errorf("%w: %w", ErrArithmeticOverflow, err)
	}
	return ns.Add(timescale.DurationOf[timescale.Nanoseconds](int64(d.nanos())))
}

// FromInstant returns the date-time of an instant counted in elapsed
// seconds, leap seconds included. The precision follows the scale of i.
// A nil chronology means Default.
func FromInstant[S timescale.Scale](c *Chronology, i timescale.Instant[S]) (DateTime, error) {
	if c == nil {
		c = Default()
	}
	seconds, ticks := i.Split()
	tps := timescale.TicksPerSecond[S]()
	d := newDateTime(c, precisionOf(tps), epochDate, 0, ticksToNanos(ticks, tps), 0)
	return d.atSecond(seconds)
}

// CheckedAddDuration moves d by an elapsed duration, leap seconds included.
// The precision of the result is the finer of d's and the duration's.
func CheckedAddDuration[S timescale.Scale](d DateTime, dur timescale.Duration[S]) (DateTime, error) {
	seconds, ticks := dur.Split()
	tps := timescale.TicksPerSecond[S]()
	nanos := int64(d.nanos()) + ticksToNanos(ticks, tps)
	if nanos >= nanosPerSecond {
		nanos -= nanosPerSecond
		var ok bool
		if seconds, ok = intmath.CheckedAdd(seconds, 1); !ok {
			return DateTime{}, fmt.Errorf("%w: %d seconds", ErrArithmeticOverflow, seconds)
		}
	}
	p := max(d.Precision(), precisionOf(tps))
	r := newDateTime(d.chron, p, d.Date(), d.sod(), nanos, d.offset)
	return r.CheckedAddSeconds(seconds)
}

// AddDuration is like CheckedAddDuration but panics on error.
func AddDuration[S timescale.Scale](d DateTime, dur timescale.Duration[S]) DateTime {
	return must(CheckedAddDuration(d, dur))
}

// Sub returns the elapsed time d-o in nanoseconds, leap seconds included.
func (d DateTime) Sub(o DateTime) (timescale.Duration[timescale.Nanoseconds], error) {
	a, err := d.NanoInstant()
	if err != nil {
		return timescale.Duration[timescale.Nanoseconds]{}, err
	}
	b, err := o.NanoInstant()
	if err != nil {
		return timescale.Duration[timescale.Nanoseconds]{}, err
	}
	diff, err := a.Sub(b)
	if err != nil {
		return timescale.Duration[timescale.Nanoseconds]{}, fmt.Errorf("%w: %w", ErrArithmeticOverflow, err)
	}
	return diff, nil
}

// epochDate is 1970-01-01, a placeholder date replaced by atSecond.
var epochDate = gregorian.MustFromDay(0)

// ticksToNanos converts a fraction of a second in [0, tps) to nanoseconds,
// rounding down.
func ticksToNanos(ticks, tps int64) int64 {
	if tps > nanosPerSecond {
		return ticks / (tps / nanosPerSecond)
	}
	return ticks * (nanosPerSecond / tps)
}
